package entity

import "fmt"

// InputKind is what the declared input type expects the input path to be.
type InputKind string

const (
	InputKindFile      InputKind = "file"
	InputKindDirectory InputKind = "directory"
)

// InputNotFoundError reports an input path that does not exist or is not the
// kind of filesystem entry the declared input type requires.
type InputNotFoundError struct {
	Path string
	Kind InputKind
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input %s not found: %s", e.Kind, e.Path)
}

// StageError reports an external tool invocation that exited non-zero or
// could not be started. ExitCode is -1 when the process never ran.
type StageError struct {
	Stage    string
	ExitCode int
	Output   string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (exit %d): %v", e.Stage, e.ExitCode, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
