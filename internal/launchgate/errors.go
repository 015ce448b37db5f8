package launchgate

import "fmt"

// Reason says which validation check rejected a target.
type Reason string

const (
	ReasonEmptyCommand     Reason = "empty command"
	ReasonNotAbsolute      Reason = "not an absolute path"
	ReasonResolveFailed    Reason = "path resolution failed"
	ReasonOutsideAllowList Reason = "outside launch allow-list"
	ReasonOutsideHome      Reason = "outside home directory"
	ReasonUnknownAction    Reason = "unknown system action"
)

// LaunchError is a rejected launch or open target. Path carries the
// resolved path that failed the named check, so rejections are debuggable
// without exposing unrelated filesystem structure.
type LaunchError struct {
	Reason Reason
	Path   string
}

func (e *LaunchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("launch rejected: %s", e.Reason)
	}
	return fmt.Sprintf("launch rejected: %s: %s", e.Reason, e.Path)
}

// SpawnError means validation passed but the OS refused to create the
// process.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
