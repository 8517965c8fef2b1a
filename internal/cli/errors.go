package cli

import "errors"

var (
	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")

	// ErrUnknownEnvironment is returned for a name the catalog does not list.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrUnsupported is returned for environments marked as not yet supported.
	ErrUnsupported = errors.New("environment is not supported yet")

	// ErrNoVersions is returned when an environment offers no versions.
	ErrNoVersions = errors.New("no versions available")

	// ErrNotInstalled is returned when switching to a version that is not
	// installed.
	ErrNotInstalled = errors.New("version is not installed")

	// ErrNoSelection is returned when a prompt ends with nothing chosen.
	ErrNoSelection = errors.New("nothing selected")

	// ErrNothingToUndo is returned when no reversible operation exists.
	ErrNothingToUndo = errors.New("no reversible operation found")
)
