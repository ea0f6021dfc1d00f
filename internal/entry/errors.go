package entry

import "errors"

// ErrAborted is returned when a user declines the confirmation prompt for
// a non-forced, non-dry-run deployment.
var ErrAborted = errors.New("deployment aborted by user")
