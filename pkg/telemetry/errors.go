package telemetry

import (
	"errors"
	"fmt"
)

// ErrAlreadyInstalled is returned by Build when a pipeline has already been
// installed as this process's instrumentation sink. The first installation
// remains active; a second one signals a programming error.
var ErrAlreadyInstalled = errors.New("telemetry pipeline already installed in this process")

// BuildError reports a failure to construct one pipeline stage: a malformed
// endpoint, an unsupported protocol, or exporter transport construction
// failing. These are configuration errors, not transient conditions, so
// composition never retries them.
type BuildError struct {
	Stage    StageKind
	Endpoint string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s stage for endpoint %q: %v", e.Stage, e.Endpoint, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
