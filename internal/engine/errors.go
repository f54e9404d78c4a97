package engine

import (
	"fmt"
	"time"
)

// ConnectionError is returned when the server is unreachable or rejects the
// verification request
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to Jenkins at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Phase names a polling phase
type Phase string

const (
	PhaseStart      Phase = "start"
	PhaseCompletion Phase = "completion"
)

// TimeoutError is returned when a polling phase exceeds its budget
type TimeoutError struct {
	Phase  Phase
	Waited time.Duration
	// URL of the build, empty when the build never started
	URL string
}

func (e *TimeoutError) Error() string {
	seconds := int64(e.Waited / time.Second)
	if e.Phase == PhaseStart {
		return fmt.Sprintf("Could not obtain build and timed out. Waited for %d seconds.", seconds)
	}
	return fmt.Sprintf("Build has not finished and timed out. Waited for %d seconds.", seconds)
}

// BuildFailureError is returned when a build ends with a failing status
type BuildFailureError struct {
	Status Status
	URL    string
}

func (e *BuildFailureError) Error() string {
	return fmt.Sprintf("Build status returned %q. Build has failed ☹️.", string(e.Status))
}
