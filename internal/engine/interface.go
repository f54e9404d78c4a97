package engine

import "context"

// Status is the result a CI server reports for a build
type Status string

const (
	// StatusPending means the build has no result yet
	StatusPending  Status = ""
	StatusSuccess  Status = "SUCCESS"
	StatusFailure  Status = "FAILURE"
	StatusAborted  Status = "ABORTED"
	StatusUnstable Status = "UNSTABLE"
)

// Terminal reports whether the status will not change any further.
// Results outside the known set (NOT_BUILT for instance) are not terminal.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusAborted, StatusUnstable:
		return true
	}
	return false
}

// Failed reports whether the status is a terminal failure
func (s Status) Failed() bool {
	return s.Terminal() && s != StatusSuccess
}

// Job is a buildable job as reported by the server
type Job struct {
	Name string
	// URL is the job URL as the server reports it
	URL string
	// Parameterized is true when the job defines build parameters
	Parameterized bool
}

// QueueItem is a build request accepted by the server that may not have
// started yet
type QueueItem struct {
	ID  int64
	URL string
}

// Build is one execution of a job
type Build struct {
	Number int64
	URL    string
}

// Server is the remote CI server. URLs on the values passed in must already
// be rewritten to the reachable address; URLs on returned values are exactly
// what the server reported.
type Server interface {
	// Connect establishes the session and verifies the server responds.
	// It returns the server version when known.
	Connect(ctx context.Context) (string, error)

	// GetJob resolves a job by its full name
	GetJob(ctx context.Context, name string) (*Job, error)

	// TriggerBuild requests a build of job with the given parameters
	TriggerBuild(ctx context.Context, job Job, params map[string]any) (*QueueItem, error)

	// ResolveBuild returns the build a queue item turned into, or nil if it
	// has not started yet
	ResolveBuild(ctx context.Context, item QueueItem) (*Build, error)

	// GetResult returns the current status of build
	GetResult(ctx context.Context, build Build) (Status, error)
}
