package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
		failed   bool
	}{
		{StatusPending, false, false},
		{StatusSuccess, true, false},
		{StatusFailure, true, true},
		{StatusAborted, true, true},
		{StatusUnstable, true, true},
		{Status("NOT_BUILT"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.Equal(t, tt.failed, tt.status.Failed())
		})
	}
}

func TestErrorMessages(t *testing.T) {
	start := &TimeoutError{Phase: PhaseStart, Waited: 30 * time.Second}
	assert.Equal(t, "Could not obtain build and timed out. Waited for 30 seconds.", start.Error())

	done := &TimeoutError{Phase: PhaseCompletion, Waited: 10 * time.Minute}
	assert.Equal(t, "Build has not finished and timed out. Waited for 600 seconds.", done.Error())

	failure := &BuildFailureError{Status: StatusUnstable}
	assert.Equal(t, `Build status returned "UNSTABLE". Build has failed ☹️.`, failure.Error())

	cause := errors.New("dial tcp: connection refused")
	var err error = fmt.Errorf("run: %w", &ConnectionError{URL: "http://ci", Err: cause})
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
