// Package report publishes the run outcome to the GitHub Actions runner:
// step outputs, workflow-command annotations and log lines.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"jenkinsaction/internal/logger"
)

// OutputName is the step output carrying the build URL
const OutputName = "build_url"

// Reporter writes step outputs and annotations
type Reporter struct {
	// outputPath is the GITHUB_OUTPUT file, empty outside of Actions
	outputPath string
	stdout     io.Writer
}

// NewReporter creates a Reporter appending outputs to outputPath and printing
// annotations to stdout
func NewReporter(outputPath string, stdout io.Writer) *Reporter {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Reporter{
		outputPath: outputPath,
		stdout:     stdout,
	}
}

// BuildURL publishes the build URL as a step output and a notice annotation
func (r *Reporter) BuildURL(url string) error {
	logger.Info(fmt.Sprintf("Build URL: %s", url))

	if err := r.appendOutput(OutputName, url); err != nil {
		return err
	}

	_, err := fmt.Fprintf(r.stdout, "::notice title=%s::%s\n", escapeProperty(OutputName), escapeData(url))
	return err
}

// Failure prints err as an error annotation
func (r *Reporter) Failure(err error) {
	fmt.Fprintf(r.stdout, "::error::%s\n", escapeData(err.Error()))
}

func (r *Reporter) appendOutput(name, value string) error {
	if r.outputPath == "" {
		logger.Warn("GITHUB_OUTPUT is not set, skipping step output", "name", name)
		return nil
	}

	f, err := os.OpenFile(r.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // Path provided by the runner
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// escapeData escapes annotation messages the way the Actions toolkit does
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// escapeProperty escapes annotation property values
func escapeProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}
