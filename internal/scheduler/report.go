package scheduler

import (
	"fmt"
	"io"
	"strings"
)

// maxExcerptLines bounds the diagnostic excerpt printed per failure.
const maxExcerptLines = 10

// WriteReport writes the human-readable run summary, including a short
// diagnostic excerpt for every failed figure.
func (s *Summary) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Considered %d figure(s): %d compiled, %d up to date, %d failed (%.2fs)\n",
		s.TotalConsidered, s.TotalCompiled, s.TotalSkipped, len(s.Failures),
		s.Duration.Seconds())

	for _, failure := range s.Failures {
		fmt.Fprintf(w, "\nFAILED: %s (exit code %d)\n", failure.Job.SourcePath, failure.ExitCode)
		if failure.TimedOut {
			fmt.Fprintln(w, "  compilation timed out")
		}
		for _, line := range excerpt(failure.ErrorOutput) {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// excerpt returns the last few non-empty lines of diagnostic output.
func excerpt(output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	var kept []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > maxExcerptLines {
		kept = kept[len(kept)-maxExcerptLines:]
	}
	return kept
}
