// Package incremental decides whether a figure needs recompilation.
//
// The decision is a pure function of filesystem metadata: an artifact is
// stale when it is absent or strictly older (by mtime) than its source. File
// contents are never read, so staleness stays cheap for large figure trees.
// The artifacts and their timestamps are the whole incremental-build cache;
// there is no manifest or database beside them.
package incremental

import (
	"os"

	"git.home.luguber.info/inful/tikzbuild/internal/figures"
)

// Checker reports whether a job's output artifact is stale.
type Checker struct{}

// NewChecker creates a staleness checker.
func NewChecker() *Checker {
	return &Checker{}
}

// NeedsRecompile returns true when the output artifact does not exist or the
// source mtime is strictly newer than the artifact mtime. A missing output
// parent directory behaves like a missing artifact; directories are created
// later, at compile time. An error is returned only when the source itself
// cannot be stat'ed.
func (c *Checker) NeedsRecompile(job figures.Job) (bool, error) {
	srcInfo, err := os.Stat(job.SourcePath)
	if err != nil {
		return false, err
	}

	outInfo, err := os.Stat(job.OutputPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		// Unreadable artifact metadata: recompile rather than skip silently.
		return true, nil
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}
