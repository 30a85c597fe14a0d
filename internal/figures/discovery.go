// Package figures enumerates standalone figure sources and maps them into a
// mirrored output tree.
package figures

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
)

// Job represents one unit of work: compile a single source file into its
// corresponding output artifact. Jobs are immutable once created.
type Job struct {
	SourcePath   string // Absolute path to the source file
	OutputPath   string // Absolute path to the compiled artifact
	RelativePath string // Path relative to the source root
}

// Discovery handles figure source enumeration
type Discovery struct {
	sourceRoot  string
	outputRoot  string
	extensions  []string
	artifactExt string
}

// NewDiscovery creates a new figure discovery instance. Extensions are the
// recognized source file extensions (with leading dot); artifactExt replaces
// the source extension when mapping output paths.
func NewDiscovery(sourceRoot, outputRoot string, extensions []string, artifactExt string) *Discovery {
	return &Discovery{
		sourceRoot:  sourceRoot,
		outputRoot:  outputRoot,
		extensions:  extensions,
		artifactExt: artifactExt,
	}
}

// Enumerate walks the source root and returns one Job per recognized source
// file, preserving relative directory structure in the output paths. The walk
// is a pure read; no directories are created here.
func (d *Discovery) Enumerate() ([]Job, error) {
	sourceRoot, err := filepath.Abs(d.sourceRoot)
	if err != nil {
		return nil, builderrors.NewConfigError("failed to resolve source directory", err)
	}
	outputRoot, err := filepath.Abs(d.outputRoot)
	if err != nil {
		return nil, builderrors.NewConfigError("failed to resolve output directory", err)
	}

	info, err := os.Stat(sourceRoot)
	if os.IsNotExist(err) {
		return nil, builderrors.NewConfigError(
			fmt.Sprintf("source directory does not exist: %s", sourceRoot), err)
	}
	if err != nil {
		return nil, builderrors.NewConfigError(
			fmt.Sprintf("cannot read source directory: %s", sourceRoot), err)
	}
	if !info.IsDir() {
		return nil, builderrors.NewConfigError(
			fmt.Sprintf("source path is not a directory: %s", sourceRoot), nil)
	}

	var jobs []Job
	err = filepath.WalkDir(sourceRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !d.recognized(entry.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return err
		}

		ext := filepath.Ext(relPath)
		outPath := filepath.Join(outputRoot, strings.TrimSuffix(relPath, ext)+d.artifactExt)
		jobs = append(jobs, Job{
			SourcePath:   path,
			OutputPath:   outPath,
			RelativePath: relPath,
		})
		return nil
	})
	if err != nil {
		return nil, builderrors.NewConfigError("failed to walk source directory", err)
	}

	slog.Debug("Figure enumeration completed", "source", sourceRoot, "figures", len(jobs))
	return jobs, nil
}

// recognized reports whether name carries one of the configured source extensions.
func (d *Discovery) recognized(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range d.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// DuplicateTargetError reports two or more jobs mapping to the same output
// artifact. Compiling them concurrently would corrupt the artifact, so this is
// surfaced before any compilation starts.
type DuplicateTargetError struct {
	OutputPath string
	Sources    []string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("duplicate output target %s for sources: %s",
		e.OutputPath, strings.Join(e.Sources, ", "))
}

// DetectDuplicateTargets returns a DuplicateTargetError when two jobs share an
// output path (possible when several source extensions are configured and two
// files differ only in extension). Returns nil when all targets are unique.
func DetectDuplicateTargets(jobs []Job) error {
	byTarget := make(map[string][]string, len(jobs))
	for _, job := range jobs {
		byTarget[job.OutputPath] = append(byTarget[job.OutputPath], job.SourcePath)
	}
	for target, sources := range byTarget {
		if len(sources) > 1 {
			sort.Strings(sources)
			return &DuplicateTargetError{OutputPath: target, Sources: sources}
		}
	}
	return nil
}
