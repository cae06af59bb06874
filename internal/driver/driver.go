// Package driver runs a merge the way a git merge driver is invoked: three
// file paths in, the merged document written over ours. A failed run leaves a
// debug bundle with the three inputs and the error for offline diagnosis.
package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/projmerge/projmerge/internal/codec"
	"github.com/projmerge/projmerge/internal/merge"
	"github.com/projmerge/projmerge/internal/telemetry"
	"github.com/projmerge/projmerge/internal/types"
)

// Patcher upgrades a parsed document before it is merged, so that documents
// written by older editor versions merge against newer ones.
type Patcher interface {
	Patch(ctx context.Context, p *types.Project) error
}

// PatcherFunc adapts a function to Patcher.
type PatcherFunc func(ctx context.Context, p *types.Project) error

func (f PatcherFunc) Patch(ctx context.Context, p *types.Project) error {
	return f(ctx, p)
}

// Options configure Run.
type Options struct {
	// Fs is the filesystem to read and write. Defaults to the OS filesystem.
	Fs afero.Fs

	Merge merge.Options

	// Patcher, when set, is applied to all three documents.
	Patcher Patcher

	// DebugDir receives a bundle per failed run. Empty disables bundles.
	DebugDir string

	// Indent of the written document; codec.DefaultIndent when empty.
	Indent string

	Logger *zap.Logger

	// Output overrides the path the merged document is written to.
	// Defaults to the ours path.
	Output string
}

// FailureError is returned by Run when the merge could not complete.
type FailureError struct {
	Err error
	// BundleDir is the debug bundle written for this failure, if any.
	BundleDir string
}

func (e *FailureError) Error() string {
	if e.BundleDir == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (debug bundle: %s)", e.Err, e.BundleDir)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Inputs are the three documents of a merge.
type Inputs struct {
	Ancestor, Ours, Theirs *types.Project

	// AncestorErr is set when the ancestor was malformed and replaced by an
	// empty document.
	AncestorErr error

	// Raw holds the file contents in ancestor, ours, theirs order, as far as
	// they could be read.
	Raw [3][]byte
}

// LoadInputs reads and parses the three files concurrently. Ours and theirs
// must parse; a malformed ancestor degrades to an empty document. The
// returned Inputs is never nil so that Raw can be inspected after a failure.
// A failure on one file does not stop the others from being read.
func LoadInputs(ctx context.Context, fs afero.Fs, ancestorPath, oursPath, theirsPath string) (*Inputs, error) {
	in := &Inputs{}
	var g errgroup.Group

	g.Go(func() error {
		data, err := readFile(ctx, fs, ancestorPath)
		if err != nil {
			return fmt.Errorf("reading ancestor: %w", err)
		}
		in.Raw[0] = data
		in.Ancestor, in.AncestorErr = codec.ParseAncestor(data)
		return nil
	})
	g.Go(func() error {
		data, err := readFile(ctx, fs, oursPath)
		if err != nil {
			return fmt.Errorf("reading ours: %w", err)
		}
		in.Raw[1] = data
		if in.Ours, err = codec.Parse(data); err != nil {
			return fmt.Errorf("parsing ours %s: %w", oursPath, err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := readFile(ctx, fs, theirsPath)
		if err != nil {
			return fmt.Errorf("reading theirs: %w", err)
		}
		in.Raw[2] = data
		if in.Theirs, err = codec.Parse(data); err != nil {
			return fmt.Errorf("parsing theirs %s: %w", theirsPath, err)
		}
		return nil
	})

	return in, g.Wait()
}

func readFile(ctx context.Context, fs afero.Fs, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// #nosec G304 - paths come from the merge driver invocation
	return afero.ReadFile(fs, path)
}

// Run merges the documents at the three paths and writes the result to
// opts.Output, or over ours. Any failure, including a panic in the merge,
// writes a debug bundle and is returned as a *FailureError.
func Run(ctx context.Context, ancestorPath, oursPath, theirsPath string, opts Options) (res *merge.Result, err error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Merge.Logger == nil {
		opts.Merge.Logger = log
	}
	output := opts.Output
	if output == "" {
		output = oursPath
	}

	var in *Inputs
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("merge panicked: %v", r)
		}
		if err == nil {
			return
		}
		var raw [3][]byte
		if in != nil {
			raw = in.Raw
		}
		failure := &FailureError{Err: err}
		if opts.DebugDir != "" {
			dir, bundleErr := WriteBundle(opts.Fs, opts.DebugDir, raw, err)
			if bundleErr != nil {
				log.Warn("could not write debug bundle", zap.Error(bundleErr))
			} else {
				failure.BundleDir = dir
			}
		}
		res, err = nil, failure
	}()

	in, err = LoadInputs(ctx, opts.Fs, ancestorPath, oursPath, theirsPath)
	if err != nil {
		return nil, err
	}
	if in.AncestorErr != nil {
		log.Warn("ancestor is malformed, merging against an empty document",
			zap.String("path", ancestorPath), zap.Error(in.AncestorErr))
	}

	if opts.Patcher != nil {
		for _, p := range []*types.Project{in.Ancestor, in.Ours, in.Theirs} {
			if err := opts.Patcher.Patch(ctx, p); err != nil {
				return nil, fmt.Errorf("patching document: %w", err)
			}
		}
	}

	res, err = telemetry.TrackMerge(ctx, func(context.Context) (*merge.Result, error) {
		return merge.Projects(in.Ancestor, in.Ours, in.Theirs, opts.Merge), nil
	})
	if err != nil {
		return nil, err
	}

	data, err := codec.Marshal(res.Project, opts.Indent)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(opts.Fs, output, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", output, err)
	}
	log.Debug("merge written",
		zap.String("output", output),
		zap.Int("conflicts", merge.CountConflicts(res.Conflicts)),
		zap.Int("promoted", len(res.Promoted)))
	return res, nil
}

// bundleNames are the file names of the three inputs inside a bundle.
var bundleNames = [3]string{"ancestor.json", "ours.json", "theirs.json"}

// WriteBundle stores the inputs of a failed merge and its error under a new
// directory of debugDir and returns that directory.
func WriteBundle(fs afero.Fs, debugDir string, raw [3][]byte, cause error) (string, error) {
	dir := filepath.Join(debugDir, time.Now().UTC().Format("20060102T150405Z")+"-"+uuid.NewString())
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating bundle directory: %w", err)
	}
	var result *multierror.Error
	for i, name := range bundleNames {
		if raw[i] == nil {
			continue
		}
		if err := afero.WriteFile(fs, filepath.Join(dir, name), raw[i], 0o644); err != nil {
			result = multierror.Append(result, err)
		}
	}
	text := cause.Error() + "\n"
	if err := afero.WriteFile(fs, filepath.Join(dir, "error.txt"), []byte(text), 0o644); err != nil {
		result = multierror.Append(result, err)
	}
	return dir, result.ErrorOrNil()
}
