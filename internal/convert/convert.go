// Package convert stages an NWChem input deck, runs it through the NWChem
// container and retrieves the Broombridge file it produces.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/jakenelson/nwchemctl/internal/container"
	"github.com/jakenelson/nwchemctl/internal/security"
	"github.com/nrednav/cuid2"
	"github.com/spf13/afero"
)

const stagingPrefix = "nwchemctl-"

// ErrOutputNotFound marks a conversion where the container did not leave the
// expected output file behind.
var ErrOutputNotFound = errors.New("output file not found")

// Options describes one conversion.
type Options struct {
	Input       string
	Destination string // optional; defaults to the input path with the target extension
	SkipPull    bool
	Tag         string
}

// Result reports what a conversion did.
type Result struct {
	Destination string
	OutputName  string
	OutputFound bool
	Invocation  *container.Result
}

// Orchestrator runs conversions against an Invoker.
type Orchestrator struct {
	invoker     container.Invoker
	fs          afero.Fs
	logger      *log.Logger
	image       string
	extension   string
	mountTarget string
	runtimeArgs []string
	tempDir     string
	goos        string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFs sets the filesystem holding the input, staging area and destination.
func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithImage sets the image name (without tag).
func WithImage(image string) Option {
	return func(o *Orchestrator) { o.image = image }
}

// WithTargetExtension sets the extension of the produced file.
func WithTargetExtension(ext string) Option {
	return func(o *Orchestrator) { o.extension = ext }
}

// WithMountTarget sets where the staging directory appears in the container.
func WithMountTarget(target string) Option {
	return func(o *Orchestrator) { o.mountTarget = target }
}

// WithRuntimeArgs adds runtime flags (e.g. --memory) to every invocation.
func WithRuntimeArgs(args ...string) Option {
	return func(o *Orchestrator) { o.runtimeArgs = append(o.runtimeArgs, args...) }
}

// WithTempDir sets the parent of staging directories (default os.TempDir()).
func WithTempDir(dir string) Option {
	return func(o *Orchestrator) { o.tempDir = dir }
}

// WithPlatform pins the host platform instead of querying runtime.GOOS.
func WithPlatform(goos string) Option {
	return func(o *Orchestrator) { o.goos = goos }
}

// New creates an Orchestrator. Defaults: OS filesystem, nwchemorg/nwchem-qc,
// .yaml output, staging mounted at /opt/data.
func New(invoker container.Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker:     invoker,
		fs:          afero.NewOsFs(),
		logger:      log.Default(),
		image:       "nwchemorg/nwchem-qc",
		extension:   "yaml",
		mountTarget: "/opt/data",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Convert stages opts.Input, runs the container on it and copies the
// produced file to the destination. A missing output file is logged and
// reported through Result.OutputFound rather than as an error. The staging
// directory is removed on every return path.
func (o *Orchestrator) Convert(ctx context.Context, opts Options) (*Result, error) {
	if opts.Input == "" {
		return nil, fmt.Errorf("no input deck given")
	}

	info, err := o.fs.Stat(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("input deck %s: %w", opts.Input, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input deck %s is a directory", opts.Input)
	}

	res := &Result{
		Destination: opts.Destination,
		OutputName:  OutputName(opts.Input, o.extension),
	}
	if res.Destination == "" {
		res.Destination = DefaultDestination(opts.Input, o.extension)
	}

	staging, err := o.createStaging()
	if err != nil {
		return nil, err
	}
	defer o.removeStaging(staging)

	inputName := filepath.Base(opts.Input)
	if err := o.copyFile(opts.Input, filepath.Join(staging, inputName)); err != nil {
		return nil, fmt.Errorf("failed to stage input deck: %w", err)
	}

	goos := o.platform()
	mountSource := NormalizeMountPath(o.hostPath(staging), goos)

	o.logger.Debug("invoking container", "image", o.image, "tag", opts.Tag, "staging", mountSource)
	invocation, err := o.invoker.Invoke(ctx, container.Request{
		Image:      o.image,
		Tag:        opts.Tag,
		Mounts:     []container.Mount{{Source: mountSource, Target: o.mountTarget}},
		DockerArgs: o.runtimeArgs,
		Command:    []string{inputName},
		SkipPull:   opts.SkipPull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", o.image, err)
	}
	res.Invocation = invocation
	if !invocation.Succeeded() {
		o.logger.Warn("container exited with non-zero status", "code", invocation.ExitCode)
	}

	produced := filepath.Join(staging, res.OutputName)
	found, err := afero.Exists(o.fs, produced)
	if err != nil {
		return nil, fmt.Errorf("failed to check for %s: %w", res.OutputName, err)
	}
	if !found {
		o.logger.Error(missingOutputMessage(goos), "expected", res.OutputName, "staging", staging)
		return res, nil
	}

	if err := o.copyFile(produced, res.Destination); err != nil {
		return nil, fmt.Errorf("failed to copy %s to %s: %w", res.OutputName, res.Destination, err)
	}
	res.OutputFound = true

	return res, nil
}

// platform is queried at the point of use unless pinned.
func (o *Orchestrator) platform() string {
	if o.goos != "" {
		return o.goos
	}
	return runtime.GOOS
}

func (o *Orchestrator) createStaging() (string, error) {
	parent := o.tempDir
	if parent == "" {
		parent = os.TempDir()
	}

	dir := filepath.Join(parent, stagingPrefix+cuid2.Generate())
	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	o.logger.Debug("created staging directory", "path", dir)
	return dir, nil
}

func (o *Orchestrator) removeStaging(dir string) {
	if err := o.fs.RemoveAll(dir); err != nil {
		o.logger.Warn("failed to remove staging directory", "path", dir, "error", err)
		return
	}
	o.logger.Debug("removed staging directory", "path", dir)
}

// hostPath resolves symlinks so the runtime sees the real directory
// (macOS temp dirs live behind /var -> /private/var).
func (o *Orchestrator) hostPath(dir string) string {
	resolved, err := security.ExpandPath(dir)
	if err != nil {
		o.logger.Debug("could not resolve staging path", "path", dir, "error", err)
		return dir
	}
	return resolved
}

func (o *Orchestrator) copyFile(src, dst string) error {
	in, err := o.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := o.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
