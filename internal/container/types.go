package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrUnsupportedFlag is returned when a pass-through runtime flag cannot
	// be translated for the selected backend.
	ErrUnsupportedFlag = errors.New("unsupported container runtime flag")

	// ErrUnknownBackend is returned for a runtime backend name that is not cli or api.
	ErrUnknownBackend = errors.New("unknown runtime backend")

	// ErrInvalidMount is returned for a mount spec that is not host:container[:ro|rw].
	ErrInvalidMount = errors.New("invalid mount")

	// ErrImageNotFound is returned when the image is absent locally and was not pulled.
	ErrImageNotFound = errors.New("image not found locally")
)

// Invoker runs an image to completion with inherited standard streams.
type Invoker interface {
	// Invoke pulls the image unless req.SkipPull is set, then runs it.
	// A non-zero exit status is reported in Result.ExitCode, not as an error.
	Invoke(ctx context.Context, req Request) (*Result, error)

	// Pull fetches or updates ref, writing progress to out.
	Pull(ctx context.Context, ref string, out io.Writer) error

	// Close releases resources held by the invoker.
	Close() error
}

// Mount represents a bind mount configuration
type Mount struct {
	Source   string // Host path
	Target   string // Container path
	ReadOnly bool
}

// String renders the mount in docker -v syntax.
func (m Mount) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// ParseMount parses host:container[:ro|rw]. The host side may carry a
// Windows drive letter (C:/data:/opt/data).
func ParseMount(spec string) (Mount, error) {
	var m Mount
	rest := spec
	switch {
	case strings.HasSuffix(rest, ":ro"):
		m.ReadOnly = true
		rest = strings.TrimSuffix(rest, ":ro")
	case strings.HasSuffix(rest, ":rw"):
		rest = strings.TrimSuffix(rest, ":rw")
	}

	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return Mount{}, fmt.Errorf("%w %q: expected host:container[:ro]", ErrInvalidMount, spec)
	}
	m.Source = rest[:i]
	m.Target = rest[i+1:]
	if !strings.HasPrefix(m.Target, "/") {
		return Mount{}, fmt.Errorf("%w %q: container path must be absolute", ErrInvalidMount, spec)
	}
	return m, nil
}

// Request describes a single container invocation.
type Request struct {
	Image      string
	Tag        string
	Mounts     []Mount
	DockerArgs []string // extra runtime flags, placed before the image reference
	Command    []string // arguments passed to the image entrypoint
	SkipPull   bool

	// Standard streams; nil means the process' own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (r Request) stdin() io.Reader {
	if r.Stdin == nil {
		return os.Stdin
	}
	return r.Stdin
}

func (r Request) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r Request) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// Result is the outcome of an invocation that reached the runtime.
type Result struct {
	ExitCode   int
	PullFailed bool
}

// Succeeded reports whether the container exited with status 0.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}
