package container

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Backend names accepted by NewInvoker.
const (
	BackendCLI = "cli"
	BackendAPI = "api"
)

// NewInvoker returns the Invoker for backend. binary is only used by the
// cli backend and defaults to docker.
func NewInvoker(ctx context.Context, backend, binary string, logger *log.Logger) (Invoker, error) {
	switch backend {
	case "", BackendCLI:
		if binary == "" {
			binary = "docker"
		}
		return NewCLIInvoker(binary, logger), nil
	case BackendAPI:
		inv, err := NewAPIInvoker(ctx, logger)
		if err != nil {
			return nil, err
		}
		return inv, nil
	default:
		return nil, fmt.Errorf("%w %q (allowed: %s, %s)", ErrUnknownBackend, backend, BackendCLI, BackendAPI)
	}
}
