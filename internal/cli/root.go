package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jakenelson/nwchemctl/internal/config"
	"github.com/jakenelson/nwchemctl/internal/container"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  = log.NewWithOptions(os.Stderr, log.Options{Prefix: "nwchemctl"})
)

var rootCmd = &cobra.Command{
	Use:   "nwchemctl",
	Short: "Run NWChem in a container",
	Long: `nwchemctl runs the NWChem quantum chemistry package from a container image
and converts NWChem input decks into Broombridge files.

Examples:
  nwchemctl convert h2.nw                   # Writes h2.yaml next to h2.nw
  nwchemctl convert h2.nw out/h2.yaml       # Explicit destination
  nwchemctl convert --skip-pull h2.nw       # Use the local image as-is
  nwchemctl --tag 7.2.2 convert h2.nw       # Pin the image tag
  nwchemctl invoke -- --help                # Pass args to the image
  nwchemctl pull                            # Fetch or update the image`,
	SilenceUsage: true,
}

// ExitCodeError carries a non-zero container exit status out of a command.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("container exited with code %d", e.Code)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nwchemctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	// Image and runtime flags (override config)
	rootCmd.PersistentFlags().String("image", "", "NWChem image name (default: "+config.DefaultImage+")")
	rootCmd.PersistentFlags().String("tag", "", "image tag (default: latest)")
	rootCmd.PersistentFlags().Bool("skip-pull", false, "do not pull the image before running")
	rootCmd.PersistentFlags().String("backend", "", "runtime backend: cli, api (default: cli)")

	// Bind flags to viper for config integration
	viper.BindPFlag("image.name", rootCmd.PersistentFlags().Lookup("image"))
	viper.BindPFlag("image.tag", rootCmd.PersistentFlags().Lookup("tag"))
	viper.BindPFlag("image.skip_pull", rootCmd.PersistentFlags().Lookup("skip-pull"))
	viper.BindPFlag("runtime.backend", rootCmd.PersistentFlags().Lookup("backend"))
}

func initConfig() {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Warn("could not find home directory", "error", err)
		} else {
			viper.AddConfigPath(home + "/.config/nwchemctl")
		}

		// Search for config in standard locations
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	// NWCHEMCTL_IMAGE_TAG maps to image.tag
	viper.SetEnvPrefix("NWCHEMCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("error reading config file", "error", err)
		}
	} else {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	// Load into config struct
	cfg = config.LoadConfig()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newInvoker builds the invoker for the configured backend. Tests swap it out.
var newInvoker = func(ctx context.Context) (container.Invoker, error) {
	inv, err := container.NewInvoker(ctx, cfg.Runtime.Backend, cfg.Runtime.Binary, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create container invoker: %w", err)
	}
	return inv, nil
}

// runtimeArgs turns container settings into runtime flags shared by every invocation.
func runtimeArgs(c *config.Config) []string {
	var args []string
	if c.Container.MemoryLimit != "" {
		args = append(args, "--memory", c.Container.MemoryLimit)
	}
	if c.Container.Network != "" {
		args = append(args, "--network", c.Container.Network)
	}
	return args
}
