// Command oxy-bloom renders a small farm scene through an HDR bloom post-process.
//
// Usage:
//
//	oxy-bloom run                      open the window
//	oxy-bloom render -o frame.png      render headless with the software backend
//	oxy-bloom shaders validate         compile the WGSL sources with naga
//	oxy-bloom config init|show         write or print the configuration
package main

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-bloom/engine/config"
	"github.com/spf13/cobra"
)

// version is overridden at link time.
var version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "oxy-bloom",
		Short: "HDR bloom renderer",
		Long: `oxy-bloom draws a farm scene into a floating point target, extracts the
bright fragments, blurs them with a ping-pong gaussian and composites the
result with exposure tonemapping.

Configuration:
  1. --config flag (explicit path)
  2. ./oxy-bloom.yaml
  3. $HOME/.config/oxy-bloom/oxy-bloom.yaml

Environment variables override the file, e.g. OXYBLOOM_BLOOM_EXPOSURE=1.5.

Controls (run):
  WASD move, mouse look, scroll zoom, F1 toggle mouse look,
  Space toggle bloom, Q/E exposure, X abduct, F flashlight.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./oxy-bloom.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newShadersCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	return rootCmd
}

// load reads the configuration and applies the persistent flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
