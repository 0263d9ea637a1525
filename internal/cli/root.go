// Package cli provides the command-line interface for slowcors.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slowcors/slowcors/internal/config"
)

const version = "0.1.0"

// Execute runs the root command.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

// newRootCmd builds the command tree. The root command itself runs the server.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "slowcors",
		Short: "Static file server with artificial latency and open CORS",
		Long: `slowcors serves files from the current directory over HTTP, sleeping
before every response and adding permissive cross-origin headers
(Access-Control-Allow-Origin: * and Timing-Allow-Origin: *).

A GET waits for the latency twice: once before the file is resolved and once
before the response headers go out. Every connection is closed after one
response.

Examples:
  slowcors                          # 200ms latency on port 3785
  slowcors --latency 0 --port 8000  # no delay, port 8000
  slowcors config show --yaml       # print the resolved configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Int("latency", config.DefaultLatency, "milliseconds to delay each response (applied twice per GET)")
	flags.Int("port", config.DefaultPort, "port to listen on, all IPv4 interfaces")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every request")

	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// rootOptions holds values of the persistent flags that are not config keys.
type rootOptions struct {
	verbose bool
}

func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newVersionCmd shows version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slowcors version %s\n", version)
		},
	}
}
