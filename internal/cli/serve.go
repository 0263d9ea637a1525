package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slowcors/slowcors/internal/config"
	"github.com/slowcors/slowcors/internal/server"
)

// runServe binds the port, prints the banner and serves until the process is
// killed or the command context is cancelled.
func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Latency: cfg.LatencyDuration(),
		Port:    cfg.Port,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", srv.Banner())

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger.SetLevel(level)
	return logger, nil
}
