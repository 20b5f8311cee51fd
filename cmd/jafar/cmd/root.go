package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"jafar/internal/broker/projectx"
	"jafar/internal/broker/projectx/rest"
	"jafar/internal/config"
	"jafar/internal/logger"
	"jafar/internal/notify"
)

var rootCmd = &cobra.Command{
	Use:   "jafar",
	Short: "Personal trading assistant for ProjectX futures accounts",
	Long: `Jafar is a personal trading assistant built around the ProjectX gateway.

It provides:
  - AI-assisted trade analysis and order placement (trade)
  - Background escort agents that follow resting orders to completion (escort)
  - Contract lookup, open positions and live quote streaming
  - Long-term memory of key price levels and past analyses`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

// bootstrap loads configuration, builds the shared logger and the
// authenticated gateway client. Every subcommand that talks to the gateway
// starts here.
func bootstrap(ctx context.Context) (*config.Config, *logger.Logger, *rest.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	client, err := projectx.New(ctx, cfg.Gateway, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, client, nil
}

func newNotifier(cfg *config.Config, log *logger.Logger) notify.Notifier {
	return notify.NewHub(cfg, log)
}
