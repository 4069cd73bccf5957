package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suncal/internal/config"
	appLog "suncal/internal/log"
	"suncal/internal/web"
)

const defaultConfigPath = "suncal.yaml"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured feeds over HTTP",
	Long: `serve exposes every feed from the config file as /calendar/{id}.ics and
/api/events?feed={id}. The file is created with defaults on first run and
reloaded when it changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := viper.GetString("config")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return err
	}
	applyLogFlags(cfg.Log)

	// CLI --listen overrides config file listen if provided.
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Location.Timezone,
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"backfill_days", cfg.BackfillDays,
		"feeds", len(cfg.Feeds),
	)

	srv := web.NewServer(cfg)

	refresh := newRefresher(srv.Refresh)
	if err := refresh.Schedule(cfg.RefreshCron); err != nil {
		return err
	}
	refresh.Start()
	defer refresh.Stop()

	ctx := cmd.Context()
	listen := cfg.Listen
	go func() {
		err := config.Watch(ctx, path, func(next *config.Config) {
			// The listener is bound once.
			next.Listen = listen
			srv.SetConfig(next)
			if err := refresh.Schedule(next.RefreshCron); err != nil {
				appLog.Error("refresh schedule not changed", err)
			}
		})
		if err != nil {
			appLog.Error("config watch stopped", err, "path", path)
		}
	}()

	err = srv.Run(ctx)
	appLog.Info("suncal exiting")
	return err
}
