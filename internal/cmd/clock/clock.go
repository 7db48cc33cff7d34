// Package clock parses clock service flags and launches the service.
package clock

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/hostcarioca/timeclock/internal/platform/cmd"
	server "github.com/hostcarioca/timeclock/internal/services/clock/app"
)

// Config holds clock command configuration.
type Config struct {
	Port                    int    `env:"TIMECLOCK_PORT" envDefault:"8090"`
	HTTPPort                int    `env:"TIMECLOCK_HTTP_PORT" envDefault:"8080"`
	DBPath                  string `env:"TIMECLOCK_DB_PATH" envDefault:"data/clock.db"`
	PresenceIntervalSeconds int    `env:"TIMECLOCK_PRESENCE_INTERVAL_SECONDS" envDefault:"60"`
	OverrideAuthorityID     string `env:"TIMECLOCK_OVERRIDE_AUTHORITY_ID"`
	HistoryChannelID        string `env:"TIMECLOCK_HISTORY_CHANNEL_ID"`
	Locale                  string `env:"TIMECLOCK_LOCALE" envDefault:"en"`
	HistoryLimit            int    `env:"TIMECLOCK_HISTORY_LIMIT" envDefault:"5"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The clock gRPC health port")
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "The keep-alive HTTP port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the clock SQLite database")
	fs.IntVar(&cfg.PresenceIntervalSeconds, "presence-interval", cfg.PresenceIntervalSeconds, "Presence check interval in seconds")
	fs.StringVar(&cfg.OverrideAuthorityID, "override-authority", cfg.OverrideAuthorityID, "Identity allowed to finalize other users' sessions")
	fs.StringVar(&cfg.HistoryChannelID, "history-channel", cfg.HistoryChannelID, "Destination for closure reports")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Message locale (en or pt-BR)")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", cfg.HistoryLimit, "Number of finalized segments a history query returns")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the clock session service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceClock, func(context.Context) error {
		srv, err := server.New(server.Config{
			Port:                cfg.Port,
			HTTPPort:            cfg.HTTPPort,
			DBPath:              cfg.DBPath,
			PresenceInterval:    time.Duration(cfg.PresenceIntervalSeconds) * time.Second,
			OverrideAuthorityID: cfg.OverrideAuthorityID,
			HistoryChannelID:    cfg.HistoryChannelID,
			Locale:              cfg.Locale,
			HistoryLimit:        cfg.HistoryLimit,
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	})
}
