package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shiftclock/compliance"
	"shiftclock/config"
	"shiftclock/internal/logger"
	"shiftclock/session"
	"shiftclock/storage"
)

// app bundles what every data command needs: validated config, the
// resolved compliance profile, an open store and the logger.
type app struct {
	cfg     *config.Config
	profile compliance.Profile
	store   *storage.SQLStore
	log     zerolog.Logger
	loc     *time.Location
	now     func() time.Time
}

func openApp(forceJSONLogs bool) (*app, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dbOverride) != "" {
		cfg.Database.DSN = dbOverride
	}

	level := cfg.Log.Level
	if strings.TrimSpace(logLevelArg) != "" {
		level = logLevelArg
	}
	format := cfg.Log.Format
	if forceJSONLogs {
		format = logger.FormatJSON
	}
	log, err := logger.New(level, format)
	if err != nil {
		return nil, err
	}

	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("user", cfg.User.ID).
		Str("region", profile.Region.String()).
		Str("employment", string(profile.EmploymentType)).
		Str("driver", cfg.Database.Driver).
		Msg("configuration loaded")

	return &app{
		cfg:     cfg,
		profile: profile,
		store:   store,
		log:     log,
		loc:     time.Local,
		now:     time.Now,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) userID() string {
	return a.cfg.User.ID
}

// controller returns a session controller loaded with today's entries.
func (a *app) controller(ctx context.Context, opts ...session.Option) (*session.Controller, error) {
	opts = append([]session.Option{
		session.WithClock(a.now),
		session.WithLocation(a.loc),
		session.WithLogger(a.log),
	}, opts...)
	controller := session.NewController(a.store, a.userID(), opts...)
	if err := controller.Load(ctx, a.store); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return controller, nil
}
