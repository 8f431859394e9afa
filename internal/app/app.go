// Package app wires the upstream clients, caches and service from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mightstone-backend/internal/cardcache"
	"mightstone-backend/internal/components/chrono"
	"mightstone-backend/internal/components/pagecache"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/hydrator"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"
	"mightstone-backend/internal/service"
	"mightstone-backend/lib/configutil"
	"mightstone-backend/lib/restyutil"
)

const (
	report_denylist_reload = "denylist.reload"
	report_close           = "close"
)

type App struct {
	Config  Config
	Service service.Service
	Filter  *edhrec.TagFilter
	EDHREC  *edhrec.Client
	Cards   *scryfall.Client

	tel     telemetry.API
	closers []func() error
}

func New(cfg Config, tel telemetry.API) (*App, error) {
	a := &App{Config: cfg, tel: telemetry.NewScopedAPI("app", tel)}

	a.Filter = edhrec.NewTagFilter(cfg.Tags.ExtraDenylist...)
	if cfg.Tags.DenylistFile != "" {
		err := a.ReloadDenylist()
		if err != nil {
			return nil, err
		}
	}

	pages, err := pagecache.New(pagecache.Options{
		TTL:      time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Size:     cfg.Cache.Size,
		RedisURL: cfg.Cache.RedisURL,
	}, tel)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}
	a.closers = append(a.closers, pages.Close)

	a.EDHREC, err = edhrec.NewClient(edhrec.ClientOptions{
		BaseURL:           cfg.EDHREC.BaseURL,
		JSONBaseURL:       cfg.EDHREC.JSONBaseURL,
		UserAgent:         cfg.EDHREC.UserAgent,
		Timeout:           seconds(cfg.EDHREC.TimeoutSeconds),
		Retries:           cfg.EDHREC.Retries,
		RequestsPerSecond: cfg.EDHREC.RequestsPerSecond,
		Cache:             pages,
	}, tel)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cards = scryfall.NewClient(scryfall.ClientOptions{
		BaseURL:           cfg.Scryfall.BaseURL,
		Timeout:           seconds(cfg.Scryfall.TimeoutSeconds),
		RequestsPerSecond: cfg.Scryfall.RequestsPerSecond,
	}, tel)

	err = a.instrument()
	if err != nil {
		a.Close()
		return nil, err
	}

	lookup, err := a.cardLookup()
	if err != nil {
		a.Close()
		return nil, err
	}

	imageSize, err := scryfall.ParseImageSize(cfg.Scryfall.ImageSize)
	if err != nil {
		a.Close()
		return nil, err
	}
	throttle := hydrator.NewThrottle(
		cfg.Scryfall.MaxConcurrency,
		time.Duration(cfg.Scryfall.MinDelayMs)*time.Millisecond,
	)
	a.Service = service.New(
		a.EDHREC,
		a.Cards,
		hydrator.New(lookup, throttle, tel),
		service.WithTelemetry(tel),
		service.WithTagFilter(a.Filter),
		service.WithHydrationDefaults(hydrator.Options{
			MaxItems:  cfg.Scryfall.MaxItems,
			ImageSize: imageSize,
			Timeout:   seconds(cfg.Scryfall.TimeoutSeconds),
		}),
	)
	return a, nil
}

// instrument adds tracing to both upstream clients and, when a dump
// directory is configured, writes every exchange under it.
func (a *App) instrument() error {
	var edOut, sfOut restyutil.InstrumentOutput
	if dir := a.Config.Debug.RestyDumpDir; dir != "" {
		ed, err := restyutil.NewFilesystemOutput(filepath.Join(dir, "edhrec"))
		if err != nil {
			return err
		}
		sf, err := restyutil.NewFilesystemOutput(filepath.Join(dir, "scryfall"))
		if err != nil {
			return err
		}
		edOut, sfOut = ed, sf
	}
	restyutil.InstrumentClient(a.EDHREC.HTTP(), "edhrec", edOut)
	restyutil.InstrumentClient(a.Cards.HTTP(), "scryfall", sfOut)
	return nil
}

// cardLookup puts the SQLite card cache in front of Scryfall when a file is
// configured.
func (a *App) cardLookup() (hydrator.Lookup, error) {
	cfg := a.Config.CardCache
	if cfg.File == "" {
		return a.Cards, nil
	}

	db, err := cardcache.Open(cfg.File)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	store := cardcache.NewStore(db, time.Duration(cfg.TTLHours)*time.Hour, chrono.NewStandardTime(), a.tel)
	if cfg.PurgeCron != "" {
		cron := chrono.NewStandardCron(a.tel)
		a.closers = append(a.closers, func() error {
			cron.Stop()
			return nil
		})
		err = store.SchedulePurge(cron, cfg.PurgeCron)
		if err != nil {
			return nil, fmt.Errorf("card cache purge schedule: %w", err)
		}
	}
	return cardcache.NewCachedLookup(store, a.Cards), nil
}

// ReloadDenylist replaces the extra denylist with the configured entries
// plus the contents of the denylist file.
func (a *App) ReloadDenylist() error {
	f, err := os.Open(a.Config.Tags.DenylistFile)
	if err != nil {
		return fmt.Errorf("denylist: %w", err)
	}
	defer f.Close()

	names, err := edhrec.ReadDenylist(f)
	if err != nil {
		return fmt.Errorf("denylist: %w", err)
	}
	extra := append(append([]string{}, a.Config.Tags.ExtraDenylist...), names...)
	a.Filter.Replace(extra)
	a.tel.ReportDebug(report_denylist_reload, a.Config.Tags.DenylistFile, len(names))
	return nil
}

// WatchDenylist reloads the denylist file whenever it changes, until ctx
// is done. It does nothing when no file is configured.
func (a *App) WatchDenylist(ctx context.Context) error {
	if a.Config.Tags.DenylistFile == "" {
		return nil
	}
	return configutil.WatchFile(ctx, a.Config.Tags.DenylistFile, func() {
		err := a.ReloadDenylist()
		if err != nil {
			a.tel.ReportWarning(report_denylist_reload, err)
		}
	})
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.tel.ReportWarning(report_close, err)
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
