package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeineduck/todobridge/bridge"
	"github.com/caffeineduck/todobridge/fsys"
	"github.com/caffeineduck/todobridge/hostfunc"
	"github.com/caffeineduck/todobridge/internal/config"
	"github.com/caffeineduck/todobridge/kvstore"
	"github.com/caffeineduck/todobridge/replica"
)

// app is the host wiring shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    kvstore.Store
	replica  *replica.Replica
	bridge   *bridge.Bridge
	services *bridge.Services
	registry *hostfunc.Registry
	closers  []func() error
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.store = store

	var stater kvstore.ReplicationStater
	if cfg.Replica.Dir != "" {
		r, err := replica.New(store, cfg.Replica.Dir,
			replica.WithDevice(cfg.Replica.Device),
			replica.WithLogger(logger.With("component", "replica")),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.replica = r
		a.store = r
		stater = r
	}

	policy, err := cfg.LegacyPolicy()
	if err != nil {
		a.Close()
		return nil, err
	}

	fsOpts, err := cfg.FSOptions()
	if err != nil {
		a.Close()
		return nil, err
	}

	b, err := bridge.New(bridge.Deps{
		Paths:       cfg.Dirs(),
		Store:       a.store,
		FS:          fsys.NewOS(fsOpts...),
		Replication: stater,
	},
		bridge.WithLogger(logger.With("component", "bridge")),
		bridge.WithLegacyPolicy(policy),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.bridge = b
	a.services = bridge.NewServices(b)
	a.registry = hostfunc.NewRegistry()
	a.services.Register(a.registry)
	return a, nil
}

func (a *app) openStore() (kvstore.Store, error) {
	maxValue, err := a.cfg.MaxValueBytes()
	if err != nil {
		return nil, err
	}
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		limits := kvstore.DefaultConfig()
		limits.MaxValueSize = maxValue
		return kvstore.NewMemory(limits), nil
	case config.DriverSQLite:
		db, err := kvstore.OpenSQLite(a.cfg.StoreDir(), kvstore.WithMaxValueSize(maxValue))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
