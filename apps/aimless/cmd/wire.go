package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/archive"
	"github.com/quatton/aimless/pkg/config"
	"github.com/quatton/aimless/pkg/db"
	"github.com/quatton/aimless/pkg/kube"
	"github.com/quatton/aimless/pkg/kv"
	"github.com/quatton/aimless/pkg/localsched"
	"github.com/quatton/aimless/pkg/sched"
	"github.com/quatton/aimless/pkg/shooter"
	"github.com/quatton/aimless/pkg/torque"
	"github.com/quatton/aimless/pkg/tpl"
)

// newScheduler builds the configured backend. The returned close func is
// never nil.
func newScheduler(cfg *config.Config, log *alog.Logger) (sched.Scheduler, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Main.Backend {
	case config.BackendKube:
		client, err := kube.NewClient(cfg.Kube.Kubeconfig)
		if err != nil {
			return nil, noop, err
		}
		return kube.NewScheduler(client, cfg.Kube, kube.WithLogger(log.Named("kube"))), noop, nil
	case config.BackendLocal:
		wd, err := os.Getwd()
		if err != nil {
			return nil, noop, fmt.Errorf("getting working directory: %w", err)
		}
		s := localsched.New(wd, localsched.WithLogger(log.Named("local")))
		return s, s.Close, nil
	default:
		return torque.New(
			torque.WithCommands(cfg.Main.Qsub, cfg.Main.Qstat),
			torque.WithLogger(log.Named("torque")),
		), noop, nil
	}
}

// newMirror returns nil when archiving is disabled.
func newMirror(ctx context.Context, cfg *config.Config, log *alog.Logger) (*archive.Mirror, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	var store archive.Store
	if cfg.Archive.Dir != "" {
		store = archive.NewFileStore(cfg.Archive.Dir)
	} else {
		s3, err := archive.NewS3Store(cfg.Archive.S3)
		if err != nil {
			return nil, err
		}
		store = s3
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("preparing archive store: %w", err)
	}
	return archive.NewMirror(store, log.Named("archive")), nil
}

// publishers holds the optional result sinks of a run.
type publishers struct {
	sinks   []shooter.Sink
	kv      kv.Store
	store   *db.Store
	release func(context.Context) error
	closers []func() error
}

func (p *publishers) Close(ctx context.Context, log *alog.Logger) {
	if p.release != nil {
		if err := p.release(ctx); err != nil {
			log.Warn("Could not release directory lock", "error", err)
		}
	}
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Warn("Close failed", "error", err)
		}
	}
}

// newPublishers connects the redis and database sinks that are enabled.
func newPublishers(ctx context.Context, cfg *config.Config, log *alog.Logger) (*publishers, error) {
	p := &publishers{}
	fail := func(err error) (*publishers, error) {
		p.Close(ctx, log)
		return nil, err
	}

	if cfg.Results.Redis.Addr != "" {
		store, err := kv.NewValkeyStore(ctx, cfg.Results.Redis)
		if err != nil {
			return fail(err)
		}
		p.closers = append(p.closers, store.Close)
		p.kv = store
		p.sinks = append(p.sinks, shooter.NewKVSink(store, cfg.Results.TTL))
	}

	if cfg.Results.Database {
		database, err := db.New(ctx, cfg.Results.DB)
		if err != nil {
			return fail(err)
		}
		p.closers = append(p.closers, database.Close)
		p.store = db.NewStore(database)
		p.sinks = append(p.sinks, p.store)
	}
	return p, nil
}

// prepareTarget claims main.tgtdir for runID when results.lock is set,
// then writes the input decks and seeds the shooting points. Nothing in
// the directory is touched unless the claim succeeds.
func prepareTarget(ctx context.Context, cfg *config.Config, p *publishers, runID uuid.UUID) error {
	tgtDir := cfg.Main.TgtDir
	if cfg.Results.Lock {
		if p.kv == nil {
			return aerr.Newf(aerr.CodeConfig, "results.lock needs results.redis.addr")
		}
		release, err := shooter.LockDir(ctx, p.kv, tgtDir, runID, cfg.Results.TTL)
		if err != nil {
			return err
		}
		p.release = release
	}

	if err := tpl.WriteInputs(cfg.Main.TplDir, tgtDir, cfg.TemplateParams()); err != nil {
		return err
	}
	if cfg.Main.Coordinates != "" {
		if err := shooter.InitDir(tgtDir, cfg.Main.Coordinates); err != nil {
			return err
		}
	}
	return shooter.NewSlots(tgtDir).Check()
}

func openStore(ctx context.Context, cfg *config.Config) (*db.Store, *bun.DB, error) {
	database, err := db.New(ctx, cfg.Results.DB)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(database), database, nil
}
