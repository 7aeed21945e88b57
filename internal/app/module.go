// Package app composes the client's components with fx.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/account"
	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/config"
	"github.com/matheus3301/mingle/internal/lock"
	"github.com/matheus3301/mingle/internal/logging"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/session"
	"github.com/matheus3301/mingle/internal/status"
	"github.com/matheus3301/mingle/internal/store"
)

// Params holds the resolved profile and configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	// LogToStderr tees log output to the terminal. The TUI leaves it off.
	LogToStderr bool
}

// Core is every component a front end needs.
type Core struct {
	fx.In

	Params  Params
	Log     *zap.Logger
	Bus     *bus.Bus
	Machine *status.Machine
	DB      *store.DB
	Client  *backend.Client
	Account *account.Service
	Screens screen.Deps
}

// Module returns the fx module for one profile, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("mingle",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideClient,
			provideScheduler,
			provideKeeper,
			provideTracker,
			provideAccount,
			provideScreenDeps,
		),
		fx.Invoke(registerLifecycle),
	)
}

// WithZapLogger routes fx's own events to the profile log instead of stderr.
func WithZapLogger() fx.Option {
	return fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	})
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.Profile), p.Profile, p.LogToStderr)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(session.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed() {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("to", result.To))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideClient(p Params, logger *zap.Logger) (*backend.Client, error) {
	c, err := backend.NewClient(p.Config.BaseURL, p.Config.RequestTimeout.Std(), logger.Named("backend"))
	if err != nil {
		return nil, err
	}
	logger.Info("backend configured", zap.String("base_url", c.BaseURL()))
	return c, nil
}

func provideScheduler(p Params, m *status.Machine, b *bus.Bus, logger *zap.Logger) *poll.Scheduler {
	return poll.NewScheduler(p.Config.RequestTimeout.Std(), m, b, logger.Named("poll"))
}

func provideKeeper(db *store.DB, logger *zap.Logger) *session.Keeper {
	return session.NewKeeper(db, logger)
}

func provideTracker(c *backend.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Tracker {
	return outbox.NewTracker(c, db, b, logger.Named("outbox"))
}

func provideAccount(c *backend.Client, k *session.Keeper, m *status.Machine, s *poll.Scheduler, t *outbox.Tracker, b *bus.Bus, logger *zap.Logger) *account.Service {
	return account.NewService(c, k, m, s, t, b, logger)
}

func provideScreenDeps(p Params, c *backend.Client, s *poll.Scheduler, t *outbox.Tracker, k *session.Keeper, logger *zap.Logger) screen.Deps {
	return screen.Deps{
		Scheduler: s,
		Fetcher:   c,
		Actions:   c,
		Tracker:   t,
		Session:   k,
		Intervals: screen.Intervals{
			DirectChat: p.Config.Poll.DirectChat.Std(),
			ChatList:   p.Config.Poll.ChatList.Std(),
			GroupList:  p.Config.Poll.GroupList.Std(),
			GroupChat:  p.Config.Poll.GroupChat.Std(),
		},
		Log: logger.Named("screen"),
	}
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, sched *poll.Scheduler, acct *account.Service, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, _, err := acct.Restore(ctx)
			return err
		},
		OnStop: func(_ context.Context) error {
			sched.StopAll()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

// Populate copies the composed components into dst once the graph is built.
func Populate(dst *Core) fx.Option {
	return fx.Invoke(func(c Core) { *dst = c })
}
