package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/courier/internal/apierr"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/netmon"
	"github.com/five82/courier/internal/orders"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/proof"
	"github.com/five82/courier/internal/rider"
	"github.com/five82/courier/internal/session"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/ui"
)

// Options configure the courier application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/courier/prefs.toml
	PollEvery  time.Duration // zero uses the config value
}

// Components is the wired object graph shared by the TUI and the CLI
// commands.
type Components struct {
	Config   config.Config
	Log      *logrus.Logger
	Prefs    *prefs.File
	Store    *state.Store
	Handlers *apierr.Handlers
	Client   *rider.Client
	Monitor  *netmon.Monitor
	Session  *session.Manager
	Orders   *orders.Service
	Proof    *proof.Coordinator
	Picker   *proof.FilePicker

	introCompleted bool
}

// Build wires every component. Nothing is started.
func Build(cfg config.Config, prefsPath string, logger *logrus.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.Discard().Logger
	}
	log := logrus.NewEntry(logger)

	prefFile := prefs.Open(prefsPath)
	userPrefs, err := prefFile.Load()
	if err != nil {
		log.WithError(err).Warn("load prefs failed; using defaults")
	}

	initial := state.Initial()
	if userPrefs.ThemeMode == string(state.ThemeDark) {
		initial.ThemeMode = state.ThemeDark
	}
	store := state.NewStore(initial)

	handlers := &apierr.Handlers{}
	client, err := rider.NewClient(cfg.APIURL,
		rider.WithTimeout(cfg.RequestTimeout),
		rider.WithHandlers(handlers),
		rider.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init rider client: %w", err)
	}

	monitorOpts := netmon.Options{
		Prober:   netmon.ProberFunc(client.Ping),
		Interval: cfg.ProbeInterval,
		Timeout:  cfg.ProbeTimeout,
		Logger:   log,
	}
	if cfg.EventsURL != "" {
		monitorOpts.Source = &netmon.WebsocketSource{
			URL:    cfg.EventsURL,
			Header: func() http.Header { return bearerHeader(client.Token()) },
			Logger: log,
		}
	}
	monitor := netmon.New(store, monitorOpts)

	picker := &proof.FilePicker{}
	coordinator := proof.NewCoordinator(store, picker, client, proof.WithLogger(log))

	serviceOpts := []orders.Option{
		orders.WithLogger(log),
		orders.WithProofGate(coordinator.Uploaded),
	}
	if cfg.DevOTPBypass != "" {
		log.Warn("development OTP bypass enabled")
		serviceOpts = append(serviceOpts, orders.WithDevOTP(cfg.DevOTPBypass))
	}
	service := orders.NewService(client, store, serviceOpts...)

	sess := session.New(client, prefFile, store,
		session.WithLogger(log),
		session.WithResetHook(service.Invalidate),
	)

	handlers.SetUnauthorized(sess.Clear)
	handlers.SetNetworkStatus(monitor.Observe)
	handlers.SetGeneric(func(e *apierr.Error) {
		store.Dispatch(state.ShowToast(e.Message))
	})

	return &Components{
		Config:         cfg,
		Log:            logger,
		Prefs:          prefFile,
		Store:          store,
		Handlers:       handlers,
		Client:         client,
		Monitor:        monitor,
		Session:        sess,
		Orders:         service,
		Proof:          coordinator,
		Picker:         picker,
		introCompleted: userPrefs.IntroCompleted,
	}, nil
}

// Close stops background work owned by the components.
func (c *Components) Close() {
	c.Proof.Close()
	c.Monitor.Stop()
}

func bearerHeader(token string) http.Header {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

// Run boots the courier TUI until the context is cancelled or the rider quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	c, err := Build(cfg, opts.PrefsPath, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	log := logger.WithField("component", "app")
	log.WithField("api_url", cfg.APIURL).Info("courier starting")

	if restored, err := c.Session.Restore(ctx); err != nil {
		log.WithError(err).Warn("restore session failed")
	} else if restored {
		log.Info("session restored")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.Monitor.Start(runCtx); err != nil {
		return fmt.Errorf("start network monitor: %w", err)
	}
	log.WithField("strategy", c.Monitor.Strategy()).Info("network monitor started")

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return NewPoller(c.Orders, c.Store, cfg.PollInterval, log).Run(gctx)
	})
	g.Go(func() error {
		// Quitting the UI ends the poller too.
		defer cancel()
		return ui.Run(gctx, ui.Options{
			Store:     c.Store,
			Orders:    c.Orders,
			Proof:     c.Proof,
			Picker:    c.Picker,
			Session:   c.Session,
			Prefs:     c.Prefs,
			LogPath:   cfg.LogFile,
			ShowIntro: !c.introCompleted,
		})
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("courier stopped")
	return err
}
