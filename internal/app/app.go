package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/livelog/internal/config"
	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/logging"
	"github.com/five82/livelog/internal/prefs"
	"github.com/five82/livelog/internal/session"
	"github.com/five82/livelog/internal/state"
	"github.com/five82/livelog/internal/ui"
)

const loginTimeout = 3 * time.Second

// Options configure the livelog application. Non-zero fields override the
// config file.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/livelog/prefs.toml
	ServerURL    string
	Token        string
	PollInterval time.Duration
	LogLevel     string
	File         string // file to open on start
}

// Environment is everything a command needs to talk to one server.
type Environment struct {
	Config  config.Config
	Prefs   prefs.Prefs
	Client  *livelog.Client
	Session *session.Session

	logCloser io.Closer
}

// Close releases the log file.
func (e *Environment) Close() error {
	if e == nil || e.logCloser == nil {
		return nil
	}
	return e.logCloser.Close()
}

// Setup loads configuration, starts logging, and logs in when the server
// requires it. The caller must Close the environment.
func Setup(ctx context.Context, opts Options) (*Environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load livelog config: %w", err)
	}
	applyOverrides(&cfg, opts)

	closer, err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: "console",
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	env := &Environment{
		Config:    cfg,
		Prefs:     prefs.Load(opts.PrefsPath),
		logCloser: closer,
	}

	client, err := livelog.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("init livelog client: %w", err)
	}
	env.Client = client

	log := logging.Component("app")
	log.Info().Str("server", client.BaseURL()).Msg("starting")

	if err := ensureLoggedIn(ctx, client, cfg.Token); err != nil {
		log.Error().Str("error", logging.Redact(err.Error())).Msg("login failed")
		_ = env.Close()
		return nil, err
	}

	env.Session = session.New(client, session.Options{
		PollInterval: cfg.PollInterval,
		BufferLimit:  cfg.BufferLimit,
		Health:       &state.Store{},
	})
	return env, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.Token != "" {
		cfg.Token = opts.Token
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
}

// ensureLoggedIn doubles as the availability check: the login probe is the
// first request made to the server.
func ensureLoggedIn(ctx context.Context, client *livelog.Client, token string) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	enabled, err := client.LoginEnabled(ctx)
	if err != nil {
		return fmt.Errorf("livelog server unavailable at %s: %s", client.BaseURL(), logging.Redact(err.Error()))
	}
	if !enabled {
		return nil
	}
	if token == "" {
		return errors.New("server requires a login token: set token in the config file or pass --token")
	}
	if err := client.Login(ctx, token); err != nil {
		var statusErr *livelog.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("login rejected: %w", err)
		}
		return fmt.Errorf("login: %s", logging.Redact(err.Error()))
	}
	return nil
}

// Run boots the livelog TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	initial := opts.File
	if initial == "" {
		initial = env.Prefs.LastFile
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return env.Session.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return ui.Run(gctx, ui.Options{
			Engine:      env.Session,
			Prefs:       env.Prefs,
			PrefsPath:   opts.PrefsPath,
			InitialFile: initial,
			ServerURL:   env.Client.BaseURL(),
		})
	})
	return g.Wait()
}
