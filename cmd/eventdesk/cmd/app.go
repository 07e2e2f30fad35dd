package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/eventsapi"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/pipeline"
	"github.com/Togather-Foundation/eventdesk/internal/session"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
	"github.com/Togather-Foundation/eventdesk/internal/tokenstore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 5 * time.Second

// cli holds everything one invocation builds in setup and tears down in close.
type cli struct {
	opts   globalOptions
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    config.Config
	logger zerolog.Logger
	store  tokenstore.Store
	svc    *session.Service
	state  *session.State
	events *eventsapi.Client

	span            trace.Span
	shutdownTracing func(context.Context) error
	closers         []func() error
}

// terminalNavigator tells the user to sign in again after the backend ended
// the session.
type terminalNavigator struct {
	out io.Writer
}

func (n terminalNavigator) ToSignIn(ctx context.Context) {
	fmt.Fprintln(n.out, "Your session has ended. Run \"eventdesk login\" to sign in again.")
}

func (c *cli) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}

	cfg, err := config.LoadWithFile(c.opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.opts.apiURL != "" {
		cfg.API.BaseURL = c.opts.apiURL
	}
	if c.opts.logLevel != "" {
		cfg.Logging.Level = c.opts.logLevel
	}
	if c.opts.logFormat != "" {
		cfg.Logging.Format = c.opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := checkOutputFormat(c.opts.output); err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = config.NewLoggerTo(c.errOut, cfg.Logging)

	metrics.Init(Version, GitCommit, BuildDate)

	ctx := cmd.Context()
	shutdown, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.shutdownTracing = shutdown

	store, err := c.openStore()
	if err != nil {
		return err
	}
	c.store = store

	svc, err := session.Initialize(session.Deps{
		BaseURL:   cfg.API.BaseURL,
		Store:     store,
		Navigator: terminalNavigator{out: c.errOut},
		Logger:    c.logger,
		PipelineOptions: []pipeline.Option{
			pipeline.WithTimeout(cfg.API.Timeout),
			pipeline.WithRateLimit(cfg.API.RateLimit),
			pipeline.WithUserAgent("eventdesk/" + Version),
		},
	})
	if err != nil {
		return err
	}
	c.svc = svc
	c.closers = append(c.closers, func() error {
		session.Reset()
		return nil
	})

	state, err := session.NewState(svc)
	if err != nil {
		return err
	}
	c.state = state
	c.events = eventsapi.NewClient(svc.Pipeline())

	ctx, c.span = telemetry.GetTracer("eventdesk/cli").Start(ctx, cmd.CommandPath())
	cmd.SetContext(ctx)

	c.logger.Debug().
		Str("api_url", cfg.API.BaseURL).
		Str("store", cfg.Store.Path).
		Msg("client ready")
	return nil
}

func (c *cli) openStore() (tokenstore.Store, error) {
	if c.cfg.Store.Path == config.StoreMemory {
		return tokenstore.NewMemoryStore(), nil
	}

	if err := os.MkdirAll(c.cfg.Store.Path, 0o700); err != nil {
		return nil, fmt.Errorf("create session store directory: %w", err)
	}

	var key []byte
	if c.cfg.Store.Secret != "" {
		derived, err := auth.DeriveStoreKey([]byte(c.cfg.Store.Secret))
		if err != nil {
			return nil, fmt.Errorf("derive session store key: %w", err)
		}
		key = derived
	}

	store, err := tokenstore.OpenBadger(tokenstore.BadgerOptions{
		Path:          c.cfg.Store.Path,
		EncryptionKey: key,
		Logger:        c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, store.Close)
	return store, nil
}

// close releases whatever setup managed to build, in reverse order.
func (c *cli) close() error {
	var errs []error

	if c.span != nil {
		c.span.End()
	}
	if c.state != nil {
		c.state.Close()
	}
	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := c.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
		cancel()
	}
	if c.svc != nil {
		if err := metrics.WriteTextfile(c.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// requireSession fails early when no one is signed in, without a network call.
func (c *cli) requireSession() error {
	if !c.state.IsAuthenticated() {
		return session.ErrNoSession
	}
	return nil
}
