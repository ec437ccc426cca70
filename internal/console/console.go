package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"BizDesk/internal/config"
	"BizDesk/internal/format"
	"BizDesk/internal/gateway"
	"BizDesk/internal/guard"
	"BizDesk/internal/notify"
	"BizDesk/internal/route"
	"BizDesk/internal/session"
	"BizDesk/internal/telemetry"
)

// Console is the terminal front end: each command plays the part of a page
// controller on top of the gateway, the notification surface and the guards.
type Console struct {
	config   *config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	store    *session.Store
	gateway  *gateway.Client
	notify   *notify.Surface
	guard    *guard.Guard
	location *route.Location
	format   *format.Formatter

	in      io.Reader
	out     io.Writer
	closers []func()
}

// New creates a console backed by the SQLite session store, rotated logs
// and OpenTelemetry exporters configured by cfg.
func New(cfg *config.Config) (*Console, error) {
	logger, logFile, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// fail records a startup error in the log before the log file is closed
	fail := func(err error) (*Console, error) {
		logger.Error("startup failed", "error", err)
		logFile.Close()
		return nil, err
	}

	_, _, shutdown, err := telemetry.InitTelemetry(context.Background(), cfg.LogDir)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize telemetry: %w", err))
	}

	db, err := telemetry.InitDB(cfg.DBPath)
	if err != nil {
		shutdown()
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	store := session.NewStore(session.NewSQLiteBackend(db))
	c, err := build(cfg, store, logger, os.Stdin, os.Stdout)
	if err != nil {
		db.Close()
		shutdown()
		return fail(err)
	}

	c.closers = append(c.closers,
		func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		},
		shutdown,
		func() { logFile.Close() },
	)
	return c, nil
}

func build(cfg *config.Config, store *session.Store, logger *slog.Logger, in io.Reader, out io.Writer) (*Console, error) {
	c := &Console{
		config: cfg,
		logger: logger,
		tracer: otel.Tracer("BizDesk/internal/console"),
		store:  store,
		format: format.New(cfg.Location()),
		in:     in,
		out:    out,
	}

	c.location = route.NewLocation(route.Dashboard, c.onNavigate)
	c.notify = notify.NewSurface(notify.NewTerminalRenderer(out), cfg.ToastTTL, logger)
	c.guard = guard.New(store, c.location, cfg.LoginPath, cfg.UnauthorizedPath, logger)

	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.BaseURL,
		APIPrefix: cfg.APIPrefix,
		LoginPath: cfg.LoginPath,
		Store:     store,
		Navigator: c.location,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	c.gateway = gw

	return c, nil
}

// onNavigate tells the user where a redirect sent them
func (c *Console) onNavigate(target string) {
	c.logger.Info("navigated", "target", target)
	switch target {
	case c.config.LoginPath:
		fmt.Fprintln(c.out, "Please sign in: /login <username> <password>")
	case c.config.UnauthorizedPath:
		fmt.Fprintln(c.out, "You are not authorized to view this page.")
	}
}

// open moves to page and runs the auth and optional role guards
func (c *Console) open(page string, roles ...string) bool {
	c.location.Navigate(page)
	if !c.guard.CheckAuth(c.location.Current()) {
		return false
	}
	if len(roles) > 0 && !c.guard.CheckRole(roles...) {
		return false
	}
	return true
}

// call runs one backend request under the busy indicator and reports
// failures as error toasts. It returns false unless the call succeeded.
func (c *Console) call(ctx context.Context, endpoint string, opts gateway.Options) (gateway.Result, bool) {
	var res gateway.Result
	c.notify.WithBusyIndicator(func() error {
		res = c.gateway.Send(ctx, endpoint, opts)
		return res.Err
	})

	switch res.Outcome {
	case gateway.OutcomeOK:
		return res, true
	case gateway.OutcomeAuthExpired:
		// session already cleared and login navigation done
		return res, false
	case gateway.OutcomeFailed:
		c.notify.ShowToast(res.Message, notify.SeverityError)
		return res, false
	case gateway.OutcomeTransport:
		if res.Status != 0 {
			c.notify.ShowToast("Unexpected response from the server", notify.SeverityError)
		} else {
			c.notify.ShowToast("Unable to reach the server", notify.SeverityError)
		}
		return res, false
	default:
		c.logger.Error("unexpected gateway outcome", "outcome", res.Outcome.String())
		return res, false
	}
}

// Run starts the console loop
func (c *Console) Run() error {
	defer c.Close()

	fmt.Fprintln(c.out, "=== BizDesk ===")
	fmt.Fprintf(c.out, "Backend: %s%s\n", c.config.BaseURL, c.config.APIPrefix)
	fmt.Fprintln(c.out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(c.out)

	ctx := context.Background()
	if c.guard.CheckAuth(c.location.Current()) {
		if user, err := c.store.GetUser(); err == nil && user != nil {
			fmt.Fprintf(c.out, "Signed in as %s (%s)\n", user.Name, user.Role)
		}
	}

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(c.out, "Commands start with /. Type /help for a list.")
			continue
		}

		shouldQuit, err := c.execute(ctx, input)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			c.logger.Error("command error", "command", input, "error", err)
		}
		if shouldQuit {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(c.out, "Goodbye!")
	return nil
}

func (c *Console) execute(ctx context.Context, input string) (bool, error) {
	name := strings.Fields(input)[0]
	ctx, span := c.tracer.Start(ctx, "console.command",
		trace.WithAttributes(attribute.String("command", name)))
	defer span.End()

	return c.handleCommand(ctx, input)
}

// Close stops pending toasts and releases storage and telemetry
func (c *Console) Close() {
	c.notify.Close()
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}
