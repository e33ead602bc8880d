package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/deployboard/internal/backend/fake"
	"github.com/slok/deployboard/internal/poller"
)

// FakeServerCommand runs an in-memory deployment backend for local development.
type FakeServerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listen       string
	stepInterval time.Duration
	failStage    string
}

// NewFakeServerCommand returns the fake server command.
func NewFakeServerCommand(rootCmd *RootCommand, app *kingpin.Application) *FakeServerCommand {
	c := &FakeServerCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("fake-server", "Run an in-memory deployment backend for local development.").Hidden()
	c.Cmd.Flag("listen", "Address to listen on.").Default("127.0.0.1:8080").StringVar(&c.listen)
	c.Cmd.Flag("step-interval", "Interval between stage events of running tasks.").Default("1s").DurationVar(&c.stepInterval)
	c.Cmd.Flag("fail-stage", "Stage that makes tasks fail when reached.").StringVar(&c.failStage)

	return c
}

func (c FakeServerCommand) Name() string { return c.Cmd.FullCommand() }

func (c FakeServerCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	srv, err := fake.NewServer(fake.ServerConfig{
		FailStage: c.failStage,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create fake backend: %w", err)
	}

	stepper, err := poller.New(poller.Config{
		Interval: c.stepInterval,
		Tick: func(_ context.Context) error {
			srv.Step()
			return nil
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create stepper: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.listen,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	// HTTP API.
	g.Add(
		func() error {
			logger.Infof("Fake backend listening on %s", c.listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		},
		func(_ error) {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	)

	// Task progress.
	g.Add(
		func() error {
			return stepper.Run(ctx)
		},
		func(_ error) {
			cancel()
		},
	)

	return g.Run()
}
