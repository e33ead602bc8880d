package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/run"

	"github.com/slok/deployboard/internal/dashboard"
	"github.com/slok/deployboard/internal/feed"
	"github.com/slok/deployboard/internal/tui"
)

// WatchCommand runs the interactive dashboard.
type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stages []string
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Open the interactive deployment dashboard.").Default()
	c.Cmd.Flag("stage", "Preselected stage (repeatable), the backend defaults are used when missing.").Short('s').StringsVar(&c.stages)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	cfg := c.rootCmd.Config
	taskFeed := feed.TaskPreset()
	if cfg.TaskFeedLimit > 0 {
		taskFeed.Limit = cfg.TaskFeedLimit
	}
	globalFeed := feed.GlobalPreset()
	if cfg.GlobalFeedLimit > 0 {
		globalFeed.Limit = cfg.GlobalFeedLimit
	}

	sink := tui.NewSink()
	dash, err := dashboard.New(dashboard.Config{
		Client:        client,
		Sink:          sink,
		Logger:        c.rootCmd.Logger,
		StoreCapacity: cfg.StoreCapacity,
		PollInterval:  cfg.PollInterval,
		AbortReason:   cfg.AbortReason,
		TaskFeed:      &taskFeed,
		GlobalFeed:    &globalFeed,
	})
	if err != nil {
		return fmt.Errorf("could not create dashboard: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.New(dash, cfg.AbortReason),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	sink.Attach(program)

	var g run.Group

	// Terminal UI, quitting it stops everything.
	g.Add(
		func() error {
			_, err := program.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("dashboard UI failed: %w", err)
			}
			return nil
		},
		func(_ error) {
			cancel()
		},
	)

	// Backend reconciliation. Without catalog the UI stays open showing the
	// failure until the user quits.
	g.Add(
		func() error {
			if err := dash.Bootstrap(ctx); err != nil {
				c.rootCmd.Logger.Errorf("Could not load dashboard: %s", err)
				<-ctx.Done()
				return nil
			}
			if len(c.stages) > 0 {
				dash.SelectStages(c.stages)
			}

			dash.StartPolling(ctx)
			<-ctx.Done()
			dash.StopPolling()
			return nil
		},
		func(_ error) {
			cancel()
		},
	)

	return g.Run()
}
