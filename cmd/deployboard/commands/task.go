package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/app/status"
	"github.com/slok/deployboard/internal/feed"
)

type TaskCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskRef string
	format  string
}

// NewTaskCommand returns the task command.
func NewTaskCommand(rootCmd *RootCommand, app *kingpin.Application) *TaskCommand {
	c := &TaskCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("task", "Show the timeline and progress of a task.")
	c.Cmd.Arg("id", "Task ID or unique ID prefix.").Required().StringVar(&c.taskRef)
	registerFormat(c.Cmd, &c.format)

	return c
}

func (c TaskCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	feedCfg := feed.TaskPreset()
	if l := c.rootCmd.Config.TaskFeedLimit; l > 0 {
		feedCfg.Limit = l
	}

	svc, err := status.NewService(status.ServiceConfig{
		Client:     client,
		FeedConfig: &feedCfg,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	v, err := svc.Run(ctx, status.Request{TaskRef: c.taskRef})
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintTask(*v); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
