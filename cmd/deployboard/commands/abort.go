package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/app/stop"
)

type AbortCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskRef string
	reason  string
}

// NewAbortCommand returns the abort command.
func NewAbortCommand(rootCmd *RootCommand, app *kingpin.Application) *AbortCommand {
	c := &AbortCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("abort", "Abort a pending or running task.")
	c.Cmd.Arg("id", "Task ID or unique ID prefix.").Required().StringVar(&c.taskRef)
	c.Cmd.Flag("reason", "Abort reason, the config file one is used when missing.").StringVar(&c.reason)

	return c
}

func (c AbortCommand) Name() string { return c.Cmd.FullCommand() }

func (c AbortCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := stop.NewService(stop.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	reason := c.reason
	if reason == "" {
		reason = c.rootCmd.Config.AbortReason
	}

	task, err := svc.Run(ctx, stop.Request{TaskRef: c.taskRef, Reason: reason})
	if err != nil {
		return fmt.Errorf("could not abort task: %w", err)
	}

	return newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(fmt.Sprintf("Abort requested for task: %s", task.ID))
}
