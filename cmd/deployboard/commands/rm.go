package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/app/remove"
	"github.com/slok/deployboard/internal/model"
)

type RemoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskRef string
	force   bool
}

// NewRemoveCommand returns the remove command.
func NewRemoveCommand(rootCmd *RootCommand, app *kingpin.Application) *RemoveCommand {
	c := &RemoveCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("rm", "Remove a task record.")
	c.Cmd.Arg("id", "Task ID or unique ID prefix.").Required().StringVar(&c.taskRef)
	c.Cmd.Flag("force", "Abort a running task before removing it.").BoolVar(&c.force)

	return c
}

func (c RemoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c RemoveCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := remove.NewService(remove.ServiceConfig{
		Client:      client,
		AbortReason: c.rootCmd.Config.AbortReason,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Run(ctx, remove.Request{
		TaskRef: c.taskRef,
		Force:   c.force,
	})
	if err != nil {
		return fmt.Errorf("could not remove task: %w", err)
	}

	msg := fmt.Sprintf("Removed task: %s", task.ID)
	if c.force && task.Status == model.TaskStatusRunning {
		msg = fmt.Sprintf("Aborted and removed task: %s", task.ID)
	}

	return newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg)
}
