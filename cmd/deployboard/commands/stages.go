package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type StagesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStagesCommand returns the stages command.
func NewStagesCommand(rootCmd *RootCommand, app *kingpin.Application) *StagesCommand {
	c := &StagesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("stages", "List the stage catalog.")
	registerFormat(c.Cmd, &c.format)

	return c
}

func (c StagesCommand) Name() string { return c.Cmd.FullCommand() }

func (c StagesCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	stages, err := client.ListStages(ctx)
	if err != nil {
		return fmt.Errorf("could not list stages: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintStages(stages); err != nil {
		return fmt.Errorf("could not print stages: %w", err)
	}

	return nil
}
