package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type DefaultsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDefaultsCommand returns the defaults command.
func NewDefaultsCommand(rootCmd *RootCommand, app *kingpin.Application) *DefaultsCommand {
	c := &DefaultsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("defaults", "Show the default stage selection and run options.")
	registerFormat(c.Cmd, &c.format)

	return c
}

func (c DefaultsCommand) Name() string { return c.Cmd.FullCommand() }

func (c DefaultsCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	defaults, err := client.GetDefaults(ctx)
	if err != nil {
		return fmt.Errorf("could not get defaults: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintDefaults(*defaults); err != nil {
		return fmt.Errorf("could not print defaults: %w", err)
	}

	return nil
}
