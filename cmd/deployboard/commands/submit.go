package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/app/create"
	"github.com/slok/deployboard/internal/model"
)

type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stages []string

	dryRun, dryRunSet     bool
	strict, strictSet     bool
	debugRun, debugRunSet bool
	format                string
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Submit a new deployment task.")
	c.Cmd.Flag("stage", "Stage to run (repeatable), the backend defaults are used when missing.").Short('s').StringsVar(&c.stages)
	c.Cmd.Flag("dry-run", "Run without applying changes.").IsSetByUser(&c.dryRunSet).BoolVar(&c.dryRun)
	c.Cmd.Flag("strict-validation", "Fail on validation warnings.").IsSetByUser(&c.strictSet).BoolVar(&c.strict)
	c.Cmd.Flag("debug-run", "Run the task with debug logging.").IsSetByUser(&c.debugRunSet).BoolVar(&c.debugRun)
	registerFormat(c.Cmd, &c.format)

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := create.NewService(create.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	var opts model.RunOptions
	if c.dryRunSet {
		opts.DryRun = &c.dryRun
	}
	if c.strictSet {
		opts.StrictValidation = &c.strict
	}
	if c.debugRunSet {
		opts.Debug = &c.debugRun
	}

	task, err := svc.Run(ctx, create.Request{
		Stages:  c.stages,
		Options: opts,
	})
	if err != nil {
		return fmt.Errorf("could not submit task: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if c.format == formatJSON {
		return p.PrintTasks([]model.Task{*task})
	}

	return p.PrintMessage(fmt.Sprintf("Submitted task: %s", task.ID))
}
