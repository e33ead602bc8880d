package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/app/progress"
	"github.com/slok/deployboard/internal/model"
)

type FeedCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskRef string
	limit   int
	levels  []string
	format  string
}

// NewFeedCommand returns the feed command.
func NewFeedCommand(rootCmd *RootCommand, app *kingpin.Application) *FeedCommand {
	c := &FeedCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("feed", "Show the progress messages of a task, or of all the tasks.")
	c.Cmd.Arg("id", "Task ID or unique ID prefix, empty shows all the tasks.").StringVar(&c.taskRef)
	c.Cmd.Flag("limit", "Max number of messages, 0 uses the default.").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("level", "Message levels to show (repeatable).").EnumsVar(&c.levels,
		string(model.LevelInfo), string(model.LevelWarning), string(model.LevelError))
	registerFormat(c.Cmd, &c.format)

	return c
}

func (c FeedCommand) Name() string { return c.Cmd.FullCommand() }

func (c FeedCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.NewClient()
	if err != nil {
		return err
	}

	svc, err := progress.NewService(progress.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	levels := make([]model.Level, 0, len(c.levels))
	for _, l := range c.levels {
		levels = append(levels, model.Level(l))
	}

	limit := c.limit
	if limit == 0 {
		if c.taskRef != "" {
			limit = c.rootCmd.Config.TaskFeedLimit
		} else {
			limit = c.rootCmd.Config.GlobalFeedLimit
		}
	}

	f, err := svc.Run(ctx, progress.Request{
		TaskRef: c.taskRef,
		Limit:   limit,
		Levels:  levels,
	})
	if err != nil {
		return fmt.Errorf("could not get feed: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintFeed(*f); err != nil {
		return fmt.Errorf("could not print feed: %w", err)
	}

	return nil
}
