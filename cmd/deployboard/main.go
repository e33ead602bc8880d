package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/deployboard/cmd/deployboard/commands"
	"github.com/slok/deployboard/internal/log"
	loglogrus "github.com/slok/deployboard/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("deployboard", "Deployment pipeline dashboard.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	watchCmd := commands.NewWatchCommand(rootCmd, app)
	stagesCmd := commands.NewStagesCommand(rootCmd, app)
	defaultsCmd := commands.NewDefaultsCommand(rootCmd, app)
	tasksCmd := commands.NewTasksCommand(rootCmd, app)
	taskCmd := commands.NewTaskCommand(rootCmd, app)
	feedCmd := commands.NewFeedCommand(rootCmd, app)
	submitCmd := commands.NewSubmitCommand(rootCmd, app)
	abortCmd := commands.NewAbortCommand(rootCmd, app)
	removeCmd := commands.NewRemoveCommand(rootCmd, app)
	fakeServerCmd := commands.NewFakeServerCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		watchCmd.Name():      watchCmd,
		stagesCmd.Name():     stagesCmd,
		defaultsCmd.Name():   defaultsCmd,
		tasksCmd.Name():      tasksCmd,
		taskCmd.Name():       taskCmd,
		feedCmd.Name():       feedCmd,
		submitCmd.Name():     submitCmd,
		abortCmd.Name():      abortCmd,
		removeCmd.Name():     removeCmd,
		fakeServerCmd.Name(): fakeServerCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Printer commands and the terminal UI own the terminal, logs would mix
	// with their output. Users can still enable logging with --debug.
	quietCommands := map[string]bool{
		"watch":    true,
		"stages":   true,
		"defaults": true,
		"tasks":    true,
		"task":     true,
		"feed":     true,
	}
	if quietCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	if err := rootCmd.LoadConfig(ctx); err != nil {
		return err
	}

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // Stderr keeps stdout for the printers.
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
