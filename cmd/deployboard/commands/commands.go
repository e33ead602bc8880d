package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/deployboard/internal/backend/rest"
	"github.com/slok/deployboard/internal/config"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/printer"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	ConfigPath string
	BackendURL string
	Timeout    time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
	Config config.Config
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("config", fmt.Sprintf("Path to the YAML config file (default: %s).", config.DefaultPath())).StringVar(&c.ConfigPath)
	app.Flag("backend-url", "Deployment backend address, overrides the config file.").StringVar(&c.BackendURL)
	app.Flag("timeout", "Backend request timeout, overrides the config file.").DurationVar(&c.Timeout)

	return c
}

// LoadConfig loads the config file. A missing file is only an error when the
// path was set explicitly.
func (c *RootCommand) LoadConfig(ctx context.Context) error {
	path := c.ConfigPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	repo := config.NewYAMLRepository(os.DirFS(filepath.Dir(path)))
	cfg, err := repo.GetConfig(ctx, filepath.Base(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not load config %s: %w", path, err)
	}

	c.Config = cfg
	return nil
}

// NewClient returns the backend client, flags win over the config file.
func (c *RootCommand) NewClient() (*rest.Client, error) {
	url := c.BackendURL
	if url == "" {
		url = c.Config.BackendURL
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = c.Config.Timeout
	}

	client, err := rest.NewClient(rest.ClientConfig{
		BaseURL: url,
		Timeout: timeout,
		Logger:  c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create backend client: %w", err)
	}

	return client, nil
}

func registerFormat(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(w)
	default:
		return printer.NewTablePrinter(w)
	}
}
