package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/mineralog/internal/config"
	"github.com/dmitrijs2005/mineralog/internal/logging"
)

// App holds state shared by every command of one invocation.
type App struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg *config.Config
	log logging.Logger

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	stdin  io.Reader
}

// NewApp returns an App reading prompts from in and writing to out and errOut.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{
		in:     bufio.NewReader(in),
		stdin:  in,
		out:    out,
		errOut: errOut,
		log:    logging.Discard(),
	}
}

// setup loads the configuration, applies the global flags and builds the
// logger. It runs before every subcommand.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(a.errOut, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	initColor(a.noColor, a.out)
	return nil
}

// NewRootCommand builds the command tree bound to a.
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mineralog",
		Short:         "MineraLog catalog export and reference database tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "JSON configuration file")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(a.newExportCommand())
	root.AddCommand(a.newVerifyCommand())
	root.AddCommand(a.newDedupeCommand())
	root.AddCommand(a.newEnrichCommand())
	return root
}

// Execute runs the command tree with args and reports a failure on errOut.
// It returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.NewRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		a.printError(err)
		return 1
	}
	return 0
}
