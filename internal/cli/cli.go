package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/fragmentgo/internal/app"
	"github.com/specialistvlad/fragmentgo/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// options are the persistent flags shared by every command.
type options struct {
	modelPaths      []string
	recordPaths     []string
	logFormat       string
	logLevel        string
	metricsTextfile string
	workers         int
}

// Execute runs the command line. Reports go to outW, logs and usage to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCmd(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd(outW, errW io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fragmentgo",
		Short: "fragmentgo - traverse and assess life cycle fragment models.",
		Long: `fragmentgo loads fragment models written in HCL, walks them under a
scenario and reports flows, inventories and impact scores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%s", err.Error())
	})

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&opts.modelPaths, "model", "m", nil, "Model file or directory of .hcl files. Repeatable.")
	flags.StringArrayVar(&opts.recordPaths, "records", nil, "Exported records to apply after loading. Repeatable.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit.")
	flags.IntVar(&opts.workers, "workers", 4, "Concurrent traversals when comparing scenarios.")

	root.AddCommand(
		newTraverseCmd(opts, outW, errW),
		newLCIACmd(opts, outW, errW),
		newTreeCmd(opts, outW, errW),
		newInventoryCmd(opts, outW, errW),
		newExportCmd(opts, outW, errW),
		newScenariosCmd(opts, outW, errW),
	)
	return root
}

// newApp validates the persistent flags and builds the application.
func (o *options) newApp(ctx context.Context, outW, errW io.Writer) (*app.App, error) {
	if len(o.modelPaths) == 0 {
		return nil, usageError("no model given: use --model PATH")
	}
	cfg, err := app.NewConfig(app.Config{
		ModelPaths:      o.modelPaths,
		RecordPaths:     o.recordPaths,
		LogFormat:       strings.ToLower(o.logFormat),
		LogLevel:        strings.ToLower(o.logLevel),
		MetricsTextfile: o.metricsTextfile,
		Workers:         o.workers,
	})
	if err != nil {
		return nil, usageError("%s", err.Error())
	}
	return app.NewApp(ctx, outW, errW, cfg, hcl.NewLoader())
}

// withApp builds the app, runs fn and writes the metrics, even when fn
// fails.
func (o *options) withApp(cmd *cobra.Command, outW, errW io.Writer, fn func(context.Context, *app.App) error) error {
	ctx := cmd.Context()
	a, err := o.newApp(ctx, outW, errW)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	return errors.Join(runErr, a.Close())
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError("%s: %s", cmd.Name(), err.Error())
		}
		return nil
	}
}
