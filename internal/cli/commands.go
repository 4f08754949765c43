package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/fragmentgo/internal/app"
	"github.com/specialistvlad/fragmentgo/internal/report"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// addRequestFlags binds the scenario and observed flags of a request.
func addRequestFlags(cmd *cobra.Command, req *app.Request) {
	cmd.Flags().StringSliceVarP(&req.Scenario, "scenario", "s", nil, "Scenario in effect. Several names form a tuple.")
	cmd.Flags().BoolVar(&req.Observed, "observed", false, "Use observed exchange values where no scenario value applies.")
}

func newTraverseCmd(opts *options, outW, errW io.Writer) *cobra.Command {
	var req app.Request
	cmd := &cobra.Command{
		Use:   "traverse FRAGMENT",
		Short: "List the fragment-flow records of a traversal",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Fragment = args[0]
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				_, err := a.Traverse(ctx, req)
				return err
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func newLCIACmd(opts *options, outW, errW io.Writer) *cobra.Command {
	var req app.Request
	var quantities, compare []string
	var stages bool

	cmd := &cobra.Command{
		Use:   "lcia FRAGMENT",
		Short: "Score a fragment against impact categories",
		Long: `Score a fragment against impact categories. By default every quantity
marked as a method is used. With --compare, the fragment is scored under each
listed scenario concurrently and the totals are printed side by side.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Fragment = args[0]
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				if len(compare) == 0 {
					_, err := a.LCIA(ctx, req, quantities, stages)
					return err
				}
				specs := []scenario.Spec{req.Spec()}
				for _, name := range compare {
					specs = append(specs, scenario.Named(name))
				}
				all, err := a.LCIAScenarios(ctx, req.Fragment, specs, req.Observed, quantities)
				if err != nil {
					return err
				}
				for i, rs := range all {
					if _, err := fmt.Fprintf(outW, "Scenario: %s\n", specs[i]); err != nil {
						return err
					}
					if err := report.LCIA(outW, rs.List()); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	addRequestFlags(cmd, &req)
	cmd.Flags().StringSliceVarP(&quantities, "quantity", "q", nil, "Impact categories to score. Defaults to all methods.")
	cmd.Flags().StringSliceVar(&compare, "compare", nil, "Also score under each of these scenarios.")
	cmd.Flags().BoolVar(&stages, "stages", false, "Group results by stage.")
	return cmd
}

func newTreeCmd(opts *options, outW, errW io.Writer) *cobra.Command {
	var req app.Request
	cmd := &cobra.Command{
		Use:   "tree FRAGMENT",
		Short: "Print a fragment tree",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Fragment = args[0]
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.Tree(ctx, req)
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func newInventoryCmd(opts *options, outW, errW io.Writer) *cobra.Command {
	var req app.Request
	cmd := &cobra.Command{
		Use:   "inventory FRAGMENT",
		Short: "Print the net boundary flows of a fragment",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Fragment = args[0]
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.Inventory(ctx, req)
			})
		},
	}
	addRequestFlags(cmd, &req)
	return cmd
}

func newExportCmd(opts *options, outW, errW io.Writer) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [FRAGMENT]",
		Short: "Write fragment records, of one tree or of all of them",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError("%s: %s", cmd.Name(), err.Error())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				if output == "" {
					return a.Export(ctx, ref, format, outW)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := a.Export(ctx, ref, format, f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Record format. Options: 'json', 'yaml', 'msgpack'.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of standard output.")
	return cmd
}

func newScenariosCmd(opts *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios FRAGMENT",
		Short: "List the scenario names used in a fragment tree",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				_, err := a.Scenarios(ctx, args[0])
				return err
			})
		},
	}
}
