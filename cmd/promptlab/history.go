package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lamim/promptlab/internal/prompt"
	"github.com/lamim/promptlab/internal/report"
	"github.com/lamim/promptlab/pkg/models"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored experiment runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			runs, err := a.repo.List()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderRunList(runs))
			return nil
		}),
	}

	var debug bool
	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the brief and every variant of a run",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			run, err := findRun(a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderRunHeader(run))
			for _, r := range run.Results {
				fmt.Fprintln(out, report.RenderVariant(r, debug))
			}
			return nil
		}),
	}
	showCmd.Flags().BoolVar(&debug, "debug", false, "Include prompts and raw model responses")

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id := args[0]
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete run %s?", id)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			removed, err := a.repo.Delete(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("run not found: %s", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
			return nil
		}),
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	historyCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return historyCmd
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <run-id>",
		Short: "Rank the variants of a run by average score",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			run, err := findRun(a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderLeaderboard(report.Leaderboard(run.Results)))
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.RenderAverageBars(report.AverageSeries(run.Results)))
			return nil
		}),
	}
}

func newCompareCmd() *cobra.Command {
	var variantA, variantB string
	cmd := &cobra.Command{
		Use:   "compare <run-id>",
		Short: "Compare two variants of a run side by side",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			run, err := findRun(a, args[0])
			if err != nil {
				return err
			}
			c, err := report.Compare(run, models.VariantID(strings.ToUpper(variantA)), models.VariantID(strings.ToUpper(variantB)))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderComparison(c))
			return nil
		}),
	}
	cmd.Flags().StringVar(&variantA, "a", string(report.DefaultCompareA), "Baseline variant")
	cmd.Flags().StringVar(&variantB, "b", string(report.DefaultCompareB), "Variant compared against the baseline")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a run as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			run, err := findRun(a, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return report.Export(cmd.OutOrStdout(), run, format)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := report.Export(f, run, format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported run %s to %s\n", run.ID, output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the prompt variants",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderVariants(prompt.Catalog()))
		},
	}
}

// withApp bootstraps the app around a command body
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

func findRun(a *app, id string) (models.ExperimentRun, error) {
	run, ok, err := a.repo.Get(id)
	if err != nil {
		return run, err
	}
	if !ok {
		return run, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

// confirm asks a yes/no question and defaults to no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
