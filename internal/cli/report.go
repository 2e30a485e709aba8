package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type reportFlags struct {
	period  string
	start   string
	end     string
	section string
	output  string
}

func newReportCmd(g *globalFlags) *cobra.Command {
	f := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the dashboard report and print it as JSON",
		Long: `Build the dashboard report for a time range and print it as JSON.

The range is either a preset (--range 24h|7d|30d|90d|1y) or an explicit
--start/--end pair of YYYY-MM-DD dates. --section limits the output to
users, resumes, admins, activity or system.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.period, "range", "", "Preset range (default 30d)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "End date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.section, "section", "", "Print a single section")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func runReport(cmd *cobra.Command, g *globalFlags, f *reportFlags) error {
	ctx := cmd.Context()

	e, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	tr, err := e.reports.ResolveRange(f.period, f.start, f.end)
	if err != nil {
		return err
	}

	var payload interface{}
	if f.section != "" {
		sec, ok := e.reports.Section(f.section)
		if !ok {
			return fmt.Errorf("unknown section: %s", f.section)
		}
		payload = sec.Compute(ctx, e.reports.Repository(), tr)
	} else {
		payload = e.reports.Build(ctx, tr)
	}

	out := cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.output, err)
		}
		defer file.Close()
		out = file
	}

	return writeJSON(out, payload)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
