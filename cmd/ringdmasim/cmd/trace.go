package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/ringdma/datarecording"
	"github.com/sarchlab/ringdma/tracing"
	"github.com/spf13/cobra"
)

var traceKind string

var traceCmd = &cobra.Command{
	Use:   "trace <trace-file>",
	Short: "Summarize the task latencies recorded by run --trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		return summarizeTrace(
			cmd.Context(), args[0], traceKind, cmd.OutOrStdout())
	},
}

func init() {
	traceCmd.Flags().StringVar(&traceKind, "kind", "",
		"only summarize tasks of this kind, e.g. req_out")

	rootCmd.AddCommand(traceCmd)
}

// traceFile accepts the trace name with or without the .sqlite3 extension.
func traceFile(name string) (string, error) {
	if !strings.HasSuffix(name, ".sqlite3") {
		name += ".sqlite3"
	}

	if _, err := os.Stat(name); err != nil {
		return "", fmt.Errorf("opening trace: %w", err)
	}

	return name, nil
}

func summarizeTrace(
	ctx context.Context,
	name, kind string,
	out io.Writer,
) error {
	file, err := traceFile(name)
	if err != nil {
		return err
	}

	reader := datarecording.NewReader(file)
	defer reader.Close()

	stats, err := tracing.ReadTaskStats(ctx, reader, kind)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "kind\tlocation\tcount\tavg (ns)\tmax (ns)")

	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.1f\n",
			s.Kind, s.Location, s.Count, s.Average()*1e9, s.Max*1e9)
	}

	return w.Flush()
}
