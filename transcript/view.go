package transcript

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteTable prints metas as an aligned table.
func WriteTable(w io.Writer, metas []Meta) error {
	if len(metas) == 0 {
		_, err := fmt.Fprintln(w, "No transcripts found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tEXIT\tSTARTED\tDURATION")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.Kind, m.Status, m.ExitCode,
			m.StartedAt.Format(time.DateTime),
			m.Duration.Round(time.Second))
	}
	return tw.Flush()
}

// WriteDetail prints one transcript with its prompt and output.
func WriteDetail(w io.Writer, t *Transcript) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", t.Kind)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Exit:\t%d\n", t.ExitCode)
	fmt.Fprintf(tw, "Dir:\t%s\n", t.Dir)
	fmt.Fprintf(tw, "Started:\t%s\n", t.StartedAt.Format(time.DateTime))
	fmt.Fprintf(tw, "Duration:\t%s\n", t.Duration().Round(time.Second))
	if t.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", t.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPrompt:\n%s\n\nOutput:\n%s\n", t.Prompt, t.Output)
	return err
}
