package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/deixis/noderun/internal/report"
)

func newShowCmd(opts *options) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <run-id> [pattern]",
		Short: "Print a stored run, optionally keeping only lines matching pattern",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := opts.provider()
			if err != nil {
				return err
			}
			store := report.NewDiskStore(fp.Config().HistoryPath())
			rec, err := store.Load(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), rec)
			}

			var pattern string
			if len(args) == 2 {
				pattern = args[1]
			}
			matches, err := report.Grep(rec, pattern)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, rec.Summary())
			fmt.Fprintln(out)
			for _, m := range matches {
				if pattern != "" {
					fmt.Fprintf(out, "%s %s\n", subtitleStyle.Render(fmt.Sprintf("%4d:", m.Line)), m.Text)
				} else {
					fmt.Fprintln(out, m.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the stored record as JSON")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
