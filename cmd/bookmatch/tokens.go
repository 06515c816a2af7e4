package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
)

func newTokensCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Estimate the selection prompt size for the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpTokens)
			if err != nil {
				return err
			}
			defer a.Close()
			est, err := a.Tokens(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(est)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "model\t%s\n", est.Model)
			fmt.Fprintf(tw, "characters\t%d\n", est.Chars)
			fmt.Fprintf(tw, "prompt tokens\t%d\n", est.PromptTokens)
			fmt.Fprintf(tw, "context window\t%d\n", est.ModelContext)
			fmt.Fprintf(tw, "reserved output\t%d\n", est.ReservedOutput)
			fmt.Fprintf(tw, "headroom\t%d\n", est.Headroom)
			fmt.Fprintf(tw, "remaining\t%d\n", est.Remaining)
			fmt.Fprintf(tw, "fits\t%t\n", est.Fits)
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.String("catalog", app.DefaultCatalog, "Catalog path")
	f.String("llm.model", app.DefaultModel, "Model whose context window to check against")
	f.BoolVar(&asJSON, "json", false, "Print the estimate as JSON")
	return cmd
}
