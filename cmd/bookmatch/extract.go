package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
	"github.com/hyperifyio/bookmatch/internal/fetch"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the book catalog from a list page",
		Long: `Extract reads a ranked book-list page (a local file or an http(s) URL),
turns every record block into a catalog entry and writes the catalog. The
output format follows the file extension: .json, .yaml, .db or .pdf.

Every defaulted field, fallback and discarded block is logged. The command
exits with status 2 when the page yields no records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpExtract)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Extract(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s (%d blocks found, %d discarded)\n",
				len(res.Records), a.Config().Output, res.Found, res.Discarded())
			return nil
		},
	}
	f := cmd.Flags()
	f.String("source", fetch.DefaultSource, "List page: local path or http(s) URL")
	f.StringP("output", "o", app.DefaultOutput, "Catalog output path (.json, .yaml, .db, .pdf)")
	f.Bool("manifest", false, "Write a <output>.manifest.json sidecar")
	f.Int64("max-bytes", 0, "Reject pages larger than this many bytes (0 disables)")
	return cmd
}
