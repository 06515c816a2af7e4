package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Add Goodreads links to the catalog",
		Long: `Enrich searches "goodreads <title> <author>" for every record without a
Goodreads link and stores the first goodreads.com/book/show/ result. The
catalog is rewritten in place. Lookups are spaced by --delay.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpEnrich)
			if err != nil {
				return err
			}
			defer a.Close()
			stats, err := a.Enrich(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d updated=%d already_linked=%d not_found=%d errors=%d\n",
				stats.Processed, stats.Updated, stats.AlreadyLinked, stats.NotFound, stats.Errors)
			return err
		},
	}
	f := cmd.Flags()
	f.String("catalog", app.DefaultCatalog, "Catalog path")
	f.String("searx.url", "", "SearxNG base URL")
	f.String("searx.key", "", "SearxNG API key (optional)")
	f.String("searx.ua", app.DefaultUserAgent, "User-Agent for SearxNG requests")
	f.String("search.file", "", "Offline JSON search results fixture")
	f.StringSlice("domains.allow", nil, "Only accept results from these domains")
	f.StringSlice("domains.deny", nil, "Reject results from these domains")
	f.Duration("delay", app.DefaultEnrichDelay, "Pause between lookups")
	f.Int("limit", 0, "Look up at most this many records (0 = all)")
	return cmd
}
