package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
	"github.com/hyperifyio/bookmatch/internal/books"
)

const minColumn = 8

func newListCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpList)
			if err != nil {
				return err
			}
			defer a.Close()
			records, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			return renderTable(cmd.OutOrStdout(), records, width)
		},
	}
	cmd.Flags().String("catalog", app.DefaultCatalog, "Catalog path")
	cmd.Flags().IntVar(&width, "width", 100, "Table width in terminal columns")
	return cmd
}

// renderTable writes rank, title and author columns that fit in width
// terminal cells. Wide (East Asian) characters count as two cells.
func renderTable(w io.Writer, records []books.Record, width int) error {
	rankW := len("#")
	for _, r := range records {
		if n := len(strconv.Itoa(r.Rank)); n > rankW {
			rankW = n
		}
	}
	rest := width - rankW - 4
	titleW := rest * 3 / 5
	authorW := rest - titleW
	if titleW < minColumn {
		titleW = minColumn
	}
	if authorW < minColumn {
		authorW = minColumn
	}
	line := func(rank, title, author string) error {
		_, err := fmt.Fprintf(w, "%*s  %s  %s\n", rankW, rank,
			runewidth.FillRight(runewidth.Truncate(title, titleW, "…"), titleW),
			runewidth.Truncate(author, authorW, "…"))
		return err
	}
	if err := line("#", "TITLE", "AUTHOR"); err != nil {
		return err
	}
	for _, r := range records {
		if err := line(strconv.Itoa(r.Rank), r.Title, r.Author); err != nil {
			return err
		}
	}
	return nil
}
