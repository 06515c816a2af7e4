// Command debugsearch runs one Goodreads lookup against a SearxNG instance
// and prints every hit, marking the one enrichment would pick.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/enrich"
	"github.com/hyperifyio/bookmatch/internal/search"
)

func main() {
	base := os.Getenv("SEARX_URL")
	if base == "" {
		base = "http://localhost:8888"
	}
	book := "Dune by Frank Herbert"
	if len(os.Args) > 1 {
		book = strings.Join(os.Args[1:], " ")
	}
	title, author, ok := books.ParseBookString(book)
	if !ok {
		fmt.Fprintln(os.Stderr, `usage: debugsearch "TITLE by AUTHOR"`)
		os.Exit(2)
	}
	q := enrich.Query(books.Record{Title: title, Author: author})
	client := &http.Client{Timeout: 20 * time.Second}
	prov := &search.SearxNG{BaseURL: base, HTTPClient: client, UserAgent: "debugsearch/1.0", APIKey: os.Getenv("SEARX_KEY")}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	res, err := prov.Search(ctx, q, 10)
	fmt.Println("query:", q)
	fmt.Println("err:", err)
	picked := false
	for i, r := range res {
		mark := " "
		if !picked && enrich.IsBookPage(r.URL) {
			mark = "*"
			picked = true
		}
		fmt.Printf("%s %d. %s - %s\n", mark, i+1, r.Title, enrich.Canonical(r.URL))
	}
}
