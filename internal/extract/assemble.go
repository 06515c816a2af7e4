package extract

import (
	"fmt"

	"github.com/hyperifyio/bookmatch/internal/books"
)

// Result is the outcome of extracting one document.
type Result struct {
	Records     []books.Record `json:"records"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
	// Found counts record markers in the document.
	Found int `json:"found"`
	// Segmented counts blocks that were delimited and handed to the field chains.
	Segmented int `json:"segmented"`
}

// Summary counts diagnostics per reason.
func (r Result) Summary() map[Reason]int {
	out := make(map[Reason]int)
	for _, d := range r.Diagnostics {
		out[d.Reason]++
	}
	return out
}

// Discarded counts blocks that produced no record.
func (r Result) Discarded() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Reason.discards() {
			n++
		}
	}
	return n
}

type optionalField struct {
	chain Chain[string]
	set   func(*books.Record, string)
}

var optionalFields = []optionalField{
	{OtherNamesChain, func(r *books.Record, v string) { r.OtherNames = v }},
	{CoverChain, func(r *books.Record, v string) { r.CoverReference = v }},
	{DescriptionChain, func(r *books.Record, v string) { r.Description = v }},
	{AmazonChain, func(r *books.Record, v string) { r.Links.Amazon = v }},
	{BookshopChain, func(r *books.Record, v string) { r.Links.Bookshop = v }},
}

// Assemble segments doc and runs every field chain over each block.
// Records come out in document order. A block without rank, title and author
// is discarded; a block repeating an earlier rank is discarded too, so ranks
// in the output are unique. Every optional field that could not be found is
// set to "" and noted in the diagnostics.
func Assemble(doc string) Result {
	seg := Segment(doc)
	var rep report
	rep.add(seg.Diagnostics...)

	res := Result{Found: seg.Found, Segmented: len(seg.Blocks), Records: []books.Record{}}
	if seg.Found == 0 {
		rep.add(Diagnostic{
			BlockIndex: -1,
			Field:      FieldDocument,
			Reason:     ReasonNothingFound,
			Detail:     "no record markers in document",
		})
		res.Diagnostics = rep.snapshot()
		return res
	}

	seen := make(map[int]int)
	for _, b := range seg.Blocks {
		h, pos, ok := HeadingChain.Run(b.Text)
		if !ok || !h.Complete() {
			detail := HeadingChain.triedDetail()
			if ok {
				detail = fmt.Sprintf("%s matched rank %d, title %q; author unresolved",
					HeadingChain.Matchers[pos].Name, h.Rank, h.Title)
			}
			rep.add(Diagnostic{
				BlockIndex: b.Index,
				Field:      FieldHeading,
				Reason:     ReasonMissingMandatory,
				Detail:     detail,
			})
			continue
		}
		if first, dup := seen[h.Rank]; dup {
			rep.add(Diagnostic{
				BlockIndex: b.Index,
				Field:      FieldHeading,
				Reason:     ReasonDuplicateRank,
				Detail:     fmt.Sprintf("rank %d already taken by block %d", h.Rank, first),
			})
			continue
		}
		seen[h.Rank] = b.Index

		rec := books.Record{Rank: h.Rank, Title: h.Title, Author: h.Author}
		for _, f := range optionalFields {
			v, pos, ok := f.chain.Run(b.Text)
			switch {
			case !ok:
				rep.add(Diagnostic{
					BlockIndex: b.Index,
					Field:      f.chain.Field,
					Reason:     ReasonNotFound,
					Detail:     f.chain.triedDetail(),
				})
				continue
			case pos > 0:
				rep.add(Diagnostic{
					BlockIndex: b.Index,
					Field:      f.chain.Field,
					Reason:     ReasonFallback,
					Detail:     f.chain.Matchers[pos].Name,
				})
			}
			f.set(&rec, v)
		}
		res.Records = append(res.Records, rec)
	}
	res.Diagnostics = rep.snapshot()
	return res
}
