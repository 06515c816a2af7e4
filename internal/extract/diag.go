package extract

// Reason classifies a diagnostic.
type Reason string

const (
	// ReasonNotFound: an optional field chain was exhausted; the field defaulted to "".
	ReasonNotFound Reason = "not_found"
	// ReasonFallback: a field was filled by a fallback matcher rather than the primary one.
	ReasonFallback Reason = "fallback"
	// ReasonMissingMandatory: rank, title or author could not be resolved; the block was discarded.
	ReasonMissingMandatory Reason = "missing_mandatory"
	// ReasonUnterminated: a record block had no closing marker; it was never segmented.
	ReasonUnterminated Reason = "unterminated"
	// ReasonDuplicateRank: the block repeated a rank already emitted; it was discarded.
	ReasonDuplicateRank Reason = "duplicate_rank"
	// ReasonNothingFound: the document contained no record markers at all.
	ReasonNothingFound Reason = "nothing_found"
)

// Field names used in diagnostics.
const (
	FieldHeading     = "rank/title/author"
	FieldOtherNames  = "otherNames"
	FieldCover       = "coverReference"
	FieldDescription = "description"
	FieldAmazon      = "links.amazon"
	FieldBookshop    = "links.bookshop"
	FieldBlock       = "block"
	FieldDocument    = "document"
)

// Diagnostic explains one gap between the input and the output: a defaulted
// field, a fallback, or a discarded block. BlockIndex is the position of the
// block's opening marker in the document (0-based), or -1 for document-level
// notes.
type Diagnostic struct {
	BlockIndex int    `json:"blockIndex" yaml:"blockIndex"`
	Field      string `json:"field" yaml:"field"`
	Reason     Reason `json:"reason" yaml:"reason"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// discards reports whether the reason removed a whole block from the output.
func (r Reason) discards() bool {
	switch r {
	case ReasonMissingMandatory, ReasonUnterminated, ReasonDuplicateRank:
		return true
	}
	return false
}

// report accumulates diagnostics in emission order.
type report struct {
	items []Diagnostic
}

func (r *report) add(d ...Diagnostic) {
	r.items = append(r.items, d...)
}

func (r *report) snapshot() []Diagnostic {
	out := make([]Diagnostic, len(r.items))
	copy(out, r.items)
	return out
}
