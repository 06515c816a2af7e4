package extract

import "github.com/rs/zerolog"

// LogDiagnostics writes each diagnostic at debug level and a one-line
// summary at info level (warn when nothing was extracted).
func LogDiagnostics(logger zerolog.Logger, res Result) {
	for _, d := range res.Diagnostics {
		logger.Debug().
			Int("block", d.BlockIndex).
			Str("field", d.Field).
			Str("reason", string(d.Reason)).
			Str("detail", d.Detail).
			Msg("extraction diagnostic")
	}
	ev := logger.Info()
	if len(res.Records) == 0 {
		ev = logger.Warn()
	}
	summary := zerolog.Dict()
	for reason, n := range res.Summary() {
		summary = summary.Int(string(reason), n)
	}
	ev.Int("found", res.Found).
		Int("segmented", res.Segmented).
		Int("records", len(res.Records)).
		Int("discarded", res.Discarded()).
		Dict("reasons", summary).
		Msg("extraction finished")
}
