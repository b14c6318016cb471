// Package prompt formats the fixed prompt templates the scoping agent sends to the
// model: clarification, forced verification, research brief and search summary.
//
// Conversations are rendered with Buffer, one "Human:"/"AI:" line per turn, and every
// template carries today's date in DateLayout. The clock is injectable so tests get
// stable output:
//
//	f := prompt.NewFormatter(func() time.Time { return fixed })
//	text := f.Clarify(turns)
package prompt
