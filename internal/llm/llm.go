package llm

import "context"

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// GenerateBriefing produces a markdown travel briefing for a destination
	// and month, grounded in the supplied search context. The briefing ends
	// with a page-break marker and a COORDINATES appendix of
	// "Name | Lat | Lon" lines.
	GenerateBriefing(ctx context.Context, destination, month, searchContext string) (string, error)

	// Chat answers a follow-up question using only the guide text.
	Chat(ctx context.Context, guideText, question string) (string, error)

	// PlaceSummary asks for a one-line factual description of a place based
	// only on the guide text, or the exact phrase "No short description
	// available." when the guide does not mention it.
	PlaceSummary(ctx context.Context, guideText, place string) (string, error)
}
