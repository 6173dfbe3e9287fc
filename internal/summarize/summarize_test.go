package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const parisGuide = `## 🍝 Gastronomy (What to order)
* **Croissant:** Flaky butter pastry best eaten warm from a boulangerie.

## 🏘️ Neighborhoods
* **Le Marais:** Historic trendy district with cafes.
* **Montmartre:** Artsy hilltop village with winding cobblestone streets and sweeping city views.

Café de Flore is a legendary literary haunt on the Left Bank. Il Colosseo dominates ancient Rome.

(---PAGE BREAK---)

### COORDINATES
Le Marais | 48.8566 | 2.3522
Montmartre | 48.8867 | 2.3431
`

func newTestResolver(fallback FallbackFunc) *Resolver {
	return NewResolver(Options{Fallback: fallback})
}

func TestResolveLabeledBullet(t *testing.T) {
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), parisGuide, []string{"Le Marais"})
	if len(got) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(got))
	}
	desc := strings.ToLower(got[0].Description)
	if got[0].Description == FallbackDescription {
		t.Fatal("expected a text-derived description, got the fallback literal")
	}
	if !strings.Contains(desc, "historic") && !strings.Contains(desc, "trendy") && !strings.Contains(desc, "cafes") {
		t.Errorf("description lost the matched content: %q", got[0].Description)
	}
	if strings.Contains(got[0].Description, "48.8566") {
		t.Errorf("coordinates leaked into description: %q", got[0].Description)
	}
}

func TestResolveShortensLongCandidates(t *testing.T) {
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), parisGuide, []string{"Montmartre"})
	desc := got[0].Description
	if !strings.HasSuffix(desc, "...") {
		t.Errorf("expected ellipsis-terminated description, got %q", desc)
	}
	if tokens := strings.Fields(desc); len(tokens) > 11 {
		t.Errorf("expected at most 11 tokens, got %d: %q", len(tokens), desc)
	}
}

func TestResolveAccentInsensitive(t *testing.T) {
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), parisGuide, []string{"Cafe de Flore"})
	if got[0].Description == FallbackDescription {
		t.Fatalf("accent-insensitive match failed: %q", got[0].Description)
	}
	if !strings.Contains(strings.ToLower(got[0].Description), "legendary") {
		t.Errorf("wrong sentence matched: %q", got[0].Description)
	}
}

func TestResolveAliasMatch(t *testing.T) {
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), parisGuide, []string{"Colosseum"})
	if got[0].Description == FallbackDescription {
		t.Fatalf("alias match failed: %q", got[0].Description)
	}
	if !strings.Contains(strings.ToLower(got[0].Description), "dominates") {
		t.Errorf("wrong sentence matched: %q", got[0].Description)
	}
}

func TestResolveOrderAndArity(t *testing.T) {
	r := newTestResolver(nil)
	names := []string{"Montmartre", "Le Marais", "Croissant"}
	got := r.Resolve(context.Background(), parisGuide, names)
	if len(got) != len(names) {
		t.Fatalf("expected %d summaries, got %d", len(names), len(got))
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, got[i].Name)
		}
	}
}

func TestResolveEmptyNames(t *testing.T) {
	r := newTestResolver(nil)
	if got := r.Resolve(context.Background(), parisGuide, nil); got != nil {
		t.Errorf("expected nil for empty names, got %v", got)
	}
}

func TestResolveTokenOverlap(t *testing.T) {
	text := "The old Eiffel district buzzes with late-night brasseries and street musicians near the tower."
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), text, []string{"Eiffel Tower District"})
	if got[0].Description == FallbackDescription {
		t.Fatalf("token overlap did not match: %q", got[0].Description)
	}
}

func TestFallbackStubLiteral(t *testing.T) {
	fallback := func(ctx context.Context, guideText, name string) (string, error) {
		return "No short description available.", nil
	}
	r := newTestResolver(fallback)
	got := r.Resolve(context.Background(), parisGuide, []string{"Atlantis"})
	if got[0].Description != FallbackDescription {
		t.Errorf("expected fallback literal, got %q", got[0].Description)
	}
}

func TestFallbackSanitization(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     string
	}{
		{
			name:     "error converts to literal",
			err:      errors.New("rate limited"),
			want:     FallbackDescription,
		},
		{
			name:     "empty response",
			response: "   ",
			want:     FallbackDescription,
		},
		{
			name:     "not-mentioned phrase",
			response: "That information is not in this specific briefing.",
			want:     FallbackDescription,
		},
		{
			name:     "first line only",
			response: "A quiet canal-side quarter.\nSecond line is dropped.",
			want:     "A quiet canal-side quarter.",
		},
		{
			name:     "truncated to fifteen words",
			response: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
			want:     "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(func(ctx context.Context, guideText, name string) (string, error) {
				return tt.response, tt.err
			})
			got := r.Resolve(context.Background(), "Nothing about this place.", []string{"Atlantis"})
			if got[0].Description != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got[0].Description)
			}
		})
	}
}

func TestFallbackPanicRecovered(t *testing.T) {
	r := newTestResolver(func(ctx context.Context, guideText, name string) (string, error) {
		panic("llm client exploded")
	})
	got := r.Resolve(context.Background(), "Nothing about this place.", []string{"Atlantis"})
	if got[0].Description != FallbackDescription {
		t.Errorf("expected fallback literal after panic, got %q", got[0].Description)
	}
}

func TestFallbackPreservesOrder(t *testing.T) {
	fallback := func(ctx context.Context, guideText, name string) (string, error) {
		return "About " + name + " here.", nil
	}
	r := newTestResolver(fallback)
	names := []string{"Atlantis", "El Dorado", "Shangri-La"}
	got := r.Resolve(context.Background(), "Nothing about these places.", names)
	if len(got) != len(names) {
		t.Fatalf("expected %d summaries, got %d", len(names), len(got))
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Errorf("summary %d: expected name %q, got %q", i, name, got[i].Name)
		}
		if got[i].Description != "About "+name+" here." {
			t.Errorf("summary %d: unexpected description %q", i, got[i].Description)
		}
	}
}

func TestNilFallback(t *testing.T) {
	r := newTestResolver(nil)
	got := r.Resolve(context.Background(), "Nothing about this place.", []string{"Atlantis"})
	if got[0].Description != FallbackDescription {
		t.Errorf("expected fallback literal, got %q", got[0].Description)
	}
}

func TestCleanCandidateRejectsThinDescriptions(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		place     string
	}{
		{"empty after cleanup", "****", "Dot"},
		{"equals the name", "**Le Marais**", "Le Marais"},
		{"under three words", "Nice spot.", "Dot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanCandidate(tt.candidate, tt.place); got != "" {
				t.Errorf("expected rejection, got %q", got)
			}
		})
	}
}

func TestCleanCandidateStripsResidue(t *testing.T) {
	got := cleanCandidate("### **Le Marais:** Historic trendy district | 48.8566 | 2.3522", "Le Marais")
	if got != "Historic trendy district" {
		t.Errorf("unexpected cleaned candidate: %q", got)
	}
}

func TestShorten(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "short text untouched",
			in:   "Historic trendy district with cafes.",
			want: "Historic trendy district with cafes.",
		},
		{
			name: "first sentence preferred",
			in:   "A compact riverside quarter. It stretches for several kilometers along the old harbor walls and beyond.",
			want: "A compact riverside quarter....",
		},
		{
			name: "two comma clauses joined",
			in:   "Lined with galleries near the river, packed on weekends, quiet in winter, always photogenic",
			want: "Lined with galleries near the river, packed on weekends...",
		},
		{
			name: "hard truncation",
			in:   "one two three four five six seven eight nine ten eleven twelve",
			want: "one two three four five six seven eight nine ten...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shorten(tt.in, maxSummaryWords); got != tt.want {
				t.Errorf("shorten(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
