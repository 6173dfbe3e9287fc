// Package summarize derives short per-place descriptions from briefing text.
//
// For each requested name a chain of matching strategies runs in fixed
// priority order and the first hit wins: labeled line, bulleted bold label,
// sentence substring (case- then accent-insensitive), paragraph substring,
// token overlap. Candidates are cleaned of markdown and coordinate residue
// and shortened; when no strategy finds a usable snippet an injected LLM
// fallback is consulted. Resolve never returns an error.
package summarize

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"travel-intel/internal/textutil"
)

const (
	// overlapThreshold is the minimum fraction of name tokens that must
	// appear in a sentence for the token-overlap strategy to accept it.
	// Preserved from the original tuning; not re-derived.
	overlapThreshold = 0.4

	// maxSummaryWords caps descriptions extracted from the text.
	maxSummaryWords = 10

	// maxFallbackWords caps descriptions produced by the LLM fallback.
	maxFallbackWords = 15

	// fallbackConcurrency bounds parallel LLM fallback calls per Resolve.
	fallbackConcurrency = 4
)

// FallbackDescription is returned whenever no description can be derived.
const FallbackDescription = "No short description available."

// Summary pairs a place name with its short description.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FallbackFunc produces a one-line place description from the full guide
// text, typically via an LLM. It may fail; failures never surface to
// Resolve's caller.
type FallbackFunc func(ctx context.Context, guideText, name string) (string, error)

// Options configures a Resolver.
type Options struct {
	// Aliases maps a lowercase canonical name to alternate spellings used
	// during substring matching. Nil selects DefaultAliases.
	Aliases map[string][]string

	// Fallback is consulted when text matching fails. Nil means unmatched
	// names get FallbackDescription directly.
	Fallback FallbackFunc
}

// DefaultAliases returns the built-in alternate-spelling table.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"colosseum":    {"colosseo", "il colosseo", "colosseum"},
		"grand palace": {"grand palace", "the grand palace"},
		"eiffel tower": {"eiffel tower", "la tour eiffel", "tour eiffel"},
	}
}

// Resolver finds short descriptions for place names within guide text.
type Resolver struct {
	aliases  map[string][]string
	fallback FallbackFunc
}

func NewResolver(opts Options) *Resolver {
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Resolver{aliases: aliases, fallback: opts.Fallback}
}

var (
	coordSectionPattern = regexp.MustCompile(`(?mi)^\s*#{1,3}\s*COORDINATES.*$(?:\n(?:.*\|.*\|.*$))*`)
	tripleLinePattern   = regexp.MustCompile(`(?m)^[^\n|]+\|\s*-?\d+\.?\d*\s*\|\s*-?\d+\.?\d*\s*$`)

	coordFragmentPattern = regexp.MustCompile(`\|\s*-?\d+\.?\d*\s*\|\s*-?\d+\.?\d*`)
	boldPattern          = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern        = regexp.MustCompile(`\*(.*?)\*`)
	headingPattern       = regexp.MustCompile(`^\s*#{1,6}\s*`)
	leadPunctPattern     = regexp.MustCompile(`^[\W_]+`)
	sectionLabelPattern  = regexp.MustCompile(`(?i)^(?:🏘️\s*)?(?:Neighborhoods|Gastronomy|Coordinates?)[:\-\s]*`)
	wordPattern          = regexp.MustCompile(`\w+`)
)

// document holds the working text split at each search granularity.
type document struct {
	sentences     []string
	sentencesLow  []string
	sentencesNorm []string
	lines         []string
	paragraphs    []string
}

func buildDocument(text string) *document {
	clean := coordSectionPattern.ReplaceAllString(text, "")
	clean = tripleLinePattern.ReplaceAllString(clean, "")

	sentences := textutil.SplitSentences(clean)
	low := make([]string, len(sentences))
	norm := make([]string, len(sentences))
	for i, s := range sentences {
		low[i] = strings.ToLower(s)
		norm[i] = textutil.StripAccents(low[i])
	}
	return &document{
		sentences:     sentences,
		sentencesLow:  low,
		sentencesNorm: norm,
		lines:         textutil.NonEmptyLines(clean),
		paragraphs:    textutil.SplitParagraphs(clean),
	}
}

// Resolve returns one Summary per name in input order. Every failure path
// terminates in FallbackDescription; no error is ever propagated.
func (r *Resolver) Resolve(ctx context.Context, text string, names []string) []Summary {
	if len(names) == 0 {
		return nil
	}
	doc := buildDocument(text)

	summaries := make([]Summary, len(names))
	var missing []int
	for i, name := range names {
		summaries[i] = Summary{Name: name, Description: r.describe(doc, name)}
		if summaries[i].Description == "" {
			missing = append(missing, i)
		}
	}

	// Only unmatched names need the LLM; those calls can run in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fallbackConcurrency)
	for _, i := range missing {
		g.Go(func() error {
			summaries[i].Description = r.runFallback(gctx, text, names[i])
			return nil
		})
	}
	_ = g.Wait()
	return summaries
}

// describe runs the strategy chain and post-processing for one name.
// The first strategy to produce a candidate wins; if that candidate cleans
// down to nothing the name is treated as not found rather than handed to a
// later strategy. Empty result means no usable candidate was found.
func (r *Resolver) describe(doc *document, name string) string {
	strategies := []func(*document, string) (string, bool){
		r.matchLabeledLine,
		r.matchBulletedLabel,
		r.matchSentence,
		r.matchParagraph,
		r.matchTokenOverlap,
	}
	for _, try := range strategies {
		if candidate, ok := try(doc, name); ok {
			if desc := cleanCandidate(candidate, name); desc != "" {
				return shorten(desc, maxSummaryWords)
			}
			return ""
		}
	}
	return ""
}

// matchLabeledLine finds "Name: description" lines, allowing bullet and
// emphasis markers before the name.
func (r *Resolver) matchLabeledLine(doc *document, name string) (string, bool) {
	re := regexp.MustCompile(`(?i)^\s*(?:\*\*|\*|\-|•\s*)*` + regexp.QuoteMeta(name) + `\s*[:\-–—]\s*(.+)$`)
	for _, line := range doc.lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// matchBulletedLabel covers "* **Name**: description" style bullets.
func (r *Resolver) matchBulletedLabel(doc *document, name string) (string, bool) {
	re := regexp.MustCompile(`(?i)\*\s*\*\*?\s*` + regexp.QuoteMeta(name) + `\*\*?\s*[:\-–—]?\s*(.+)`)
	for _, line := range doc.lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// matchSentence returns the first sentence containing the name or one of
// its aliases, trying exact lowercase first, then accent-stripped forms.
func (r *Resolver) matchSentence(doc *document, name string) (string, bool) {
	nameLow := strings.ToLower(name)
	aliases := r.aliases[nameLow]
	for i, s := range doc.sentencesLow {
		if containsAny(s, nameLow, aliases, false) {
			return strings.TrimSpace(doc.sentences[i]), true
		}
	}
	nameNorm := textutil.StripAccents(nameLow)
	for i, s := range doc.sentencesNorm {
		if containsAny(s, nameNorm, aliases, true) {
			return strings.TrimSpace(doc.sentences[i]), true
		}
	}
	return "", false
}

// matchParagraph looks for the name within whole paragraphs and takes the
// first line of the matching paragraph as the candidate.
func (r *Resolver) matchParagraph(doc *document, name string) (string, bool) {
	nameLow := strings.ToLower(name)
	aliases := r.aliases[nameLow]
	for _, p := range doc.paragraphs {
		if containsAny(strings.ToLower(p), nameLow, aliases, false) {
			return firstLine(p), true
		}
	}
	nameNorm := textutil.StripAccents(nameLow)
	for _, p := range doc.paragraphs {
		if containsAny(textutil.StripAccents(strings.ToLower(p)), nameNorm, aliases, true) {
			return firstLine(p), true
		}
	}
	return "", false
}

// matchTokenOverlap scores sentences by the fraction of name tokens they
// contain and accepts the best one at or above overlapThreshold.
func (r *Resolver) matchTokenOverlap(doc *document, name string) (string, bool) {
	nameNorm := textutil.StripAccents(strings.ToLower(name))
	var tokens []string
	for _, t := range wordPattern.FindAllString(nameNorm, -1) {
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}

	bestScore := 0.0
	bestIdx := -1
	for i, s := range doc.sentencesLow {
		if s == "" {
			continue
		}
		matched := 0
		for _, t := range tokens {
			if strings.Contains(doc.sentencesNorm[i], t) {
				matched++
			}
		}
		score := float64(matched) / float64(max(1, len(tokens)))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore >= overlapThreshold && bestIdx >= 0 {
		return strings.TrimSpace(doc.sentences[bestIdx]), true
	}
	return "", false
}

func containsAny(haystack, needle string, aliases []string, stripAliases bool) bool {
	if strings.Contains(haystack, needle) {
		return true
	}
	for _, a := range aliases {
		if stripAliases {
			a = textutil.StripAccents(a)
		}
		if strings.Contains(haystack, a) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}

// cleanCandidate strips markdown and coordinate residue from a matched
// snippet. Returns "" when what remains is too thin to be a description.
func cleanCandidate(desc, name string) string {
	desc = coordFragmentPattern.ReplaceAllString(desc, "")
	desc = boldPattern.ReplaceAllString(desc, "$1")
	desc = italicPattern.ReplaceAllString(desc, "$1")
	desc = headingPattern.ReplaceAllString(desc, "")
	desc = leadPunctPattern.ReplaceAllString(desc, "")
	desc = sectionLabelPattern.ReplaceAllString(desc, "")

	namePrefix := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(name) + `\s*[:\-–—]\s*`)
	desc = namePrefix.ReplaceAllString(desc, "")
	desc = textutil.CollapseSpaces(desc)

	if desc == "" || strings.EqualFold(desc, name) || len(strings.Fields(desc)) < 3 {
		return ""
	}
	return desc
}

// shorten reduces a description to at most maxWords, preferring a whole
// first sentence, then the first two comma clauses, then a hard cut.
func shorten(s string, maxWords int) string {
	s = strings.TrimSpace(s)
	if s == "" || len(strings.Fields(s)) <= maxWords {
		return s
	}
	if parts := textutil.SplitSentences(s); len(parts) > 0 {
		first := strings.TrimSpace(parts[0])
		if len(strings.Fields(first)) <= maxWords {
			return first + "..."
		}
	}
	var clauses []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			clauses = append(clauses, c)
		}
	}
	short := s
	if len(clauses) >= 2 {
		short = clauses[0] + ", " + clauses[1]
	} else if len(clauses) == 1 {
		short = clauses[0]
	}
	if words := strings.Fields(short); len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return short + "..."
}

// runFallback asks the injected LLM for a one-line description and
// sanitizes the response. Every failure, including a panic inside the
// fallback, degrades to FallbackDescription.
func (r *Resolver) runFallback(ctx context.Context, guideText, name string) (desc string) {
	desc = FallbackDescription
	if r.fallback == nil {
		return desc
	}
	defer func() {
		if recover() != nil {
			desc = FallbackDescription
		}
	}()

	resp, err := r.fallback(ctx, guideText, name)
	if err != nil {
		return FallbackDescription
	}
	clean := strings.TrimSpace(resp)
	low := strings.ToLower(clean)
	if clean == "" ||
		strings.Contains(low, "not in this specific briefing") ||
		strings.Contains(low, "no short description") {
		return FallbackDescription
	}
	first := firstLine(clean)
	return textutil.TruncateWords(first, maxFallbackWords)
}
