package verify

import (
	"strings"

	"github.com/bookowl/bookowl/internal/model"
	"github.com/bookowl/bookowl/internal/rank"
)

// Disclaimer is appended to low-confidence answers instead of withholding them
const Disclaimer = "\n\nNote: this answer could not be well verified against the book text and may be incomplete or inaccurate."

// stopwords are excluded when counting significant token overlap
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "her": {}, "his": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"she": {}, "that": {}, "the": {}, "their": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "which": {}, "with": {},
}

// Verifier estimates how well a generated answer is grounded in the
// chunks that were actually supplied to the model.
type Verifier struct {
	minOverlapTokens int
	highThreshold    float64
	mediumThreshold  float64
}

// NewVerifier creates a verifier from configuration
func NewVerifier(cfg model.VerifyConfig) *Verifier {
	return &Verifier{
		minOverlapTokens: cfg.MinOverlapTokens,
		highThreshold:    cfg.HighThreshold,
		mediumThreshold:  cfg.MediumThreshold,
	}
}

// Verify splits the answer into claims and scores the fraction traceable
// to a supplied chunk. Zero claims scores 0 and labels low; there is no
// division by zero.
func (v *Verifier) Verify(answer string, chunks []model.ScoredChunk) (float64, model.Confidence) {
	claims := SplitClaims(answer)
	if len(claims) == 0 {
		return 0, model.ConfidenceLow
	}

	chunkTokens := make([]map[string]struct{}, len(chunks))
	for i, c := range chunks {
		chunkTokens[i] = rank.Tokenize(c.Chunk.Text)
	}

	verified := 0
	for _, claim := range claims {
		if v.claimSupported(claim, chunkTokens) {
			verified++
		}
	}

	score := float64(verified) / float64(len(claims))
	return score, v.Label(score)
}

// Label maps a verification score to a confidence label
func (v *Verifier) Label(score float64) model.Confidence {
	switch {
	case score >= v.highThreshold:
		return model.ConfidenceHigh
	case score >= v.mediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// Annotate appends the visible disclaimer to low-confidence answers
func (v *Verifier) Annotate(text string, confidence model.Confidence) string {
	if confidence == model.ConfidenceLow {
		return text + Disclaimer
	}
	return text
}

// claimSupported reports whether the claim shares at least the minimum
// number of significant tokens with any single chunk.
func (v *Verifier) claimSupported(claim string, chunkTokens []map[string]struct{}) bool {
	tokens := significantTokens(claim)
	if len(tokens) == 0 {
		return false
	}

	// Short claims cannot reach the default minimum; require full overlap
	// instead of silently passing them
	need := v.minOverlapTokens
	if len(tokens) < need {
		need = len(tokens)
	}

	for _, ct := range chunkTokens {
		matched := 0
		for token := range tokens {
			if _, ok := ct[token]; ok {
				matched++
				if matched >= need {
					return true
				}
			}
		}
	}
	return false
}

// significantTokens tokenizes a claim and drops stopwords
func significantTokens(text string) map[string]struct{} {
	tokens := rank.Tokenize(text)
	for w := range stopwords {
		delete(tokens, w)
	}
	return tokens
}

// SplitClaims segments an answer into sentence-level claim units on
// terminal punctuation. Deliberately naive: abbreviations and decimal
// numbers can over- or under-split, which the lookahead guard only
// partially mitigates.
func SplitClaims(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var claims []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by whitespace or end of text,
			// which avoids breaking on decimals like 3.14
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				if claim := strings.TrimSpace(current.String()); claim != "" {
					claims = append(claims, claim)
				}
				current.Reset()
			}
		}
	}

	if claim := strings.TrimSpace(current.String()); claim != "" {
		claims = append(claims, claim)
	}

	return claims
}
