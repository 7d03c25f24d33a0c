// Package normalize implements the Tokenizer & Normalizer of spec.md §4.1:
// NFC normalization, tokenization for keyword/phrase scoring, stopword
// filtering, entity-name candidate extraction, and OCR currency-symbol
// correction.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer holds the locale currency symbol used for OCR correction; it
// carries no other state and is safe for concurrent use.
type Normalizer struct {
	CurrencySymbol string // e.g. "$"; empty disables currency correction
}

// New returns a Normalizer for the given locale currency symbol.
func New(currencySymbol string) *Normalizer {
	return &Normalizer{CurrencySymbol: currencySymbol}
}

var escapeSeq = regexp.MustCompile(`\\u[0-9a-fA-F]{4}|\\n|\\t|\\r|\\\\`)

// Normalize applies Unicode NFC composition and decodes safe escape
// sequences (\uXXXX, \n, \t, \r, \\), leaving anything else literal.
// Normalize(Normalize(x)) == Normalize(x) whenever the decoded text holds
// no further escape sequence; an escaped backslash such as `\\n` decodes
// to `\n`, which a second call turns into a newline.
func (n *Normalizer) Normalize(text string) string {
	decoded := escapeSeq.ReplaceAllStringFunc(text, decodeEscape)
	composed := norm.NFC.String(decoded)
	if n.CurrencySymbol != "" {
		composed = n.correctCurrency(composed)
	}
	return composed
}

func decodeEscape(tok string) string {
	switch tok {
	case `\n`:
		return "\n"
	case `\t`:
		return "\t"
	case `\r`:
		return "\r"
	case `\\`:
		return `\`
	}
	if strings.HasPrefix(tok, `\u`) && len(tok) == 6 {
		if n, err := strconv.ParseInt(tok[2:], 16, 32); err == nil {
			return string(rune(n))
		}
	}
	return tok
}

// currencyPercent matches a digit run followed by "%" where the following
// context looks like OCR misread a currency symbol as a percent sign:
// either an uppercase letter, another digit, or end-of-string follows.
var currencyPercent = regexp.MustCompile(`(\d+)\s*%(\s*(?:\p{Lu}|\d|$))`)

func (n *Normalizer) correctCurrency(text string) string {
	return currencyPercent.ReplaceAllString(text, "$1"+n.CurrencySymbol+"$2")
}

// Token is one normalized-for-matching unit with its original display
// form preserved.
type Token struct {
	Original string
	Lower    string
}

var splitter = regexp.MustCompile(`[\p{Z}\p{P}]+`)

// Tokenize splits text on Unicode whitespace and punctuation, lowercasing
// for matching while preserving each token's original display form.
func (n *Normalizer) Tokenize(text string) []Token {
	parts := splitter.Split(text, -1)
	tokens := make([]Token, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, Token{Original: p, Lower: strings.ToLower(p)})
	}
	return tokens
}

// Phrases extracts phraseWords-length sliding windows of consecutive
// tokens, used by the scoring engine's phrase-bonus prioritizer.
func (n *Normalizer) Phrases(text string, phraseWords int) []string {
	if phraseWords < 1 {
		return nil
	}
	toks := n.Tokenize(text)
	if len(toks) < phraseWords {
		return nil
	}
	out := make([]string, 0, len(toks)-phraseWords+1)
	for i := 0; i+phraseWords <= len(toks); i++ {
		words := make([]string, phraseWords)
		for j := 0; j < phraseWords; j++ {
			words[j] = toks[i+j].Lower
		}
		out = append(out, strings.Join(words, " "))
	}
	return out
}

var wordPattern = regexp.MustCompile(`[\p{L}][\p{L}'-]*|\d[\d.,]*`)
var sentenceEnd = regexp.MustCompile(`[.!?؟](\s|$)`)

// ExtractEntityCandidates returns runs of consecutive capitalized words of
// length >= 2 that are not sentence-initial. Numeric-only words break (but
// never start) a run.
func (n *Normalizer) ExtractEntityCandidates(text string) []string {
	words := wordPattern.FindAllStringIndex(text, -1)
	var candidates []string
	var run []string
	sentenceStart := true
	prevEnd := 0

	flush := func() {
		if len(run) >= 2 {
			candidates = append(candidates, strings.Join(run, " "))
		}
		run = nil
	}

	for _, loc := range words {
		start, end := loc[0], loc[1]
		word := text[start:end]

		if sentenceEnd.MatchString(text[prevEnd:start]) {
			sentenceStart = true
		}

		isNumeric := isNumericToken(word)
		isCapitalized := !isNumeric && isCapitalizedWord(word)

		if isCapitalized && !sentenceStart {
			run = append(run, word)
		} else {
			flush()
		}

		sentenceStart = false
		prevEnd = end
	}
	flush()
	return candidates
}

func isCapitalizedWord(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
