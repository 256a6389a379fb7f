package nlp

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

// maxLemmaHops bounds the walk to a lemma fixed point.
const maxLemmaHops = 4

// quoteRunes are trimmed from token edges; apostrophes also mark clitics.
const (
	quoteRunes  = "'\"`‘’“”"
	apostrophes = "'‘’"
)

// punctTags are the Penn Treebank tags prose assigns to punctuation.
var punctTags = map[string]struct{}{
	".": {}, ",": {}, ":": {}, "(": {}, ")": {}, "``": {}, "''": {},
	"-LRB-": {}, "-RRB-": {}, "HYPH": {}, "NFP": {},
}

// inflectedTags are the tags whose tokens go through the lemma dictionary.
// Other tokens, gerunds included, are already in base form.
var inflectedTags = map[string]struct{}{
	"NNS": {},
	"VB":  {}, "VBD": {}, "VBN": {}, "VBP": {}, "VBZ": {},
	"JJR": {}, "JJS": {}, "RBR": {}, "RBS": {},
}

// Normalize lowercases text, drops stopwords and punctuation and returns
// the lemmas of the remaining tokens joined by single spaces, in order.
// Text that is empty or holds only stopwords and punctuation yields "".
func (m *Model) Normalize(text string) (string, error) {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return "", nil
	}

	doc, err := m.analyze(lowered)
	if err != nil {
		return "", fmt.Errorf("analyze text: %w", err)
	}

	tokens := doc.Tokens()
	lemmas := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isPunct(tok) {
			continue
		}
		word, ok := m.contentWord(tok.Text)
		if !ok {
			continue
		}
		lemma := m.lemmaFor(word, tok.Tag)
		// "went" -> "go": the output never carries a stopword
		if lemma != word && m.IsStopWord(lemma) {
			continue
		}
		lemmas = append(lemmas, lemma)
	}
	return strings.Join(lemmas, " "), nil
}

// IsStopWord reports whether word is in the stopword table.
func (m *Model) IsStopWord(word string) bool {
	_, ok := m.stopWords[strings.ToLower(word)]
	return ok
}

// newDocument is replaced in tests.
var newDocument = prose.NewDocument

func (m *Model) analyze(text string) (*prose.Document, error) {
	return newDocument(text,
		prose.UsingModel(m.tagger),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
}

// contentWord strips edge quotes and a trailing clitic the tokenizer left
// attached ("she'd"), and reports false for what remains if it is a
// stopword or empty.
func (m *Model) contentWord(text string) (string, bool) {
	if m.IsStopWord(text) {
		return "", false
	}
	word := strings.Trim(text, quoteRunes)
	if i := strings.LastIndexAny(word, apostrophes); i > 0 {
		switch {
		case i > 1 && word[i-1] == 'n' && m.IsStopWord(word[i-1:]):
			word = word[:i-1]
		case m.IsStopWord(word[i:]):
			word = word[:i]
		}
	}
	if word == "" || m.IsStopWord(word) {
		return "", false
	}
	return word, true
}

// lemmaFor maps an inflected token to its dictionary base form. Short
// "-s" forms are mostly acronyms ("aws", "cs") and "-ics" nouns are
// singular, so both keep their surface form, as does a plural the
// dictionary also lists as a base form.
func (m *Model) lemmaFor(word, tag string) string {
	if _, ok := inflectedTags[tag]; !ok {
		return word
	}
	if (tag == "NNS" || tag == "VBZ") && utf8.RuneCountInString(word) <= 3 {
		return word
	}
	if tag == "NNS" && (strings.HasSuffix(word, "ics") || slices.Contains(m.lemmatizer.Lemmas(word), word)) {
		return word
	}
	lemma := m.lemma(word)
	if utf8.RuneCountInString(lemma) < 2 {
		return word
	}
	return lemma
}

// lemma follows the dictionary until the form maps to itself.
func (m *Model) lemma(word string) string {
	cur := word
	for i := 0; i < maxLemmaHops; i++ {
		next := strings.ToLower(m.lemmatizer.Lemma(cur))
		if next == cur {
			break
		}
		cur = next
	}
	return strings.Join(strings.Fields(cur), "")
}

func isPunct(tok prose.Token) bool {
	if _, ok := punctTags[tok.Tag]; ok {
		return true
	}
	for _, r := range tok.Text {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
