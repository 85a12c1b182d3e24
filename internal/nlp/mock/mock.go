// Package mock provides a test double for the nlp.Tagger interface.
//
// Tagger returns canned sentences so extractor heuristics can be exercised
// without loading a dictionary or a statistical model. [Sentence] builds a
// tagged sentence from a compact "surface/POS[/lemma[/reading]]" notation.
//
// Example:
//
//	text := "I gave up"
//	tg := &mock.Tagger{
//	    Lang:      types.English,
//	    Sentences: []nlp.Sentence{mock.Sentence(text, "I/PRON", "gave/VERB/give", "up/PART")},
//	}
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/pkg/types"
)

// Tagger is a mock implementation of nlp.Tagger.
type Tagger struct {
	mu sync.Mutex

	// Lang is returned by Language.
	Lang types.Language

	// Caps is returned by Capabilities. Zero means tokenise + POS.
	Caps nlp.Capability

	// Sentences is returned by Analyze when AnalyzeFunc is nil.
	Sentences []nlp.Sentence

	// AnalyzeFunc, if set, computes the Analyze result from the input text.
	AnalyzeFunc func(text string) ([]nlp.Sentence, error)

	// Err, if non-nil, is returned by Analyze.
	Err error

	// Calls records the text of every Analyze invocation in order.
	Calls []string
}

var _ nlp.Tagger = (*Tagger)(nil)

// Language implements nlp.Tagger.
func (t *Tagger) Language() types.Language { return t.Lang }

// Capabilities implements nlp.Tagger.
func (t *Tagger) Capabilities() nlp.Capability {
	if t.Caps == 0 {
		return nlp.CapTokenize | nlp.CapPOS
	}
	return t.Caps
}

// Analyze records the call and returns the configured result.
func (t *Tagger) Analyze(_ context.Context, text string) ([]nlp.Sentence, error) {
	t.mu.Lock()
	t.Calls = append(t.Calls, text)
	fn, sents, err := t.AnalyzeFunc, t.Sentences, t.Err
	t.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(text)
	}
	return sents, nil
}

// CallCount returns the number of Analyze invocations. Thread-safe.
func (t *Tagger) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// Sentence builds a sentence spanning all of text. Each spec is
// "surface/POS", optionally followed by "/lemma" and "/reading"; surfaces are
// located left to right so spans match text. A surface that cannot be found
// gets an empty span.
func Sentence(text string, specs ...string) nlp.Sentence {
	s := nlp.Sentence{Text: text, Span: types.Span{Start: 0, End: len(text)}}
	pos := 0
	for _, spec := range specs {
		parts := strings.Split(spec, "/")
		tok := nlp.Token{Text: parts[0], Lemma: strings.ToLower(parts[0]), Head: -1}
		if len(parts) > 1 {
			tok.POS = nlp.POS(parts[1])
			tok.Tag = parts[1]
		}
		if len(parts) > 2 && parts[2] != "" {
			tok.Lemma = parts[2]
		}
		if len(parts) > 3 {
			tok.Reading = parts[3]
		}
		if i := strings.Index(text[pos:], tok.Text); i >= 0 {
			tok.Span = types.Span{Start: pos + i, End: pos + i + len(tok.Text)}
			pos = tok.Span.End
		}
		s.Tokens = append(s.Tokens, tok)
	}
	return s
}
