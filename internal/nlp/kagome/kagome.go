// Package kagome implements a Japanese nlp.Tagger on top of the kagome
// morphological analyser with the IPA dictionary.
package kagome

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/pkg/types"
)

// Tagger analyses Japanese text. Safe for concurrent use.
type Tagger struct {
	t *tokenizer.Tokenizer
}

var _ nlp.Tagger = (*Tagger)(nil)

// New loads the IPA dictionary. Loading takes a noticeable fraction of a
// second; create one Tagger per process.
func New() (*Tagger, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("kagome: load dictionary: %w", err)
	}
	return &Tagger{t: t}, nil
}

// Language implements nlp.Tagger.
func (*Tagger) Language() types.Language { return types.Japanese }

// Capabilities implements nlp.Tagger.
func (*Tagger) Capabilities() nlp.Capability { return nlp.CapTokenize | nlp.CapPOS }

// Analyze implements nlp.Tagger. Sentences are split on Japanese and ASCII
// terminators before tokenisation.
func (tg *Tagger) Analyze(ctx context.Context, text string) ([]nlp.Sentence, error) {
	var out []nlp.Sentence
	for _, seg := range langdetect.Segments(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := nlp.Sentence{Text: seg.Text, Span: seg.Span}
		pos := seg.Span.Start
		for _, kt := range tg.t.Tokenize(seg.Text) {
			if kt.Class == tokenizer.DUMMY || strings.TrimSpace(kt.Surface) == "" {
				continue
			}
			tok := convert(kt)
			if i := strings.Index(text[pos:], kt.Surface); i >= 0 {
				tok.Span = types.Span{Start: pos + i, End: pos + i + len(kt.Surface)}
				pos = tok.Span.End
			}
			s.Tokens = append(s.Tokens, tok)
		}
		if len(s.Tokens) > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

func convert(kt tokenizer.Token) nlp.Token {
	features := kt.POS()
	tok := nlp.Token{
		Text:  kt.Surface,
		Lemma: kt.Surface,
		POS:   mapPOS(features),
		Tag:   strings.Join(features, ","),
		Head:  -1,
	}
	if base, ok := kt.BaseForm(); ok && base != "*" {
		tok.Lemma = base
	}
	if r, ok := kt.Reading(); ok && r != "*" {
		tok.Reading = r
	}
	return tok
}

// mapPOS folds IPA part-of-speech features onto the universal tag set.
func mapPOS(f []string) nlp.POS {
	if len(f) == 0 {
		return nlp.OtherPOS
	}
	sub := ""
	if len(f) > 1 {
		sub = f[1]
	}
	switch f[0] {
	case "名詞":
		switch sub {
		case "数":
			return nlp.Numeral
		case "代名詞":
			return nlp.Pronoun
		case "固有名詞":
			return nlp.ProperNoun
		case "非自立":
			return nlp.OtherPOS
		}
		return nlp.Noun
	case "動詞":
		if sub == "非自立" || sub == "接尾" {
			return nlp.Auxiliary
		}
		return nlp.Verb
	case "形容詞":
		if sub == "非自立" || sub == "接尾" {
			return nlp.Auxiliary
		}
		return nlp.Adjective
	case "副詞":
		return nlp.Adverb
	case "連体詞":
		return nlp.Determiner
	case "接続詞":
		return nlp.Conjunction
	case "助詞":
		if sub == "格助詞" {
			return nlp.Adposition
		}
		return nlp.Particle
	case "助動詞":
		return nlp.Auxiliary
	case "感動詞", "フィラー":
		return nlp.Interjection
	case "記号":
		if sub == "一般" {
			return nlp.Symbol
		}
		return nlp.Punctuation
	}
	return nlp.OtherPOS
}
