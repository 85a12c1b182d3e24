package kagome_test

import (
	"context"
	"testing"

	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/internal/nlp/kagome"
	"github.com/MrWong99/lexora/pkg/types"
)

func TestAnalyze_SpansAndFeatures(t *testing.T) {
	t.Parallel()

	tg, err := kagome.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "東京タワーを見ています。ありがとう"
	sents, err := tg.Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(sents) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sents))
	}

	var sawNoun, sawVerb bool
	for _, s := range sents {
		if text[s.Span.Start:s.Span.End] != s.Text {
			t.Errorf("sentence span covers %q, want %q", text[s.Span.Start:s.Span.End], s.Text)
		}
		for _, tok := range s.Tokens {
			if got := text[tok.Span.Start:tok.Span.End]; got != tok.Text {
				t.Errorf("token span covers %q, want %q", got, tok.Text)
			}
			if tok.POS == nlp.Noun || tok.POS == nlp.ProperNoun {
				sawNoun = true
			}
			if tok.POS == nlp.Verb && tok.Lemma == "見る" {
				sawVerb = true
			}
		}
	}
	if !sawNoun || !sawVerb {
		t.Errorf("noun=%v verb=%v in %+v", sawNoun, sawVerb, sents)
	}
}

func TestExtractor_WithKagome(t *testing.T) {
	t.Parallel()

	tg, err := kagome.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e := nlp.New(nlp.WithTagger(tg))
	if !e.Available(types.Japanese) {
		t.Fatal("kagome tagger not available")
	}

	text := "東京タワーを見ています。"
	cands, err := e.Extract(context.Background(), text, types.Japanese, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, c := range cands {
		if text[c.Span.Start:c.Span.End] != c.Text {
			t.Errorf("candidate %q has span covering %q", c.Text, text[c.Span.Start:c.Span.End])
		}
		if c.Method != types.MethodNLP {
			t.Errorf("method = %q", c.Method)
		}
	}
}
