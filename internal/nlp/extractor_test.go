package nlp_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/internal/nlp/mock"
	"github.com/MrWong99/lexora/pkg/types"
)

func find(cands []types.Candidate, text string) (types.Candidate, bool) {
	for _, c := range cands {
		if c.Text == text {
			return c, true
		}
	}
	return types.Candidate{}, false
}

func english(sents ...nlp.Sentence) *mock.Tagger {
	return &mock.Tagger{Lang: types.English, Sentences: sents}
}

func TestExtract_PhrasalVerbAndCollocation(t *testing.T) {
	t.Parallel()

	text := "I gave up on that boss fight."
	tg := english(mock.Sentence(text,
		"I/PRON", "gave/VERB/give", "up/PART", "on/ADP", "that/DET", "boss/NOUN", "fight/NOUN", "./PUNCT"))
	e := nlp.New(nlp.WithTagger(tg))

	cands, err := e.Extract(context.Background(), text, types.English, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	pv, ok := find(cands, "gave up")
	if !ok {
		t.Fatalf("phrasal verb not found in %+v", cands)
	}
	if pv.Category != types.CategoryPhrasalVerbs || pv.Method != types.MethodNLP {
		t.Errorf("phrasal = %+v", pv)
	}
	if len(pv.Notes) != 1 || pv.Notes[0] != "Phrasal verb: give + up" {
		t.Errorf("notes = %v", pv.Notes)
	}
	if pv.PriorityWeight != 5 {
		t.Errorf("phrasal priority = %d, want 5", pv.PriorityWeight)
	}
	if pv.Context != text {
		t.Errorf("context = %q", pv.Context)
	}

	col, ok := find(cands, "boss fight")
	if !ok {
		t.Fatalf("collocation not found in %+v", cands)
	}
	if col.Category != types.CategoryGamingExpressions {
		t.Errorf("category = %q, want gaming keyword promotion", col.Category)
	}
	if col.PriorityWeight != 6 {
		t.Errorf("collocation priority = %d, want 6", col.PriorityWeight)
	}
	if !slices.Contains(col.Tags, nlp.KindCollocation) {
		t.Errorf("tags = %v", col.Tags)
	}

	for i := 1; i < len(cands); i++ {
		if cands[i].Span.Start < cands[i-1].Span.Start {
			t.Errorf("candidates not ordered by position: %+v", cands)
		}
	}
}

func TestExtract_QualityGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		specs []string
		opts  []nlp.Option
	}{
		{
			name:  "determiner plus noun",
			text:  "the game",
			specs: []string{"the/DET", "game/NOUN"},
		},
		{
			name:  "below minimum length",
			text:  "give up",
			specs: []string{"give/VERB", "up/PART"},
			opts:  []nlp.Option{nlp.WithMinRunes(types.English, 10)},
		},
		{
			name:  "only skip words",
			text:  "good first",
			specs: []string{"good/ADJ", "first/NOUN"},
		},
		{
			name:  "low cohesion",
			text:  "red car. car car car car",
			specs: []string{"red/ADJ", "car/NOUN", "./PUNCT", "car/NOUN", "car/VERB", "car/ADV", "car/ADV"},
			opts:  []nlp.Option{nlp.WithMinCohesion(0.5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tg := english(mock.Sentence(tt.text, tt.specs...))
			e := nlp.New(append([]nlp.Option{nlp.WithTagger(tg)}, tt.opts...)...)
			cands, err := e.Extract(context.Background(), tt.text, types.English, nil)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(cands) != 0 {
				t.Errorf("expected no candidates, got %+v", cands)
			}
		})
	}
}

func TestExtract_Idioms(t *testing.T) {
	t.Parallel()

	text := "That was a piece of cake."
	tg := english(mock.Sentence(text,
		"That/DET", "was/VERB/be", "a/DET", "piece/NOUN", "of/ADP", "cake/NOUN", "./PUNCT"))
	cands, err := nlp.New(nlp.WithTagger(tg)).Extract(context.Background(), text, types.English, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	c, ok := find(cands, "piece of cake")
	if !ok {
		t.Fatalf("idiom not found in %+v", cands)
	}
	if c.Meaning == "" || c.PriorityWeight != 6 || c.Source != "nlp."+nlp.KindIdiom {
		t.Errorf("idiom = %+v", c)
	}
}

func TestExtract_Japanese(t *testing.T) {
	t.Parallel()

	text := "東京タワーを見ています。やったー"
	tg := &mock.Tagger{
		Lang: types.Japanese,
		Sentences: []nlp.Sentence{mock.Sentence(text,
			"東京/NOUN/東京/トウキョウ", "タワー/NOUN/タワー/タワー", "を/ADP",
			"見/VERB/見る/ミ", "て/PART/て/テ", "い/AUX/いる/イ", "ます/AUX/ます/マス", "。/PUNCT",
			"やっ/VERB/やる/ヤッ", "た/AUX/た/タ", "ー/SYM"),
		},
	}
	cands, err := nlp.New(nlp.WithTagger(tg)).Extract(context.Background(), text, types.Japanese, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	tests := []struct {
		text     string
		reading  string
		category types.Category
		kind     string
	}{
		{"東京タワー", "とうきょうたわー", types.CategoryOther, nlp.KindCompound},
		{"見ています", "みています", types.CategoryCommonGrammar, nlp.KindTeForm},
		{"やったー", "やったー", types.CategoryGamingExpressions, nlp.KindIdiom},
	}
	for _, tt := range tests {
		c, ok := find(cands, tt.text)
		if !ok {
			t.Errorf("%q not found in %+v", tt.text, cands)
			continue
		}
		if c.Reading != tt.reading {
			t.Errorf("%q reading = %q, want %q", tt.text, c.Reading, tt.reading)
		}
		if c.Category != tt.category {
			t.Errorf("%q category = %q, want %q", tt.text, c.Category, tt.category)
		}
		if !slices.Contains(c.Tags, tt.kind) {
			t.Errorf("%q tags = %v, want %s", tt.text, c.Tags, tt.kind)
		}
		if c.Language != types.Japanese {
			t.Errorf("%q language = %q", tt.text, c.Language)
		}
	}
}

func TestExtract_RegionsShiftSpans(t *testing.T) {
	t.Parallel()

	text := "ありがとう。I gave up."
	tg := &mock.Tagger{
		Lang: types.English,
		AnalyzeFunc: func(s string) ([]nlp.Sentence, error) {
			return []nlp.Sentence{mock.Sentence(s, "I/PRON", "gave/VERB/give", "up/PART", "./PUNCT")}, nil
		},
	}
	start := len("ありがとう。")
	region := []types.Span{{Start: start, End: len(text)}}

	cands, err := nlp.New(nlp.WithTagger(tg)).Extract(context.Background(), text, types.English, region)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(tg.Calls) != 1 || tg.Calls[0] != "I gave up." {
		t.Errorf("Analyze calls = %q", tg.Calls)
	}
	c, ok := find(cands, "gave up")
	if !ok {
		t.Fatalf("phrasal verb not found in %+v", cands)
	}
	if got := text[c.Span.Start:c.Span.End]; got != "gave up" {
		t.Errorf("span covers %q", got)
	}
}

func TestExtract_Unavailable(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name string
		e    *nlp.Extractor
		want error
	}{
		{"no tagger", nlp.New(), nlp.ErrUnavailable},
		{"null tagger", nlp.New(nlp.WithTagger(nlp.Null{Lang: types.English})), nlp.ErrUnavailable},
		{"tagger reports unavailable", nlp.New(nlp.WithTagger(&mock.Tagger{Lang: types.English, Err: nlp.ErrUnavailable})), nlp.ErrUnavailable},
		{"tagger fails", nlp.New(nlp.WithTagger(&mock.Tagger{Lang: types.English, Err: boom})), boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.e.Extract(context.Background(), "some text", types.English, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if nlp.New().Available(types.Japanese) {
		t.Error("Available reported true without a tagger")
	}
}

func TestExtract_LongTranscriptStaysFast(t *testing.T) {
	t.Parallel()

	const (
		chunk = "no cap fr. "
		n     = 20000
	)
	text := strings.Repeat(chunk, n)
	tg := &mock.Tagger{
		Lang: types.English,
		AnalyzeFunc: func(text string) ([]nlp.Sentence, error) {
			sents := make([]nlp.Sentence, 0, n)
			for off := 0; off+len(chunk) <= len(text); off += len(chunk) {
				tok := func(s string, rel int, pos nlp.POS) nlp.Token {
					return nlp.Token{Text: s, Lemma: s, POS: pos, Head: -1,
						Span: types.Span{Start: off + rel, End: off + rel + len(s)}}
				}
				sents = append(sents, nlp.Sentence{
					Text: "no cap fr.",
					Span: types.Span{Start: off, End: off + len("no cap fr.")},
					Tokens: []nlp.Token{
						tok("no", 0, nlp.Adverb), tok("cap", 3, nlp.Noun),
						tok("fr", 7, nlp.Adverb), tok(".", 9, nlp.Punctuation),
					},
				})
			}
			return sents, nil
		},
	}

	start := time.Now()
	cands, err := nlp.New(nlp.WithTagger(tg)).Extract(context.Background(), text, types.English, nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Extract over %d bytes took %s", len(text), elapsed)
	}

	var idioms int
	for _, c := range cands {
		if c.Source != "nlp."+nlp.KindIdiom {
			continue
		}
		idioms++
		if c.Context != "no cap fr." {
			t.Fatalf("context = %q, want the enclosing sentence", c.Context)
		}
	}
	if idioms != n {
		t.Errorf("idioms = %d, want %d", idioms, n)
	}
}
