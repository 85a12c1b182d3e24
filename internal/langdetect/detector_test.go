package langdetect_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/pkg/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		want     types.Language
		minConf  float64
		wantZero bool
	}{
		{name: "japanese greeting", text: "こんにちは、てぇてぇですね", want: types.Japanese, minConf: 0.3},
		{name: "english sentence", text: "Thanks so much! Let's go check out this game, lol", want: types.English, minConf: 0.5},
		{name: "empty", text: "", want: types.Mixed, wantZero: true},
		{name: "whitespace only", text: "  \n\t ", want: types.Mixed, wantZero: true},
		{name: "symbols only", text: "!!! ??? 123", want: types.Mixed, wantZero: true},
		{name: "japanese wins before latin", text: "hello 草草草", want: types.Japanese, minConf: 0.3},
		{name: "digits dilute latin", text: "go 1234567", want: types.Mixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := langdetect.Detect(tt.text)
			if got.Language != tt.want {
				t.Errorf("Language = %q, want %q (ja=%.2f en=%.2f)", got.Language, tt.want, got.JapaneseRatio, got.EnglishRatio)
			}
			if tt.wantZero && got.Confidence != 0 {
				t.Errorf("Confidence = %v, want 0", got.Confidence)
			}
			if got.Confidence < tt.minConf {
				t.Errorf("Confidence = %v, want >= %v", got.Confidence, tt.minConf)
			}
		})
	}
}

func TestDetect_ConfidenceIsWinningRatio(t *testing.T) {
	t.Parallel()

	d := langdetect.Detect("ありがとう")
	if d.Language != types.Japanese || d.Confidence != d.JapaneseRatio || d.Confidence != 1 {
		t.Errorf("got %+v", d)
	}

	d = langdetect.Detect("hello")
	if d.Language != types.English || d.Confidence != d.EnglishRatio || d.Confidence != 1 {
		t.Errorf("got %+v", d)
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()

	text := "Good game! 今日は楽しかった。\n  see you"
	segs := langdetect.Segments(text)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segs), segs)
	}

	wantLang := []types.Language{types.English, types.Japanese, types.English}
	for i, seg := range segs {
		if seg.Detection.Language != wantLang[i] {
			t.Errorf("segment %d (%q) language = %q, want %q", i, seg.Text, seg.Detection.Language, wantLang[i])
		}
		if got := text[seg.Span.Start:seg.Span.End]; got != seg.Text {
			t.Errorf("segment %d span text = %q, want %q", i, got, seg.Text)
		}
	}
}

func TestSegments_Empty(t *testing.T) {
	t.Parallel()

	if segs := langdetect.Segments("   "); len(segs) != 0 {
		t.Errorf("got %d segments for blank input", len(segs))
	}
}

func TestSentenceAt(t *testing.T) {
	t.Parallel()

	text := "Thanks so much! Let's go check out this game, lol\nnext line"
	start := strings.Index(text, "check out")
	got := langdetect.SentenceAt(text, types.Span{Start: start, End: start + len("check out")})
	if got != "Let's go check out this game, lol" {
		t.Errorf("SentenceAt = %q", got)
	}

	ja := "こんにちは。てぇてぇですね。またね"
	start = strings.Index(ja, "てぇてぇ")
	got = langdetect.SentenceAt(ja, types.Span{Start: start, End: start + len("てぇてぇ")})
	if got != "てぇてぇですね。" {
		t.Errorf("SentenceAt = %q", got)
	}

	if got := langdetect.SentenceAt("abc", types.Span{Start: 2, End: 9}); got != "" {
		t.Errorf("out of range span should yield empty context, got %q", got)
	}
}

func TestSentenceAt_LongSentenceIsWindowed(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 100) + "target " + strings.Repeat("word ", 100)
	start := strings.Index(text, "target")
	got := langdetect.SentenceAt(text, types.Span{Start: start, End: start + len("target")})
	if !strings.Contains(got, "target") {
		t.Errorf("window %q lost the span", got)
	}
	if n := len([]rune(got)); n > 160 {
		t.Errorf("window length = %d runes, want <= 160", n)
	}
}

func TestSentences_At(t *testing.T) {
	t.Parallel()

	text := "Hi! Thanks so much.\n  ready?  配信です。またね"
	idx := langdetect.IndexSentences(text)
	span := func(s string) types.Span {
		i := strings.Index(text, s)
		return types.Span{Start: i, End: i + len(s)}
	}
	tests := []struct {
		span types.Span
		want string
	}{
		{span("Hi"), "Hi!"},
		{span("Thanks"), "Thanks so much."},
		{span("ready"), "ready?"},
		{span("配信"), "配信です。"},
		{span("またね"), "またね"},
		{span("much.\n  ready"), "Thanks so much.\n  ready?"},
		{types.Span{Start: 5, End: 2}, ""},
	}
	for _, tt := range tests {
		if got := idx.At(tt.span); got != tt.want {
			t.Errorf("At(%+v) = %q, want %q", tt.span, got, tt.want)
		}
		if got := langdetect.SentenceAt(text, tt.span); got != tt.want {
			t.Errorf("SentenceAt(%+v) = %q, want %q", tt.span, got, tt.want)
		}
	}
}

func TestSentences_ManyLookupsInOneLongSentence(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 200000)
	idx := langdetect.IndexSentences(text)
	start := time.Now()
	for i := 0; i+4 <= len(text); i += 5 {
		got := idx.At(types.Span{Start: i, End: i + 4})
		if !strings.Contains(got, "word") {
			t.Fatalf("At(%d) = %q", i, got)
		}
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("200000 lookups took %s", elapsed)
	}
}

func TestToHiragana(t *testing.T) {
	t.Parallel()

	if got := langdetect.ToHiragana("トウキョウタワー abc"); got != "とうきょうたわー abc" {
		t.Errorf("ToHiragana = %q", got)
	}
}
