package source_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"

	"github.com/MrWong99/lexora/internal/source"
)

func TestDecode_PlainText(t *testing.T) {
	t.Parallel()

	got, err := source.Decode(strings.NewReader("\ufeffThanks so much!\r\nlol\r"), source.FormatText, "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "Thanks so much!\nlol\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode_SRT(t *testing.T) {
	t.Parallel()

	srt := "1\n00:00:01,000 --> 00:00:03,000\n<i>Let's go!</i>\n\n" +
		"2\n00:00:04,000 --> 00:00:06,500\n{\\an8}こんにちは、てぇてぇ\n2 lives left\n\n"
	got, err := source.Decode(strings.NewReader(srt), source.FormatSRT, "utf-8")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "Let's go!\nこんにちは、てぇてぇ\n2 lives left"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode_WebVTT(t *testing.T) {
	t.Parallel()

	vtt := "WEBVTT - stream archive\n\n" +
		"NOTE recorded live\nsecond note line\n\n" +
		"intro\n00:00.000 --> 00:02.000 align:start\n<v Host>Thanks &amp; welcome</v>\n\n" +
		"00:02.000 --> 00:04.000\n<c.yellow>gg</c> lol\n"
	got, err := source.Decode(strings.NewReader(vtt), source.FormatVTT, "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "Thanks & welcome\ngg lol"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode_Charsets(t *testing.T) {
	t.Parallel()

	const text = "こんにちは、草"
	tests := []struct {
		charset string
		encode  func(string) (string, error)
	}{
		{"shift_jis", japanese.ShiftJIS.NewEncoder().String},
		{"Shift_JIS", japanese.ShiftJIS.NewEncoder().String},
		{"euc-jp", japanese.EUCJP.NewEncoder().String},
	}
	for _, tt := range tests {
		t.Run(tt.charset, func(t *testing.T) {
			t.Parallel()
			raw, err := tt.encode(text)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := source.Decode(strings.NewReader(raw), source.FormatText, tt.charset)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != text {
				t.Errorf("got %q, want %q", got, text)
			}
		})
	}
}

func TestDecode_HTMLDropsRuby(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html><html><head><title>配信アーカイブ</title></head><body>
<nav><a href="/">ホーム</a></nav>
<article>
<h1>今日の配信</h1>
<p>今日の配信では<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>の読み方について長い時間をかけて話しました。視聴者のみなさん、本当にありがとうございました。</p>
<p>ゲームの最後のボスはとても強くて、何度も負けてしまいましたが、最後はみんなの応援のおかげでクリアできました。てぇてぇ瞬間もたくさんありましたね。</p>
<p>次回の配信は来週の土曜日の夜を予定しています。新しいゲームにも挑戦する予定なので、ぜひ見に来てください。よろしくお願いします。</p>
</article>
</body></html>`
	got, err := source.Decode(strings.NewReader(page), source.FormatHTML, "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(got, "漢字の読み方") {
		t.Errorf("base text missing: %q", got)
	}
	if strings.Contains(got, "かんじ") {
		t.Errorf("ruby reading kept: %q", got)
	}
	if !strings.Contains(got, "よろしくお願いします") {
		t.Errorf("article text truncated: %q", got)
	}
}

func TestStripRuby(t *testing.T) {
	t.Parallel()

	got := string(source.StripRuby([]byte(`<ruby>尊<RT class="x">とうと</RT></ruby>い`)))
	if got != "<ruby>尊</ruby>い" {
		t.Errorf("got %q", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	if _, err := source.Decode(strings.NewReader("x"), source.FormatText, "klingon-8"); !errors.Is(err, source.ErrUnknownCharset) {
		t.Errorf("charset err = %v", err)
	}
	if _, err := source.Decode(strings.NewReader("x"), "pdf", ""); !errors.Is(err, source.ErrUnknownFormat) {
		t.Errorf("format err = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want source.Format
	}{
		{"", source.FormatText},
		{".txt", source.FormatText},
		{"SRT", source.FormatSRT},
		{".vtt", source.FormatVTT},
		{"htm", source.FormatHTML},
	}
	for _, tt := range tests {
		got, err := source.ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := source.ParseFormat("docx"); !errors.Is(err, source.ErrUnknownFormat) {
		t.Errorf("docx err = %v", err)
	}
	if got := source.FormatFromPath("/vods/ep01.ja.vtt"); got != source.FormatVTT {
		t.Errorf("FormatFromPath = %q", got)
	}
	if got := source.FormatFromPath("notes.md"); got != source.FormatText {
		t.Errorf("FormatFromPath(md) = %q", got)
	}
}
