// Package source turns transcript files into plain text for extraction.
//
// Supported formats are plain text, SubRip (.srt), WebVTT (.vtt) and HTML
// pages. Subtitle cue numbers, timing lines and inline markup are removed;
// HTML is reduced to its main readable text with ruby readings dropped so
// that furigana is not extracted twice. Input may be UTF-8, Shift_JIS or
// EUC-JP.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Format names a transcript file format.
type Format string

const (
	FormatText Format = "text"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatHTML Format = "html"
)

var (
	// ErrUnknownFormat is returned for a format Decode cannot read.
	ErrUnknownFormat = errors.New("source: unknown format")

	// ErrUnknownCharset is returned for an unsupported character set.
	ErrUnknownCharset = errors.New("source: unknown charset")
)

// ParseFormat maps a format name or file extension to a Format. The empty
// string is plain text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "srt", "subrip":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath guesses the format from a file name. Unknown extensions are
// plain text.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatText
	}
	return f
}

// charsets lists the supported encodings by lower-cased name.
var charsets = map[string]encoding.Encoding{
	"":          encoding.Nop,
	"utf-8":     encoding.Nop,
	"utf8":      encoding.Nop,
	"shift_jis": japanese.ShiftJIS,
	"shift-jis": japanese.ShiftJIS,
	"sjis":      japanese.ShiftJIS,
	"cp932":     japanese.ShiftJIS,
	"euc-jp":    japanese.EUCJP,
	"eucjp":     japanese.EUCJP,
}

// Decode reads r in the given format and charset and returns the transcript
// text.
func Decode(r io.Reader, format Format, charset string) (string, error) {
	enc, ok := charsets[strings.ToLower(strings.TrimSpace(charset))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	data, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("source: decode %s: %w", charset, err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	switch format {
	case "", FormatText:
		return normalizeNewlines(string(data)), nil
	case FormatSRT, FormatVTT:
		return subtitles(data)
	case FormatHTML:
		return html(data)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// ── Subtitles ────────────────────────────────────────────────────────────────

var (
	reCueTags = regexp.MustCompile(`<[^>]*>`)
	reASSTags = regexp.MustCompile(`\{\\[^}]*\}`)
)

// subtitles keeps the cue text of SRT and WebVTT files, one line per caption
// line. Everything in a block up to and including its timing line (cue
// number or identifier) is dropped, as are blocks without a timing line
// (WEBVTT header, NOTE, STYLE, REGION).
func subtitles(data []byte) (string, error) {
	var (
		out   []string
		block []string
	)
	flush := func() {
		for i, line := range block {
			if !strings.Contains(line, "-->") {
				continue
			}
			for _, text := range block[i+1:] {
				text = reASSTags.ReplaceAllString(reCueTags.ReplaceAllString(text, ""), "")
				if text = strings.TrimSpace(unescapeEntities(text)); text != "" {
					out = append(out, text)
				}
			}
			break
		}
		block = block[:0]
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("source: read cues: %w", err)
	}
	flush()
	return strings.Join(out, "\n"), nil
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&lrm;", "",
	"&rlm;", "",
)

func unescapeEntities(s string) string { return entityReplacer.Replace(s) }

// ── HTML ─────────────────────────────────────────────────────────────────────

var (
	reRubyText  = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRubyParen = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// StripRuby removes <rt> and <rp> elements so that only the base text of
// ruby annotations remains.
func StripRuby(content []byte) []byte {
	return reRubyParen.ReplaceAll(reRubyText.ReplaceAll(content, nil), nil)
}

var pageURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/transcript"}

func html(data []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(StripRuby(data)), pageURL)
	if err != nil {
		return "", fmt.Errorf("source: readability: %w", err)
	}
	return strings.TrimSpace(normalizeNewlines(article.TextContent)), nil
}
