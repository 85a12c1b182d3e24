// Package enrich implements the optional language-model stage that fills in
// translations and short learning notes for extracted vocabulary.
//
// The [Enricher] sends the ranked items, together with a slice of the
// transcript for context, to an [llm.Provider] and asks for a JSON array
// keyed by item index. Each call is time-boxed. Enrichment never removes,
// reorders or re-ranks items: it only fills blanks. Callers treat any error
// as "keep the pre-enrichment list".
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/lexora/pkg/provider/llm"
	"github.com/MrWong99/lexora/pkg/types"
)

const (
	defaultTemperature = 0.1
	defaultTimeout     = 10 * time.Second

	// maxContextRunes bounds the transcript excerpt sent with each request.
	maxContextRunes = 2000

	// tokensPerItem is the completion budget for one {"i","t","n"} entry.
	tokensPerItem = 48
	replyOverhead = 32
)

// ErrUnparseable is returned when the model output is not the expected JSON.
var ErrUnparseable = errors.New("enrich: unparseable response")

const systemPrompt = `You are a vocabulary assistant for learners of Japanese and English who study from live-stream transcripts.

For each numbered expression you receive:
- "t": a short, natural translation into the counterpart language (Japanese expressions into English, English expressions into Japanese).
- "n": at most one short learning note (nuance, register, or typical usage). Leave empty if there is nothing useful to add.

Rules:
- Do NOT invent new expressions, and do NOT change the given ones.
- Keep translations under eight words.
- Use the transcript excerpt only to disambiguate meaning.

Respond with ONLY a JSON object whose "items" key holds a JSON array in this exact format (no markdown, no prose):
{"items": [{"i": <index>, "t": "<translation>", "n": "<note>"}]}`

// llmEntry is one element of the expected JSON array.
type llmEntry struct {
	Index       int    `json:"i"`
	Translation string `json:"t"`
	Note        string `json:"n"`
}

// Option is a functional option for configuring an [Enricher].
type Option func(*Enricher)

// WithTemperature sets the LLM sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(e *Enricher) {
		e.temperature = temp
	}
}

// WithTimeout bounds each [Enricher.Enhance] call. Default: 10s. A
// non-positive value disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		e.timeout = d
	}
}

// Enricher uses an [llm.Provider] to add translations and notes to
// vocabulary items. It is safe for concurrent use.
type Enricher struct {
	llm         llm.Provider
	temperature float64
	timeout     time.Duration
}

// New returns an [Enricher] backed by provider.
func New(provider llm.Provider, opts ...Option) *Enricher {
	e := &Enricher{
		llm:         provider,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Timeout returns the per-call time bound.
func (e *Enricher) Timeout() time.Duration { return e.timeout }

// Enhance returns a copy of items in which empty translations are filled and
// model notes are appended to the learning notes. transcript provides
// context. The input slice is never modified.
//
// On timeout, provider failure or an unparseable response Enhance returns
// the original items alongside a non-nil error.
func (e *Enricher) Enhance(ctx context.Context, items []types.VocabularyItem, transcript string) ([]types.VocabularyItem, error) {
	if len(items) == 0 {
		return items, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := e.request(items, transcript)

	resp, err := e.llm.Complete(ctx, req)
	if err != nil {
		return items, fmt.Errorf("enrich: complete: %w", err)
	}
	if resp == nil {
		return items, ErrUnparseable
	}

	entries, err := parseResponse(resp.Content)
	if err != nil {
		return items, err
	}
	return apply(items, entries), nil
}

// request builds the completion call, sized to the model. The transcript
// excerpt is dropped when the prompt would not fit the context window.
func (e *Enricher) request(items []types.VocabularyItem, transcript string) llm.CompletionRequest {
	caps := e.llm.Capabilities()
	budget := tokensPerItem*len(items) + replyOverhead
	if caps.MaxOutputTokens > 0 {
		budget = min(budget, caps.MaxOutputTokens)
	}

	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildUserMessage(items, transcript)},
	}
	if caps.ContextWindow > 0 && llm.EstimateTokens(msgs)+budget > caps.ContextWindow {
		msgs[1].Content = buildUserMessage(items, "")
	}
	return llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     msgs[1:],
		Temperature:  e.temperature,
		MaxTokens:    budget,
		JSON:         true,
	}
}

func buildUserMessage(items []types.VocabularyItem, transcript string) string {
	var sb strings.Builder
	if excerpt := truncate(strings.TrimSpace(transcript), maxContextRunes); excerpt != "" {
		sb.WriteString("Transcript excerpt:\n")
		sb.WriteString(excerpt)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Expressions:\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %q (%s", i, it.SourceText, it.SourceLanguage)
		if it.Reading != "" {
			fmt.Fprintf(&sb, ", reading %s", it.Reading)
		}
		if it.TranslationText != "" {
			fmt.Fprintf(&sb, ", known meaning %q", it.TranslationText)
		}
		sb.WriteString(")")
		if it.Context != "" && it.Context != it.SourceText {
			fmt.Fprintf(&sb, " used in: %q", it.Context)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// parseResponse unmarshals the model output, tolerating markdown code fences
// and a wrapping object of the form {"items": [...]}.
func parseResponse(content string) ([]llmEntry, error) {
	cleaned := stripMarkdown(content)

	var entries []llmEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Items []llmEntry `json:"items"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if wrapped.Items == nil {
		return nil, ErrUnparseable
	}
	return wrapped.Items, nil
}

func apply(items []types.VocabularyItem, entries []llmEntry) []types.VocabularyItem {
	out := make([]types.VocabularyItem, len(items))
	copy(out, items)
	for _, en := range entries {
		if en.Index < 0 || en.Index >= len(out) {
			continue
		}
		it := &out[en.Index]
		if t := strings.TrimSpace(en.Translation); t != "" && it.TranslationText == "" {
			it.TranslationText = t
		}
		if n := strings.TrimSpace(en.Note); n != "" {
			notes := make([]string, 0, len(it.LearningNotes)+1)
			notes = append(notes, it.LearningNotes...)
			it.LearningNotes = append(notes, n)
		}
	}
	return out
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models wrap around JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
