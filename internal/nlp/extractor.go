package nlp

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball"

	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/pkg/types"
)

// Defaults for the candidate quality gate.
const (
	DefaultMinRunesEnglish  = 5
	DefaultMinRunesJapanese = 3
	DefaultMinCohesion      = 0.3
)

// Heuristic names, used as candidate tags and sources.
const (
	KindPhrasal     = "phrasal_verb"
	KindCollocation = "collocation"
	KindCompound    = "compound_noun"
	KindTeForm      = "te_form"
	KindIdiom       = "idiom"
)

const basePriority = 4

var kindBonus = map[string]int{
	KindIdiom:       2,
	KindPhrasal:     1,
	KindCollocation: 1,
	KindCompound:    1,
	KindTeForm:      1,
}

// Extractor turns tagger output into vocabulary candidates.
type Extractor struct {
	taggers     map[types.Language]Tagger
	minRunes    map[types.Language]int
	minCohesion float64
}

// Option configures an [Extractor].
type Option func(*Extractor)

// WithTagger registers t for its language, replacing any previous tagger.
func WithTagger(t Tagger) Option {
	return func(e *Extractor) {
		if t != nil {
			e.taggers[t.Language()] = t
		}
	}
}

// WithMinRunes sets the minimum candidate length, in characters, for lang.
func WithMinRunes(lang types.Language, n int) Option {
	return func(e *Extractor) { e.minRunes[lang] = n }
}

// WithMinCohesion sets the minimum Dice coefficient two words must reach to
// form a collocation.
func WithMinCohesion(v float64) Option {
	return func(e *Extractor) { e.minCohesion = v }
}

// New creates an Extractor. Without [WithTagger] every call to
// [Extractor.Extract] returns [ErrUnavailable].
func New(opts ...Option) *Extractor {
	e := &Extractor{
		taggers: make(map[types.Language]Tagger),
		minRunes: map[types.Language]int{
			types.English:  DefaultMinRunesEnglish,
			types.Japanese: DefaultMinRunesJapanese,
		},
		minCohesion: DefaultMinCohesion,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Available reports whether a backend able to tokenise and tag lang is
// registered.
func (e *Extractor) Available(lang types.Language) bool {
	t, ok := e.taggers[lang]
	return ok && t.Capabilities().Has(CapTokenize|CapPOS)
}

// Extract analyses the regions of text with the backend for lang and returns
// candidates whose spans index into text. A nil regions slice analyses the
// whole text. The error is [ErrUnavailable] when no backend can serve lang.
func (e *Extractor) Extract(ctx context.Context, text string, lang types.Language, regions []types.Span) ([]types.Candidate, error) {
	if !e.Available(lang) {
		return nil, ErrUnavailable
	}
	t := e.taggers[lang]
	if regions == nil {
		regions = []types.Span{{Start: 0, End: len(text)}}
	}

	var sents []Sentence
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := t.Analyze(ctx, text[r.Start:r.End])
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return nil, ErrUnavailable
			}
			return nil, fmt.Errorf("nlp: analyze %s: %w", lang, err)
		}
		for _, s := range got {
			sents = append(sents, shift(s, r.Start))
		}
	}

	a := &analysis{
		e:     e,
		text:  text,
		lang:  lang,
		deps:  t.Capabilities().Has(CapDependency),
		sents: sents,
		index: langdetect.IndexSentences(text),
		seen:  make(map[types.Span]bool),
	}
	a.countStems()
	a.indexTokens()

	for _, s := range sents {
		if lang == types.Japanese {
			a.japanese(s.Tokens)
		} else {
			a.english(s.Tokens)
		}
	}
	for _, r := range regions {
		a.idioms(r)
	}

	slices.SortStableFunc(a.out, func(x, y types.Candidate) int {
		return cmp.Or(cmp.Compare(x.Span.Start, y.Span.Start), cmp.Compare(x.Span.End, y.Span.End))
	})
	return a.out, nil
}

func shift(s Sentence, off int) Sentence {
	s.Span.Start += off
	s.Span.End += off
	toks := make([]Token, len(s.Tokens))
	for i, tok := range s.Tokens {
		tok.Span.Start += off
		tok.Span.End += off
		toks[i] = tok
	}
	s.Tokens = toks
	return s
}

// analysis holds the state of one Extract call.
type analysis struct {
	e     *Extractor
	text  string
	lang  types.Language
	deps  bool
	sents []Sentence
	index *langdetect.Sentences
	toks  []Token // located tokens of sents, by start

	stems map[string]int
	pairs map[[2]string]int

	seen map[types.Span]bool
	out  []types.Candidate
}

func (a *analysis) stem(tok Token) string {
	w := strings.ToLower(tok.Lemma)
	if w == "" {
		w = strings.ToLower(tok.Text)
	}
	if a.lang != types.English {
		return w
	}
	if s, err := snowball.Stem(w, "english", true); err == nil && s != "" {
		return s
	}
	return w
}

func (a *analysis) countStems() {
	a.stems = make(map[string]int)
	a.pairs = make(map[[2]string]int)
	for _, s := range a.sents {
		prev := ""
		for _, tok := range s.Tokens {
			if tok.POS == Punctuation || tok.POS == Symbol {
				prev = ""
				continue
			}
			st := a.stem(tok)
			a.stems[st]++
			if prev != "" {
				a.pairs[[2]string{prev, st}]++
			}
			prev = st
		}
	}
}

// cohesion is the Dice coefficient of two adjacent words across the analysed
// text.
func (a *analysis) cohesion(x, y Token) float64 {
	sx, sy := a.stem(x), a.stem(y)
	total := a.stems[sx] + a.stems[sy]
	if total == 0 {
		return 0
	}
	return 2 * float64(a.pairs[[2]string{sx, sy}]) / float64(total)
}

func lemma(tok Token) string {
	if tok.Lemma != "" {
		return strings.ToLower(tok.Lemma)
	}
	return strings.ToLower(tok.Text)
}

func located(toks []Token) bool {
	for _, t := range toks {
		if t.Span.End <= t.Span.Start {
			return false
		}
	}
	return len(toks) > 0
}

// ── English ──────────────────────────────────────────────────────────────

func (a *analysis) english(toks []Token) {
	for i, tok := range toks {
		if tok.POS == Verb {
			a.phrasal(toks, i)
			a.verbObject(toks, i)
		}
		if i+1 >= len(toks) {
			continue
		}
		next := toks[i+1]
		isNoun := next.POS == Noun || next.POS == ProperNoun
		switch {
		case tok.POS == Adjective && isNoun:
			a.collocation(toks[i:i+2], fmt.Sprintf("Common collocation with '%s'", lemma(next)))
		case tok.POS == Noun && isNoun:
			a.collocation(toks[i:i+2], fmt.Sprintf("Noun compound: %s + %s", lemma(tok), lemma(next)))
		}
	}
}

func (a *analysis) phrasal(toks []Token, i int) {
	j := i + 1
	if j < len(toks) && toks[j].POS == Pronoun {
		j++
	}
	if j >= len(toks) {
		return
	}
	p := toks[j]
	if p.POS != Particle && p.POS != Adposition && p.POS != Adverb {
		return
	}
	if !in(phrasalParticles, strings.ToLower(p.Text)) {
		return
	}
	note := fmt.Sprintf("Phrasal verb: %s + %s", lemma(toks[i]), strings.ToLower(p.Text))
	a.emit(toks[i:j+1], KindPhrasal, types.CategoryPhrasalVerbs, "", note)
}

func (a *analysis) verbObject(toks []Token, i int) {
	v := toks[i]
	if in(skipWords, lemma(v)) {
		return
	}
	if a.deps {
		for j := i + 1; j < len(toks) && j <= i+3; j++ {
			if toks[j].Head == i && (toks[j].Dep == "obj" || toks[j].Dep == "dobj") {
				a.collocation(toks[i:j+1], fmt.Sprintf("Verb + object: %s %s", lemma(v), lemma(toks[j])))
				return
			}
		}
		return
	}
	j := i + 1
	if j < len(toks) && toks[j].POS == Determiner {
		j++
	}
	if j < len(toks) && toks[j].POS == Noun {
		a.collocation(toks[i:j+1], fmt.Sprintf("Verb + object: %s %s", lemma(v), lemma(toks[j])))
	}
}

func (a *analysis) collocation(toks []Token, note string) {
	first, last := toks[0], toks[len(toks)-1]
	if in(skipWords, lemma(first)) && in(skipWords, lemma(last)) {
		return
	}
	if a.cohesion(toks[len(toks)-2], last) < a.e.minCohesion {
		return
	}
	a.emit(toks, KindCollocation, types.CategoryOther, "", note)
}

// ── Japanese ─────────────────────────────────────────────────────────────

func (a *analysis) japanese(toks []Token) {
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.POS {
		case Noun, ProperNoun:
			j := i
			for j+1 < len(toks) && (toks[j+1].POS == Noun || toks[j+1].POS == ProperNoun) {
				j++
			}
			if j > i {
				parts := make([]string, 0, j-i+1)
				for _, t := range toks[i : j+1] {
					parts = append(parts, t.Text)
				}
				a.emit(toks[i:j+1], KindCompound, types.CategoryOther, reading(toks[i:j+1]),
					"Compound noun: "+strings.Join(parts, " + "))
				i = j
			}
		case Verb:
			a.teForm(toks, i)
		case Adjective:
			if i+1 < len(toks) && (toks[i+1].POS == Noun || toks[i+1].POS == ProperNoun) {
				a.emit(toks[i:i+2], KindCollocation, types.CategoryOther, reading(toks[i:i+2]),
					fmt.Sprintf("Adjective + noun: %s %s", tok.Text, toks[i+1].Text))
			}
		}
	}
}

func (a *analysis) teForm(toks []Token, i int) {
	if i+2 >= len(toks) {
		return
	}
	te := toks[i+1]
	if te.Text != "て" && te.Text != "で" {
		return
	}
	aux := toks[i+2]
	meaning, ok := teFormAuxiliaries[aux.Lemma]
	if !ok || (aux.POS != Verb && aux.POS != Auxiliary) {
		return
	}
	j := i + 2
	for j+1 < len(toks) && toks[j+1].POS == Auxiliary {
		j++
	}
	a.emit(toks[i:j+1], KindTeForm, types.CategoryCommonGrammar, reading(toks[i:j+1]), "て-form: "+meaning)
}

// reading joins the token readings and folds them to hiragana.
func reading(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		if t.Reading != "" && t.Reading != "*" {
			b.WriteString(t.Reading)
		} else {
			b.WriteString(t.Text)
		}
	}
	return langdetect.ToHiragana(b.String())
}

// ── Idioms ───────────────────────────────────────────────────────────────

func (a *analysis) idioms(r types.Span) {
	region := a.text[r.Start:r.End]
	for _, id := range compiledIdioms()[a.lang] {
		for _, loc := range id.re.FindAllStringIndex(region, -1) {
			span := types.Span{Start: r.Start + loc[0], End: r.Start + loc[1]}
			toks := a.tokensIn(span)
			if len(toks) == 0 {
				continue
			}
			c := a.candidate(span, toks, KindIdiom, id.category, "", "Idiomatic expression - meaning may not be literal")
			c.Meaning = id.meaning
			if a.lang == types.Japanese {
				c.Reading = reading(toks)
			}
			a.accept(c, toks)
		}
	}
}

func (a *analysis) indexTokens() {
	for _, s := range a.sents {
		for _, t := range s.Tokens {
			if t.Span.Len() > 0 {
				a.toks = append(a.toks, t)
			}
		}
	}
	slices.SortStableFunc(a.toks, func(x, y Token) int { return cmp.Compare(x.Span.Start, y.Span.Start) })
}

// tokensIn returns the located tokens overlapping span. Tokens never overlap
// each other, so ends are ordered like starts.
func (a *analysis) tokensIn(span types.Span) []Token {
	i, _ := slices.BinarySearchFunc(a.toks, span.Start, func(t Token, pos int) int {
		if t.Span.End <= pos {
			return -1
		}
		return 1
	})
	var out []Token
	for ; i < len(a.toks) && a.toks[i].Span.Start < span.End; i++ {
		out = append(out, a.toks[i])
	}
	return out
}

// ── Candidates ───────────────────────────────────────────────────────────

func (a *analysis) emit(toks []Token, kind string, cat types.Category, read, note string) {
	if !located(toks) {
		return
	}
	span := types.Span{Start: toks[0].Span.Start, End: toks[len(toks)-1].Span.End}
	a.accept(a.candidate(span, toks, kind, cat, read, note), toks)
}

func (a *analysis) candidate(span types.Span, toks []Token, kind string, cat types.Category, read, note string) types.Candidate {
	prio := basePriority + kindBonus[kind]
	for _, t := range toks {
		if in(gamingKeywords, lemma(t)) {
			prio++
			if cat == types.CategoryOther {
				cat = types.CategoryGamingExpressions
			}
			break
		}
	}
	return types.Candidate{
		Text:           a.text[span.Start:span.End],
		Reading:        read,
		Language:       a.lang,
		Category:       cat,
		Tags:           []string{"nlp", kind},
		PriorityWeight: min(max(prio, 1), 10),
		Span:           span,
		Context:        a.index.At(span),
		Method:         types.MethodNLP,
		Notes:          []string{note},
		Source:         "nlp." + kind,
	}
}

func (a *analysis) accept(c types.Candidate, toks []Token) {
	if a.seen[c.Span] || !a.e.acceptable(c.Language, c.Text, toks) {
		return
	}
	a.seen[c.Span] = true
	a.out = append(a.out, c)
}

// acceptable is the quality gate applied to every heuristic candidate.
func (e *Extractor) acceptable(lang types.Language, text string, toks []Token) bool {
	if len(toks) < 2 || utf8.RuneCountInString(strings.TrimSpace(text)) < e.minRunes[lang] {
		return false
	}
	words, meaningful := 0, false
	for _, t := range toks {
		switch t.POS {
		case Punctuation, Symbol:
			continue
		case Determiner, Pronoun:
			continue
		}
		l := lemma(t)
		if in(leadingDeterminers, l) {
			continue
		}
		words++
		if t.POS.IsContent() && !in(stopWords, l) {
			meaningful = true
		}
	}
	return words >= 2 && meaningful
}
