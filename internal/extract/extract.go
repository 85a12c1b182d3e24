// Package extract composes the vocabulary pipeline.
//
// An [Orchestrator] runs, for one transcript:
//
//  1. cache lookup keyed by the normalised text and every active option
//  2. per-segment language detection (unless a target language is given)
//  3. pattern matching and NLP discovery, concurrently
//  4. difficulty classification and the minimum-level filter
//  5. overlap resolution and priority ranking
//  6. optional, time-boxed enrichment
//  7. caching and, on request, persistence
//
// A missing NLP backend degrades the run to pattern matching; a failing
// enricher degrades it to the pre-enrichment list. Neither is an error.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lexora/internal/cache"
	"github.com/MrWong99/lexora/internal/difficulty"
	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/internal/nlp"
	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/internal/patterns"
	"github.com/MrWong99/lexora/internal/rank"
	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/types"
)

// Enricher fills translations and notes. *enrich.Enricher implements it.
type Enricher interface {
	Enhance(ctx context.Context, items []types.VocabularyItem, transcript string) ([]types.VocabularyItem, error)
}

// Orchestrator is safe for concurrent use. Ranking weights may be swapped
// at runtime with [Orchestrator.SetWeights].
type Orchestrator struct {
	rules      *patterns.RuleSet
	nlp        *nlp.Extractor
	classifier *difficulty.Classifier
	weights    atomic.Pointer[rank.Weights]

	cache    *cache.Cache
	enricher Enricher
	store    store.Store
	metrics  *observe.Metrics

	defaults     Options
	maxTextBytes int
	batchWorkers int
	batchQueue   int
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithRules replaces the built-in pattern table.
func WithRules(rs *patterns.RuleSet) Option {
	return func(o *Orchestrator) {
		if rs != nil {
			o.rules = rs
		}
	}
}

// WithNLP sets the NLP extractor. Without it, NLP discovery is unavailable
// and every run is pattern-only.
func WithNLP(e *nlp.Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.nlp = e
		}
	}
}

// WithClassifier replaces the default difficulty classifier.
func WithClassifier(c *difficulty.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithWeights sets the initial ranking weights.
func WithWeights(w rank.Weights) Option {
	return func(o *Orchestrator) { o.weights.Store(&w) }
}

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithEnricher enables enrichment for runs that ask for it.
func WithEnricher(e Enricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithStore enables persistence for runs that ask for it.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithMetrics records on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithDefaults sets the values used for options a call leaves zero.
func WithDefaults(d Options) Option {
	return func(o *Orchestrator) {
		if d.MaxItems > 0 {
			o.defaults.MaxItems = d.MaxItems
		}
		if d.Mode != "" {
			o.defaults.Mode = d.Mode
		}
		o.defaults.MinLevelEnglish = d.MinLevelEnglish
		o.defaults.MinLevelJapanese = d.MinLevelJapanese
	}
}

// WithMaxTextBytes limits the transcript size. Default: 1 MiB.
func WithMaxTextBytes(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTextBytes = n
		}
	}
}

// WithBatchPool sizes the worker pool used by [Orchestrator.ExtractBatch].
func WithBatchPool(workers, queue int) Option {
	return func(o *Orchestrator) {
		if workers > 0 {
			o.batchWorkers = workers
		}
		o.batchQueue = queue
	}
}

// New returns an Orchestrator over the built-in rules and reference data.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:        patterns.Default(),
		nlp:          nlp.New(),
		classifier:   difficulty.New(),
		defaults:     Options{MaxItems: DefaultMaxItems, Mode: types.MethodHybrid},
		maxTextBytes: DefaultMaxTextBytes,
		batchWorkers: DefaultBatchWorkers,
	}
	w := rank.DefaultWeights()
	o.weights.Store(&w)
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// Weights returns the active ranking weights.
func (o *Orchestrator) Weights() rank.Weights { return *o.weights.Load() }

// SetWeights swaps the ranking weights. Runs already in flight keep the
// weights they started with; the cache key changes with the weights.
func (o *Orchestrator) SetWeights(w rank.Weights) { o.weights.Store(&w) }

// RuleVersion returns the version of the active pattern table.
func (o *Orchestrator) RuleVersion() string { return o.rules.Version() }

// Store returns the configured store, or nil.
func (o *Orchestrator) Store() store.Store { return o.store }

// Extract runs the pipeline over text.
//
// Empty or whitespace-only input yields an empty result, not an error.
// Invalid UTF-8 sequences are dropped. The returned result may be shared
// with other callers through the cache and must not be modified.
func (o *Orchestrator) Extract(ctx context.Context, text string, opts Options) (*types.Result, error) {
	opts, err := o.resolve(opts)
	if err != nil {
		return nil, err
	}
	if len(text) > o.maxTextBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTextTooLarge, len(text), o.maxTextBytes)
	}
	text = strings.ToValidUTF8(text, "")

	ctx, span := observe.StartSpan(ctx, "extract.Extract")
	defer span.End()
	defer o.metrics.TrackExtraction(ctx)()
	start := time.Now()
	defer func() { o.metrics.RecordStage(ctx, "total", time.Since(start)) }()

	if strings.TrimSpace(text) == "" {
		return o.emptyResult(), nil
	}

	w := o.Weights()
	params := o.keyParams(opts, w.Fingerprint())
	compute := func(ctx context.Context) (*types.Result, error) {
		return o.compute(ctx, text, opts, w)
	}

	var (
		res *types.Result
		hit bool
	)
	if o.cache != nil {
		res, hit, err = o.cache.Do(ctx, cache.Key(text, params...), compute)
	} else {
		res, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}

	if opts.Enrich && o.enricher != nil {
		res = o.enrich(ctx, text, cache.Key(text, append(params, "enrich")...), res)
	}

	if opts.Persist {
		if err := o.store.SaveBatch(ctx, opts.SourceID, res.Items); err != nil {
			return nil, fmt.Errorf("extract: persist %q: %w", opts.SourceID, err)
		}
	}

	o.recordItems(ctx, res)
	observe.Logger(ctx).Debug("extract: run complete",
		"items", res.Stats.TotalExtracted,
		"method", res.Stats.ExtractionMethod,
		"cache_hit", hit,
		"enriched", res.Enriched,
		"duration", time.Since(start),
	)
	return res, nil
}

func (o *Orchestrator) emptyResult() *types.Result {
	return &types.Result{
		Items:       []types.VocabularyItem{},
		Stats:       types.Stats{ExtractionMethod: types.MethodPattern},
		RuleVersion: o.rules.Version(),
	}
}

func (o *Orchestrator) recordItems(ctx context.Context, res *types.Result) {
	type key struct {
		lang   types.Language
		method types.Method
	}
	counts := make(map[key]int)
	for _, it := range res.Items {
		counts[key{it.SourceLanguage, it.ExtractionMethod}]++
	}
	for k, n := range counts {
		o.metrics.RecordItems(ctx, string(k.lang), string(k.method), n)
	}
}

// ── Pipeline ────────────────────────────────────────────────────────────────

// plan describes which rules and which NLP regions apply to a transcript.
type plan struct {
	patternLang types.Language
	regions     map[types.Language][]types.Span
}

var nlpLanguages = []types.Language{types.Japanese, types.English}

func planFor(text string, target types.Language) plan {
	if target != "" {
		return plan{patternLang: target, regions: map[types.Language][]types.Span{target: nil}}
	}
	p := plan{patternLang: types.Mixed, regions: make(map[types.Language][]types.Span)}
	for _, seg := range langdetect.Segments(text) {
		switch seg.Detection.Language {
		case types.Japanese, types.English:
			p.regions[seg.Detection.Language] = append(p.regions[seg.Detection.Language], seg.Span)
		default:
			if seg.Counts.Japanese > 0 {
				p.regions[types.Japanese] = append(p.regions[types.Japanese], seg.Span)
			}
			if seg.Counts.Latin > 0 {
				p.regions[types.English] = append(p.regions[types.English], seg.Span)
			}
		}
	}
	return p
}

func (o *Orchestrator) nlpSignature() string {
	var langs []string
	for _, l := range nlpLanguages {
		if o.nlp.Available(l) {
			langs = append(langs, string(l))
		}
	}
	if len(langs) == 0 {
		return "none"
	}
	return strings.Join(langs, ",")
}

func (o *Orchestrator) compute(ctx context.Context, text string, opts Options, w rank.Weights) (*types.Result, error) {
	_, end := observe.StartStage(ctx, o.metrics, "detect")
	det := langdetect.Detect(text)
	p := planFor(text, opts.TargetLanguage)
	end()

	var (
		patternCands []types.Candidate
		nlpCands     []types.Candidate
		nlpRan       bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, end := observe.StartStage(gctx, o.metrics, "pattern")
		defer end()
		patternCands = o.rules.Match(text, p.patternLang)
		return nil
	})
	if opts.Mode != types.MethodPattern {
		g.Go(func() error {
			sctx, end := observe.StartStage(gctx, o.metrics, "nlp")
			defer end()
			var err error
			nlpCands, nlpRan, err = o.discover(sctx, text, p)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		cands  []types.Candidate
		method types.Method
	)
	switch {
	case opts.Mode == types.MethodNLP && nlpRan:
		cands, method = nlpCands, types.MethodNLP
	case opts.Mode == types.MethodHybrid && nlpRan:
		cands, method = append(patternCands, nlpCands...), types.MethodHybrid
	default:
		cands, method = patternCands, types.MethodPattern
	}

	_, end = observe.StartStage(ctx, o.metrics, "classify")
	kept, assessments := o.classify(cands, opts)
	end()

	_, end = observe.StartStage(ctx, o.metrics, "rank")
	ranked := rank.Rank(kept, w)
	if len(ranked) > opts.MaxItems {
		ranked = ranked[:opts.MaxItems]
	}
	items := make([]types.VocabularyItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, newItem(r, assessments[r.Index]))
	}
	end()

	return &types.Result{
		Items: items,
		Stats: types.Stats{
			TotalExtracted:   len(items),
			JapaneseRatio:    det.JapaneseRatio,
			EnglishRatio:     det.EnglishRatio,
			ExtractionMethod: method,
		},
		RuleVersion: o.rules.Version(),
	}, nil
}

// discover runs NLP extraction for every planned language with a backend.
// ran reports whether at least one backend produced an analysis.
func (o *Orchestrator) discover(ctx context.Context, text string, p plan) (cands []types.Candidate, ran bool, err error) {
	for _, lang := range nlpLanguages {
		regions, ok := p.regions[lang]
		if !ok || !o.nlp.Available(lang) {
			continue
		}
		got, err := o.nlp.Extract(ctx, text, lang, regions)
		switch {
		case err == nil:
			cands = append(cands, got...)
			ran = true
		case errors.Is(err, nlp.ErrUnavailable):
		case ctx.Err() != nil:
			return nil, false, ctx.Err()
		default:
			observe.Logger(ctx).Warn("extract: nlp backend failed, continuing with patterns", "language", lang, "err", err)
		}
	}
	return cands, ran, nil
}

// classify assigns a level to every candidate and drops those below the
// floor of their language. The assessments parallel the kept candidates.
func (o *Orchestrator) classify(cands []types.Candidate, opts Options) ([]types.Candidate, []difficulty.Assessment) {
	kept := make([]types.Candidate, 0, len(cands))
	assessments := make([]difficulty.Assessment, 0, len(cands))
	for _, c := range cands {
		a := o.classifier.Assess(c)
		if floor := opts.minLevel(c.Language); floor != types.LevelUnknown && a.Level < floor {
			continue
		}
		c.Level = a.Level
		kept = append(kept, c)
		assessments = append(assessments, a)
	}
	return kept, assessments
}

// enrich returns the enriched variant of base. Concurrent runs over the same
// key share one enrichment through the cache. Failures are logged and yield
// base unchanged.
func (o *Orchestrator) enrich(ctx context.Context, text, key string, base *types.Result) *types.Result {
	if len(base.Items) == 0 {
		return base
	}
	enhance := func(ctx context.Context) (*types.Result, error) {
		ectx, end := observe.StartStage(ctx, o.metrics, "enrich")
		items, err := o.enricher.Enhance(ectx, base.Items, text)
		end()
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].ID = ItemID(items[i].SourceText, items[i].TranslationText)
		}
		res := *base
		res.Items = items
		res.Enriched = true
		return &res, nil
	}

	var (
		res *types.Result
		err error
	)
	if o.cache != nil {
		res, _, err = o.cache.Do(ctx, key, enhance)
	} else {
		res, err = enhance(ctx)
	}
	if err != nil {
		observe.Logger(ctx).Warn("extract: enrichment failed, returning pre-enrichment items", "err", err)
		return base
	}
	return res
}
