// Package rank resolves overlapping vocabulary candidates and orders the
// survivors by educational value.
//
// Scoring is a single function over a declarative [Weights] table:
//
//	score = category_weight(category) + difficulty_weight(level)
//
// The defaults favour broadly useful, foundational expressions over niche or
// advanced ones. Weights are configuration, not a contract.
package rank

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/MrWong99/lexora/pkg/types"
)

// Weights maps categories and difficulty ordinals to score contributions.
// A missing category scores as [types.CategoryOther]; a missing level scores
// zero.
type Weights struct {
	Category   map[types.Category]float64
	Difficulty map[types.Level]float64
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		Category: map[types.Category]float64{
			types.CategoryEssentialDaily:    10,
			types.CategoryCommonGrammar:     8,
			types.CategoryPoliteExpressions: 8,
			types.CategoryPhrasalVerbs:      6,
			types.CategoryGamingExpressions: 5,
			types.CategoryInternetSlang:     5,
			types.CategoryVTuberCulture:     5,
			types.CategoryOther:             3,
		},
		Difficulty: map[types.Level]float64{
			1: 5,
			2: 4,
			3: 3,
			4: 2,
			5: 1,
			6: 0.5,
		},
	}
}

// WeightsFrom builds a table from configuration values keyed by category name
// and level ordinal. Entries absent from the configuration keep their
// default.
func WeightsFrom(category map[string]float64, difficulty map[int]float64) (Weights, error) {
	w := DefaultWeights()
	var errs []error
	for name, v := range category {
		c := types.Category(name)
		if !c.IsValid() {
			errs = append(errs, fmt.Errorf("unknown category %q", name))
			continue
		}
		w.Category[c] = v
	}
	for lvl, v := range difficulty {
		if lvl < 1 || lvl > int(types.C2) {
			errs = append(errs, fmt.Errorf("difficulty ordinal %d outside 1..%d", lvl, types.C2))
			continue
		}
		w.Difficulty[types.Level(lvl)] = v
	}
	if err := errors.Join(errs...); err != nil {
		return Weights{}, fmt.Errorf("rank: invalid weights: %w", err)
	}
	return w, nil
}

// Score computes the priority score of an item.
func (w Weights) Score(c types.Category, l types.Level) float64 {
	cw, ok := w.Category[c]
	if !ok {
		cw = w.Category[types.CategoryOther]
	}
	return cw + w.Difficulty[l]
}

// Fingerprint renders the table deterministically. It is folded into cache
// keys so that a weight change invalidates cached rankings.
func (w Weights) Fingerprint() string {
	var b strings.Builder
	cats := make([]types.Category, 0, len(w.Category))
	for c := range w.Category {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "%s=%s;", c, strconv.FormatFloat(w.Category[c], 'g', -1, 64))
	}
	b.WriteByte('|')
	lvls := make([]types.Level, 0, len(w.Difficulty))
	for l := range w.Difficulty {
		lvls = append(lvls, l)
	}
	slices.Sort(lvls)
	for _, l := range lvls {
		fmt.Fprintf(&b, "%d=%s;", l, strconv.FormatFloat(w.Difficulty[l], 'g', -1, 64))
	}
	return b.String()
}

// Ranked is a surviving candidate with its score. Index is the candidate's
// position in the slice passed to [Rank].
type Ranked struct {
	types.Candidate
	Score float64
	Index int
}

// Resolve drops candidates whose span overlaps a stronger candidate. Strength
// is, in order: higher priority weight, pattern over NLP origin, earlier
// start, longer span. The survivors are returned in text order. The input is
// not modified.
func Resolve(cands []types.Candidate) []types.Candidate {
	idx := resolve(cands)
	kept := make([]types.Candidate, len(idx))
	for k, i := range idx {
		kept[k] = cands[i]
	}
	return kept
}

// resolve returns the indices of the surviving candidates in text order.
func resolve(cands []types.Candidate) []int {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		x, y := cands[a], cands[b]
		return cmp.Or(
			cmp.Compare(y.PriorityWeight, x.PriorityWeight),
			cmp.Compare(methodRank(x.Method), methodRank(y.Method)),
			cmp.Compare(x.Span.Start, y.Span.Start),
			cmp.Compare(y.Span.Len(), x.Span.Len()),
		)
	})

	limit := 0
	for _, c := range cands {
		limit = max(limit, c.Span.End)
	}
	// claimed marks the bytes covered by kept spans. Each candidate costs
	// its own length to check and mark.
	claimed := make([]bool, limit)
	var kept []int
	for _, i := range order {
		lo, hi := max(cands[i].Span.Start, 0), cands[i].Span.End
		if lo < hi && slices.Contains(claimed[lo:hi], true) {
			continue
		}
		for p := lo; p < hi; p++ {
			claimed[p] = true
		}
		kept = append(kept, i)
	}
	slices.SortStableFunc(kept, func(a, b int) int {
		x, y := cands[a].Span, cands[b].Span
		return cmp.Or(cmp.Compare(x.Start, y.Start), cmp.Compare(x.End, y.End))
	})
	return kept
}

func methodRank(m types.Method) int {
	if m == types.MethodPattern {
		return 0
	}
	return 1
}

// Rank resolves overlaps, keeps the first occurrence of each repeated
// expression, scores the survivors and sorts them by descending score.
// Equal scores keep text order.
func Rank(cands []types.Candidate, w Weights) []Ranked {
	seen := make(map[string]bool)
	var out []Ranked
	for _, i := range resolve(cands) {
		c := cands[i]
		key := string(c.Language) + "\x00" + strings.ToLower(strings.TrimSpace(c.Text))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Ranked{Candidate: c, Score: w.Score(c.Category, c.Level), Index: i})
	}
	slices.SortStableFunc(out, func(x, y Ranked) int { return cmp.Compare(y.Score, x.Score) })
	return out
}
