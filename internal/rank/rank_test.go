package rank_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/rank"
	"github.com/MrWong99/lexora/pkg/types"
)

func cand(text string, start, end, prio int, m types.Method) types.Candidate {
	return types.Candidate{
		Text:           text,
		Language:       types.English,
		Category:       types.CategoryOther,
		Level:          types.B1,
		PriorityWeight: prio,
		Span:           types.Span{Start: start, End: end},
		Method:         m,
	}
}

func texts(cs []types.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cands []types.Candidate
		want  []string
	}{
		{
			name: "higher priority wins",
			cands: []types.Candidate{
				cand("go check", 6, 14, 5, types.MethodNLP),
				cand("check out", 9, 18, 7, types.MethodPattern),
			},
			want: []string{"check out"},
		},
		{
			name: "tie goes to pattern",
			cands: []types.Candidate{
				cand("gave up on", 2, 12, 6, types.MethodNLP),
				cand("gave up", 2, 9, 6, types.MethodPattern),
			},
			want: []string{"gave up"},
		},
		{
			name: "disjoint spans all kept in text order",
			cands: []types.Candidate{
				cand("lol", 40, 43, 6, types.MethodPattern),
				cand("thanks", 0, 6, 10, types.MethodPattern),
				cand("check out", 20, 29, 7, types.MethodPattern),
			},
			want: []string{"thanks", "check out", "lol"},
		},
		{
			name: "chain resolves greedily by strength",
			cands: []types.Candidate{
				cand("a b", 0, 3, 5, types.MethodPattern),
				cand("b c", 2, 5, 9, types.MethodPattern),
				cand("c d", 4, 7, 5, types.MethodPattern),
			},
			want: []string{"b c"},
		},
		{
			name:  "empty",
			cands: nil,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := texts(rank.Resolve(tt.cands))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_NoOverlapInvariant(t *testing.T) {
	t.Parallel()

	var cands []types.Candidate
	for i := 0; i < 40; i++ {
		start := (i * 7) % 50
		cands = append(cands, cand("x", start, start+3+i%5, 1+i%10, types.MethodNLP))
	}
	kept := rank.Resolve(cands)
	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			if kept[i].Span.Overlaps(kept[j].Span) {
				t.Fatalf("spans %+v and %+v overlap", kept[i].Span, kept[j].Span)
			}
		}
	}
}

func TestResolve_ManyCandidatesStaysFast(t *testing.T) {
	t.Parallel()

	const n = 100000
	cands := make([]types.Candidate, 0, 2*n)
	for i := range n {
		// Every word is matched twice: once alone, once joined with the next.
		cands = append(cands,
			cand("w", 4*i, 4*i+3, 6, types.MethodPattern),
			cand("w w", 4*i, 4*i+7, 4, types.MethodNLP),
		)
	}
	start := time.Now()
	kept := rank.Resolve(cands)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("resolving %d candidates took %s", len(cands), elapsed)
	}
	if len(kept) != n {
		t.Fatalf("kept = %d, want %d", len(kept), n)
	}
	for i, c := range kept {
		if c.Text != "w" || c.Span.Start != 4*i {
			t.Fatalf("kept[%d] = %+v", i, c)
		}
	}
}

func TestRank_IndexPointsAtInput(t *testing.T) {
	t.Parallel()

	easy := cand("gg", 0, 2, 6, types.MethodPattern)
	hard := easy
	hard.Level = types.C1
	other := cand("lol", 10, 13, 5, types.MethodPattern)

	cands := []types.Candidate{other, easy, hard}
	ranked := rank.Rank(cands, rank.DefaultWeights())
	if len(ranked) != 2 {
		t.Fatalf("ranked = %+v", ranked)
	}
	for _, r := range ranked {
		in := cands[r.Index]
		if in.Span != r.Span || in.Level != r.Level {
			t.Errorf("Index %d points at %+v, ranked %+v", r.Index, in, r.Candidate)
		}
	}
}

func TestRank_ScoresAndOrders(t *testing.T) {
	t.Parallel()

	cands := []types.Candidate{
		{Text: "lol", Language: types.English, Category: types.CategoryInternetSlang, Level: types.A2, Span: types.Span{Start: 40, End: 43}, PriorityWeight: 6},
		{Text: "Thanks", Language: types.English, Category: types.CategoryEssentialDaily, Level: types.A1, Span: types.Span{Start: 0, End: 6}, PriorityWeight: 10},
		{Text: "check out", Language: types.English, Category: types.CategoryPhrasalVerbs, Level: types.A2, Span: types.Span{Start: 20, End: 29}, PriorityWeight: 7},
		{Text: "Let's go", Language: types.English, Category: types.CategoryGamingExpressions, Level: types.A2, Span: types.Span{Start: 10, End: 18}, PriorityWeight: 8},
		{Text: "thanks", Language: types.English, Category: types.CategoryEssentialDaily, Level: types.A1, Span: types.Span{Start: 50, End: 56}, PriorityWeight: 10},
	}
	got := rank.Rank(cands, rank.DefaultWeights())

	want := []struct {
		text  string
		score float64
	}{
		{"Thanks", 15},
		{"check out", 10},
		{"Let's go", 9},
		{"lol", 9},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Text != w.text || got[i].Score != w.score {
			t.Errorf("item %d = %q (%v), want %q (%v)", i, got[i].Text, got[i].Score, w.text, w.score)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	cands := []types.Candidate{
		cand("one", 0, 3, 5, types.MethodPattern),
		cand("two", 4, 7, 5, types.MethodNLP),
		cand("three", 8, 13, 5, types.MethodPattern),
		cand("on", 1, 3, 5, types.MethodNLP),
	}
	first := rank.Rank(cands, rank.DefaultWeights())
	for range 20 {
		again := rank.Rank(cands, rank.DefaultWeights())
		for i := range first {
			if again[i].Text != first[i].Text {
				t.Fatalf("run differs at %d: %q vs %q", i, again[i].Text, first[i].Text)
			}
		}
	}
}

func TestWeightsFrom(t *testing.T) {
	t.Parallel()

	w, err := rank.WeightsFrom(map[string]float64{"internet_slang": 12}, map[int]float64{6: 3})
	if err != nil {
		t.Fatalf("WeightsFrom: %v", err)
	}
	if got := w.Score(types.CategoryInternetSlang, types.C2); got != 15 {
		t.Errorf("Score = %v, want 15", got)
	}
	if got := w.Score(types.CategoryEssentialDaily, types.A1); got != 15 {
		t.Errorf("default entries lost: Score = %v", got)
	}
	if w.Fingerprint() == rank.DefaultWeights().Fingerprint() {
		t.Error("fingerprint unchanged after override")
	}

	if _, err := rank.WeightsFrom(map[string]float64{"memes": 1}, map[int]float64{9: 1}); err == nil {
		t.Error("expected error for unknown category and ordinal")
	}
}

func TestScore_UnknownCategoryFallsBackToOther(t *testing.T) {
	t.Parallel()

	w := rank.DefaultWeights()
	if got, want := w.Score("made_up", types.B1), w.Score(types.CategoryOther, types.B1); got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}
