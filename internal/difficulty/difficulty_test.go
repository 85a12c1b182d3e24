package difficulty_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/lexora/internal/difficulty"
	"github.com/MrWong99/lexora/pkg/types"
)

func TestClassify_Sources(t *testing.T) {
	t.Parallel()

	c := difficulty.New()
	tests := []struct {
		text   string
		lang   types.Language
		level  types.Level
		source string
	}{
		{"Thank you", types.English, types.A1, difficulty.SourceCore},
		{"ＦＩＧＵＲＥ   out", types.English, types.B1, difficulty.SourceCore},
		{"gaming", types.English, types.A1, difficulty.SourceStem},
		{"frend", types.English, types.A1, difficulty.SourceFuzzy},
		{"people", types.English, types.A1, difficulty.SourceFrequency},
		{"the final boss", types.English, types.A2, difficulty.SourceHeuristic},
		{"xyzzyplughs", types.English, types.C1, difficulty.SourceHeuristic},
		{"ありがとう", types.Japanese, types.N5, difficulty.SourceCore},
		{"ハイシン", types.Japanese, types.N2, difficulty.SourceCore},
		{"視聴者数", types.Japanese, types.N2, difficulty.SourceHeuristic},
		{"ひらがなだけ", types.Japanese, types.N4, difficulty.SourceHeuristic},
		{"", types.English, types.B1, difficulty.SourceDefault},
		{"!!!", types.Japanese, types.N3, difficulty.SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tt.text, tt.lang)
			if got.Level != tt.level || got.Source != tt.source {
				t.Errorf("Classify(%q) = %+v, want level %v from %s", tt.text, got, tt.level, tt.source)
			}
			if got.Label != tt.level.Label(tt.lang) {
				t.Errorf("label = %q", got.Label)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("confidence = %v", got.Confidence)
			}
		})
	}
}

func TestWithFuzzyThreshold(t *testing.T) {
	t.Parallel()

	if got := difficulty.New().Classify("frend", types.English); got.Source != difficulty.SourceFuzzy {
		t.Fatalf("default threshold: source = %s, want fuzzy", got.Source)
	}
	strict := difficulty.New(difficulty.WithFuzzyThreshold(1))
	if got := strict.Classify("frend", types.English); got.Source == difficulty.SourceFuzzy {
		t.Errorf("threshold 1 still matched fuzzily: %+v", got)
	}
	if got := strict.Classify("Thank you", types.English); got.Source != difficulty.SourceCore {
		t.Errorf("exact lookups must not depend on the threshold: %+v", got)
	}
}

func TestClassify_ConfidenceDecreasesAlongFallbackChain(t *testing.T) {
	t.Parallel()

	c := difficulty.New()
	order := []string{"Thank you", "gaming", "frend", "people", "xyzzyplughs"}
	prev := 2.0
	for _, text := range order {
		got := c.Classify(text, types.English)
		if got.Confidence >= prev {
			t.Errorf("%q (%s) confidence %v not below %v", text, got.Source, got.Confidence, prev)
		}
		prev = got.Confidence
	}
}

func TestClassify_MixedResolvesByScript(t *testing.T) {
	t.Parallel()

	c := difficulty.New()
	if got := c.Classify("ありがとう", types.Mixed); got.Label != "N5" {
		t.Errorf("mixed japanese = %+v", got)
	}
	if got := c.Classify("thanks", types.Mixed); got.Label != "A1" {
		t.Errorf("mixed english = %+v", got)
	}
}

func TestAssess_KeepsRuleLevel(t *testing.T) {
	t.Parallel()

	c := difficulty.New()
	got := c.Assess(types.Candidate{Text: "thank you", Language: types.English, Level: types.B2})
	if got.Level != types.B2 || got.Source != difficulty.SourceRule || got.Confidence != 1 {
		t.Errorf("Assess = %+v", got)
	}
	got = c.Assess(types.Candidate{Text: "thank you", Language: types.English})
	if got.Level != types.A1 || got.Source != difficulty.SourceCore {
		t.Errorf("Assess unclassified = %+v", got)
	}
}

func TestWithDataset_OverridesCore(t *testing.T) {
	t.Parallel()

	ds, err := difficulty.LoadCSV(strings.NewReader("expression,level,reading\nThank you,C2\n配信者,N1,はいしんしゃ\n"), types.English)
	if err == nil {
		t.Fatal("expected error for japanese label in english dataset")
	}
	if ds != nil {
		t.Error("dataset returned alongside error")
	}

	ds, err = difficulty.LoadCSV(strings.NewReader("expression,level\nThank you,C2\n"), types.English)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	jds, err := difficulty.LoadJSON(strings.NewReader(`[{"expression":"配信者","reading":"はいしんしゃ","level":"N1"}]`), types.Japanese)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	c := difficulty.New(difficulty.WithDataset(ds), difficulty.WithDataset(jds))
	if got := c.Classify("thank you", types.English); got.Level != types.C2 || got.Source != difficulty.SourceCustom {
		t.Errorf("custom english = %+v", got)
	}
	if got := c.Classify("はいしんしゃ", types.Japanese); got.Level != types.N1 || got.Source != difficulty.SourceCustom {
		t.Errorf("custom japanese reading = %+v", got)
	}
}

func TestLoadFrequency(t *testing.T) {
	t.Parallel()

	ranks, err := difficulty.LoadFrequency(strings.NewReader("word,rank\nzeitgeist,4200\nquokka,9000\n"))
	if err != nil {
		t.Fatalf("LoadFrequency: %v", err)
	}
	c := difficulty.New(difficulty.WithFrequency(ranks))
	tests := []struct {
		word  string
		level types.Level
	}{
		{"zeitgeist", types.C1},
		{"quokka", types.C2},
	}
	for _, tt := range tests {
		got := c.Classify(tt.word, types.English)
		if got.Level != tt.level || got.Source != difficulty.SourceFrequency {
			t.Errorf("Classify(%q) = %+v, want %v from frequency", tt.word, got, tt.level)
		}
	}

	bare, err := difficulty.LoadFrequency(strings.NewReader("alpha\nbeta\n"))
	if err != nil {
		t.Fatalf("LoadFrequency bare: %v", err)
	}
	if bare["alpha"] != 1 || bare["beta"] != 2 {
		t.Errorf("bare ranks = %v", bare)
	}
}

func TestLoadJSON_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `[{"expression":`},
		{"empty expression", `[{"expression":"","level":"A1"}]`},
		{"unknown label", `[{"expression":"x","level":"Z9"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := difficulty.LoadJSON(strings.NewReader(tt.json), types.English); err == nil {
				t.Error("expected error")
			}
		})
	}
}
