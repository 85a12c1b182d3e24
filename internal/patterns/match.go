package patterns

import (
	"github.com/MrWong99/lexora/internal/langdetect"
	"github.com/MrWong99/lexora/pkg/types"
)

// Match applies every rule whose language is compatible with lang to text and
// returns one candidate per match. lang may be [types.Mixed] or empty to apply
// rules of both languages.
//
// Candidates are reported group by group and rule by rule in table order;
// within a rule, matches appear in text order. Spans are byte offsets into
// text.
func (rs *RuleSet) Match(text string, lang types.Language) []types.Candidate {
	if text == "" {
		return nil
	}
	sents := langdetect.IndexSentences(text)
	var out []types.Candidate
	for gi := range rs.groups {
		g := &rs.groups[gi]
		if !applies(g.Language, lang) {
			continue
		}
		for ri := range g.Rules {
			r := &g.Rules[ri]
			for _, loc := range r.re.FindAllStringIndex(text, -1) {
				if loc[0] == loc[1] {
					continue
				}
				span := types.Span{Start: loc[0], End: loc[1]}
				out = append(out, types.Candidate{
					Text:           text[loc[0]:loc[1]],
					Meaning:        r.Meaning,
					Reading:        r.Reading,
					Language:       g.Language,
					Category:       g.Category,
					Tags:           mergeTags(g.Tags, r.Tags),
					Level:          r.Level,
					PriorityWeight: r.Priority,
					Span:           span,
					Context:        sents.At(span),
					Method:         types.MethodPattern,
					Source:         r.ID,
				})
			}
		}
	}
	return out
}

func applies(ruleLang, lang types.Language) bool {
	switch lang {
	case types.Japanese, types.English:
		return ruleLang == lang
	}
	return true
}

func mergeTags(group, rule []string) []string {
	if len(group) == 0 && len(rule) == 0 {
		return nil
	}
	out := make([]string, 0, len(group)+len(rule))
	seen := make(map[string]struct{}, len(group)+len(rule))
	for _, list := range [][]string{group, rule} {
		for _, tag := range list {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
