package patterns

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lexora/pkg/types"
)

// Mode selects how a rule file combines with the built-in table.
type Mode string

const (
	// ModeExtend appends the file's groups after the built-in groups.
	ModeExtend Mode = "extend"

	// ModeReplace discards the built-in table.
	ModeReplace Mode = "replace"
)

// File is the YAML schema of a rule file.
//
//	version: "2025.3-community"
//	mode: extend
//	groups:
//	  - language: english
//	    category: internet_slang
//	    tags: [stream]
//	    rules:
//	      - pattern: "touch grass"
//	        meaning: "外に出ろ"
//	        level: B2
//	        priority: 6
type File struct {
	Version string      `yaml:"version"`
	Mode    Mode        `yaml:"mode"`
	Groups  []FileGroup `yaml:"groups"`
}

// FileGroup is a rule group in a [File].
type FileGroup struct {
	Language types.Language `yaml:"language"`
	Category types.Category `yaml:"category"`
	Tags     []string       `yaml:"tags"`
	Rules    []FileRule     `yaml:"rules"`
}

// FileRule is a rule in a [FileGroup]. Level is a CEFR or JLPT label.
type FileRule struct {
	ID       string   `yaml:"id"`
	Pattern  string   `yaml:"pattern"`
	Meaning  string   `yaml:"meaning"`
	Reading  string   `yaml:"reading"`
	Level    string   `yaml:"level"`
	Priority int      `yaml:"priority"`
	Tags     []string `yaml:"tags"`
}

// LoadFile reads a rule file from path and combines it with base.
func LoadFile(path string, base *RuleSet) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("patterns: open %q: %w", path, err)
	}
	defer f.Close()

	rs, err := Load(f, base)
	if err != nil {
		return nil, fmt.Errorf("patterns: load %q: %w", path, err)
	}
	return rs, nil
}

// Load decodes a rule file from r and combines it with base according to the
// file's mode. The resulting version is the file version for ModeReplace and
// "<base>+<file>" for ModeExtend.
func Load(r io.Reader, base *RuleSet) (*RuleSet, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("patterns: decode yaml: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("patterns: rule file has no version")
	}

	groups := make([]Group, 0, len(file.Groups))
	for gi, fg := range file.Groups {
		g := Group{
			Language: fg.Language,
			Category: fg.Category,
			Tags:     fg.Tags,
			Rules:    make([]Rule, 0, len(fg.Rules)),
		}
		for ri, fr := range fg.Rules {
			level, scale, err := types.ParseLevel(fr.Level)
			if err != nil {
				return nil, fmt.Errorf("patterns: group %d rule %d: %w", gi, ri, err)
			}
			if scale != fg.Language {
				return nil, fmt.Errorf("patterns: group %d rule %d: level %q does not belong to the %s scale", gi, ri, fr.Level, fg.Language)
			}
			g.Rules = append(g.Rules, Rule{
				ID:       fr.ID,
				Pattern:  fr.Pattern,
				Meaning:  fr.Meaning,
				Reading:  fr.Reading,
				Level:    level,
				Priority: fr.Priority,
				Tags:     fr.Tags,
			})
		}
		groups = append(groups, g)
	}

	switch file.Mode {
	case ModeReplace:
		return NewRuleSet(file.Version, groups)
	case ModeExtend, "":
		if base == nil {
			return NewRuleSet(file.Version, groups)
		}
		return base.Extend(base.Version()+"+"+file.Version, groups)
	default:
		return nil, fmt.Errorf("patterns: unknown mode %q; valid values: extend, replace", file.Mode)
	}
}
