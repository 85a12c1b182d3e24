package difficulty

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrWong99/lexora/pkg/types"
)

// Dataset is a set of expressions with curated levels for one language.
type Dataset struct {
	Language types.Language
	Entries  map[string]types.Level
}

// jsonEntry is one element of a JSON dataset file.
type jsonEntry struct {
	Expression string `json:"expression"`
	Reading    string `json:"reading,omitempty"`
	Level      string `json:"level"`
}

// LoadFile reads a dataset from path. Files ending in .json hold an array of
// {"expression", "reading", "level"} objects; anything else is read as CSV
// with the columns expression,level[,reading] and an optional header row.
// Every level label must belong to lang's scale.
func LoadFile(path string, lang types.Language) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("difficulty: open dataset: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f, lang)
	}
	return LoadCSV(f, lang)
}

// LoadCSV reads a CSV dataset. See [LoadFile] for the format.
func LoadCSV(r io.Reader, lang types.Language) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	d := &Dataset{Language: lang, Entries: make(map[string]types.Level)}
	var errs []error
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("difficulty: read dataset: %w", err)
		}
		if len(rec) < 2 {
			errs = append(errs, fmt.Errorf("line %d: want at least 2 columns, got %d", line, len(rec)))
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "expression") {
			continue
		}
		reading := ""
		if len(rec) > 2 {
			reading = rec[2]
		}
		if err := d.add(rec[0], reading, rec[1]); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("difficulty: invalid dataset: %w", err)
	}
	return d, nil
}

// LoadJSON reads a JSON dataset. See [LoadFile] for the format.
func LoadJSON(r io.Reader, lang types.Language) (*Dataset, error) {
	var entries []jsonEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("difficulty: decode dataset: %w", err)
	}
	d := &Dataset{Language: lang, Entries: make(map[string]types.Level, len(entries))}
	var errs []error
	for i, e := range entries {
		if err := d.add(e.Expression, e.Reading, e.Level); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("difficulty: invalid dataset: %w", err)
	}
	return d, nil
}

func (d *Dataset) add(expr, reading, label string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return errors.New("empty expression")
	}
	lvl, scale, err := types.ParseLevel(label)
	if err != nil {
		return err
	}
	if scale != d.Language {
		return fmt.Errorf("%q: level %s is not on the %s scale", expr, label, d.Language)
	}
	d.Entries[expr] = lvl
	if reading = strings.TrimSpace(reading); reading != "" {
		if _, taken := d.Entries[reading]; !taken {
			d.Entries[reading] = lvl
		}
	}
	return nil
}

// LoadFrequencyFile reads a frequency list from path. See [LoadFrequency].
func LoadFrequencyFile(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("difficulty: open frequency list: %w", err)
	}
	defer f.Close()
	return LoadFrequency(f)
}

// LoadFrequency reads an English frequency list: CSV rows of word,rank, or a
// bare word per line where the line number is the rank.
func LoadFrequency(r io.Reader) (map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	ranks := make(map[string]int)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ranks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("difficulty: read frequency list: %w", err)
		}
		word := strings.ToLower(strings.TrimSpace(rec[0]))
		if word == "" {
			continue
		}
		rank := line
		if len(rec) > 1 {
			n, err := strconv.Atoi(strings.TrimSpace(rec[1]))
			if err != nil {
				if line == 1 {
					continue // header
				}
				return nil, fmt.Errorf("difficulty: frequency line %d: %w", line, err)
			}
			rank = n
		}
		if _, dup := ranks[word]; !dup {
			ranks[word] = rank
		}
	}
}
