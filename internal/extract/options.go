package extract

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/MrWong99/lexora/pkg/types"
)

// Defaults applied when neither the call nor [WithDefaults] sets a value.
const (
	DefaultMaxItems     = 50
	MaxItemsLimit       = 500
	DefaultMaxTextBytes = 1 << 20
	DefaultBatchWorkers = 4
)

var (
	// ErrInvalidOptions is wrapped by every option validation failure.
	ErrInvalidOptions = errors.New("extract: invalid options")

	// ErrTextTooLarge is returned when a transcript exceeds the size limit.
	ErrTextTooLarge = errors.New("extract: transcript too large")

	// ErrNoStore is returned when persistence is requested but no store is
	// configured.
	ErrNoStore = errors.New("extract: persistence requested but no store configured")
)

// Options control a single extraction. The zero value extracts with the
// orchestrator defaults.
type Options struct {
	// TargetLanguage restricts extraction to one language. Empty (or
	// [types.Mixed]) detects the language of each segment.
	TargetLanguage types.Language

	// MaxItems caps the number of returned items.
	MaxItems int

	// Mode selects the stages: pattern, nlp or hybrid (both).
	Mode types.Method

	// MinLevelEnglish and MinLevelJapanese drop items classified below the
	// given level of their language. Zero keeps everything.
	MinLevelEnglish  types.Level
	MinLevelJapanese types.Level

	// Enrich asks the configured enricher for translations and notes.
	Enrich bool

	// Persist saves the items under SourceID in the configured store.
	// Neither field influences the extracted items.
	Persist  bool
	SourceID string
}

func (o *Orchestrator) resolve(opts Options) (Options, error) {
	d := o.defaults
	if opts.TargetLanguage == types.Mixed {
		opts.TargetLanguage = ""
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = d.MaxItems
	}
	if opts.Mode == "" {
		opts.Mode = d.Mode
	}
	if opts.MinLevelEnglish == types.LevelUnknown {
		opts.MinLevelEnglish = d.MinLevelEnglish
	}
	if opts.MinLevelJapanese == types.LevelUnknown {
		opts.MinLevelJapanese = d.MinLevelJapanese
	}

	var errs []error
	switch opts.TargetLanguage {
	case "", types.English, types.Japanese:
	default:
		errs = append(errs, fmt.Errorf("unknown target language %q", opts.TargetLanguage))
	}
	if !opts.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("unknown mode %q", opts.Mode))
	}
	if opts.MaxItems > MaxItemsLimit {
		errs = append(errs, fmt.Errorf("max items %d above limit %d", opts.MaxItems, MaxItemsLimit))
	}
	if opts.MinLevelEnglish != types.LevelUnknown && !opts.MinLevelEnglish.Valid(types.English) {
		errs = append(errs, fmt.Errorf("english minimum level %d outside A1..C2", opts.MinLevelEnglish))
	}
	if opts.MinLevelJapanese != types.LevelUnknown && !opts.MinLevelJapanese.Valid(types.Japanese) {
		errs = append(errs, fmt.Errorf("japanese minimum level %d outside N5..N1", opts.MinLevelJapanese))
	}
	if opts.Persist {
		if opts.SourceID == "" {
			errs = append(errs, errors.New("persist requires a source id"))
		}
		if o.store == nil {
			errs = append(errs, ErrNoStore)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return opts, nil
}

func (o Options) minLevel(lang types.Language) types.Level {
	if lang == types.Japanese {
		return o.MinLevelJapanese
	}
	return o.MinLevelEnglish
}

// keyParams lists everything besides the text that shapes the items.
func (o *Orchestrator) keyParams(opts Options, weightsFP string) []string {
	return []string{
		"rules=" + o.rules.Version(),
		"target=" + string(opts.TargetLanguage),
		"mode=" + string(opts.Mode),
		"min_en=" + strconv.Itoa(int(opts.MinLevelEnglish)),
		"min_ja=" + strconv.Itoa(int(opts.MinLevelJapanese)),
		"max=" + strconv.Itoa(opts.MaxItems),
		"nlp=" + o.nlpSignature(),
		"weights=" + weightsFP,
	}
}
