package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] stats its file.
const DefaultWatchInterval = 5 * time.Second

// ChangeFunc is called with the configuration being replaced, its
// replacement and their [ConfigDiff].
type ChangeFunc func(old, new *Config, diff ConfigDiff)

// stamp identifies one version of the file on disk.
type stamp struct {
	mod  time.Time
	size int64
	sum  [sha256.Size]byte
}

// sameFile reports whether the stat data is unchanged. The content hash is
// only compared after a read.
func (s stamp) sameFile(fi os.FileInfo) bool {
	return fi.ModTime().Equal(s.mod) && fi.Size() == s.size
}

// Watcher polls a config file and hands every valid new version to its
// [ChangeFunc]. Edits that fail to load are logged and ignored; the last
// good configuration stays current.
type Watcher struct {
	path     string
	interval time.Duration
	onChange ChangeFunc

	mu      sync.Mutex
	current *Config
	seen    stamp
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval overrides [DefaultWatchInterval]. Non-positive values are
// ignored.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path and returns a Watcher holding it. onChange may be
// nil. Call [Watcher.Run] to start polling.
func NewWatcher(path string, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: DefaultWatchInterval, onChange: onChange}
	for _, o := range opts {
		o(w)
	}
	cfg, st, err := w.load()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current, w.seen = cfg, st
	return w, nil
}

// Current returns the last configuration that loaded cleanly.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls the file until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if w.touched() {
				w.apply()
			}
		}
	}
}

// Reload reads the file now, whether or not its stat data changed. It
// reports whether a new configuration took effect.
func (w *Watcher) Reload() bool {
	return w.apply()
}

func (w *Watcher) touched() bool {
	fi, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config: watched file unavailable", "path", w.path, "err", err)
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.seen.sameFile(fi)
}

func (w *Watcher) apply() bool {
	cfg, st, err := w.load()
	if err != nil {
		slog.Warn("config: reload rejected, keeping current configuration", "path", w.path, "err", err)
		return false
	}

	w.mu.Lock()
	unchanged := st.sum == w.seen.sum
	w.seen = st
	old := w.current
	if !unchanged {
		w.current = cfg
	}
	w.mu.Unlock()
	if unchanged {
		return false
	}

	diff := Diff(old, cfg)
	slog.Info("config: reloaded", "path", w.path,
		"log_level_changed", diff.LogLevelChanged, "ranking_changed", diff.RankingChanged)
	if len(diff.RestartRequired) > 0 {
		slog.Warn("config: restart needed for some changes", "sections", diff.RestartRequired)
	}
	if w.onChange != nil {
		w.onChange(old, cfg, diff)
	}
	return true
}

func (w *Watcher) load() (*Config, stamp, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, stamp{}, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, stamp{}, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, stamp{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, stamp{}, err
	}
	return cfg, stamp{mod: fi.ModTime(), size: fi.Size(), sum: sha256.Sum256(buf.Bytes())}, nil
}
