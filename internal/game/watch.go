package game

import (
	"context"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher notifies onChange after scenario files in a directory change.
// Events within the debounce window are reported once.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(paths []string)
	log      zerolog.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher starts watching dir. Call Run to deliver changes and Close when done.
func NewWatcher(dir string, debounce time.Duration, onChange func(paths []string), log zerolog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		log:      log.With().Str("component", "scenario_watcher").Str("dir", dir).Logger(),
		fs:       fs,
	}, nil
}

// Run blocks until ctx is done or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = map[string]struct{}{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.log.Info().Msg("watching scenarios")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			w.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("scenario file event")
			pending[ev.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]struct{}{}
			w.log.Info().Strs("files", paths).Msg("scenario files changed")
			if w.onChange != nil {
				w.onChange(paths)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("scenario watcher error")
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error { return w.fs.Close() }
