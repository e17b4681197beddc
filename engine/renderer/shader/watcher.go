package shader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reload names a shader source that changed on disk.
type Reload struct {
	Name string
	Path string
}

// Watcher watches a shader override directory and reports edited .wgsl files.
// Reloads are delivered on a channel so the render thread can rebuild pipelines between frames.
type Watcher struct {
	watcher *fsnotify.Watcher
	reloads chan Reload
	done    chan struct{}
	once    *sync.Once
	logger  zerolog.Logger
}

// NewWatcher starts watching dir.
//
// Parameters:
//   - dir: the shader override directory
//   - logger: the logger used for watch errors
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the directory cannot be watched
func NewWatcher(dir string, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader: failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("shader: failed to watch %q: %w", dir, err)
	}
	w := &Watcher{
		watcher: fw,
		reloads: make(chan Reload, 16),
		done:    make(chan struct{}),
		once:    &sync.Once{},
		logger:  logger,
	}
	go w.watchLoop()
	return w, nil
}

// Reloads returns the channel of changed sources. A full channel drops the event;
// the pending entry for the same file already covers it.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".wgsl") {
				continue
			}
			r := Reload{Name: filepath.Base(event.Name), Path: event.Name}
			select {
			case w.reloads <- r:
			default:
				w.logger.Debug().Str("shader", r.Name).Msg("reload queue full, dropping event")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("shader watcher error")
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
