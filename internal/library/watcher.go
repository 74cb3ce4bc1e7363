// Package library watches the video library directory and registers
// new recordings as review sessions.
package library

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/psarathy/drishti/internal/store"
	"github.com/psarathy/drishti/internal/video"
)

// settleDelay is how long a new file must sit unmodified before it is
// registered. Recordings are usually copied into the library, and the
// file is unreadable until the copy finishes.
const settleDelay = 2 * time.Second

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// Watcher monitors a directory for video files and creates a session
// row for each one that does not have one yet.
type Watcher struct {
	dir     string
	store   *store.Store
	factory video.Factory
	watcher *fsnotify.Watcher
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a new Watcher for the given library directory.
func New(dir string, st *store.Store) *Watcher {
	return &Watcher{
		dir:     dir,
		store:   st,
		factory: video.NewFileSource,
		settle:  settleDelay,
		pending: make(map[string]*time.Timer),
	}
}

// SetSourceFactory replaces the video source constructor, used by tests
// to probe metadata without real video files.
func (w *Watcher) SetSourceFactory(f video.Factory) {
	w.factory = f
}

// SetSettleDelay overrides the settle delay, used by tests.
func (w *Watcher) SetSettleDelay(d time.Duration) {
	w.settle = d
}

// Start registers sessions for videos already in the library, then
// begins watching for new arrivals.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	w.scanExisting()

	go w.run()

	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	log.Printf("Watching library directory %s", w.dir)
	return nil
}

// Stop stops watching and cancels any files still settling.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		w.watcher.Close()
	}

	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

// scanExisting registers any videos already present in the library.
// Files on disk at startup are complete, so no settle delay applies.
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Printf("Failed to scan library directory: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isVideo(path) {
			w.register(path)
		}
	}
}

// run processes filesystem events until the watcher is closed.
func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isVideo(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				w.schedule(event.Name)
			case event.Op&fsnotify.Write == fsnotify.Write:
				// Still being copied; push the settle timer back
				w.reschedule(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.cancel(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Library watch error: %v", err)
		}
	}
}

// schedule arms the settle timer for a newly created file.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.register(path)
	})
}

// reschedule resets the settle timer if the file is still pending.
func (w *Watcher) reschedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
	}
}

// cancel drops the settle timer for a file that disappeared.
func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

// register creates a session row for the video unless one exists.
func (w *Watcher) register(path string) {
	if _, err := w.store.Sessions().GetByVideoPath(path); err == nil {
		return
	}

	src := w.factory(path)
	if err := src.Open(); err != nil {
		log.Printf("Skipping unreadable video %s: %v", path, err)
		return
	}
	meta, err := src.Metadata()
	src.Close()
	if err != nil {
		log.Printf("Skipping video %s: %v", path, err)
		return
	}

	session := &store.Session{
		ID:        uuid.New().String(),
		Title:     titleFor(path),
		VideoPath: path,
		Duration:  meta.Duration,
		Width:     meta.Width,
		Height:    meta.Height,
	}

	if err := w.store.Sessions().Create(session); err != nil {
		log.Printf("Failed to register session for %s: %v", path, err)
		return
	}

	log.Printf("Registered session %q for %s (%.1fs)", session.Title, path, meta.Duration)
}

// isVideo reports whether the path has a known video extension.
func isVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// titleFor derives a session title from the video filename.
func titleFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
