package file_watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/meysamhadeli/projctx/context_storage/models"
	"github.com/meysamhadeli/projctx/logging"
	"github.com/meysamhadeli/projctx/metrics"
	"github.com/meysamhadeli/projctx/utils"
	"go.uber.org/zap"
)

// pendingEvent is the latest event waiting for the debounce timer.
type pendingEvent struct {
	kind EventKind
	path string
}

// session watches one project root. A burst of events collapses into a single
// scheduled update: every event stops the pending timer and schedules a new one.
type session struct {
	id        string
	root      string
	startedAt time.Time
	debounce  time.Duration

	watcher   *fsnotify.Watcher
	rules     *utils.IgnoreRules
	recorder  ChangeRecorder
	rescanner Rescanner

	mutex       sync.Mutex
	changeCount int
	lastUpdate  time.Time
	lastEvent   *pendingEvent
	timer       *time.Timer
	generation  uint64
	watchedDirs map[string]bool
	stopped     bool
	active      bool

	// rescanMutex serialises rescans of this root.
	rescanMutex sync.Mutex
	inflight    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	doneCh chan struct{}
}

func newSession(id string, root string, debounce time.Duration, recorder ChangeRecorder, rescanner Rescanner) (*session, error) {
	rules, err := utils.LoadIgnoreRules(root)
	if err != nil {
		logging.Warn("failed to load .gitignore, using default ignore rules", logging.Project(root), logging.Err(err))
		rules = utils.NewIgnoreRules(utils.DefaultIgnorePatterns)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:          id,
		root:        root,
		startedAt:   time.Now(),
		debounce:    debounce,
		watcher:     watcher,
		rules:       rules,
		recorder:    recorder,
		rescanner:   rescanner,
		watchedDirs: make(map[string]bool),
		active:      true,
		ctx:         ctx,
		cancel:      cancel,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	if err := s.addTree(root); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}
	return s, nil
}

// run pumps fsnotify events until stop is requested or the backend closes its channels.
func (s *session) run() {
	defer close(s.doneCh)
	defer s.markInactive()

	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				select {
				case <-s.stopCh:
				default:
					logging.Warn("watch backend closed its event channel", logging.Project(s.root))
				}
				return
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", logging.Project(s.root), logging.Err(err))
		}
	}
}

func (s *session) markInactive() {
	s.mutex.Lock()
	s.active = false
	s.mutex.Unlock()
}

// stop ends the event loop, drops the pending timer and waits for in-flight work.
func (s *session) stop() error {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		<-s.doneCh
		return nil
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mutex.Unlock()

	close(s.stopCh)
	s.cancel()
	err := s.watcher.Close()
	<-s.doneCh
	s.inflight.Wait()

	if err != nil {
		return fmt.Errorf("failed to close watcher for %s: %w", s.root, err)
	}
	return nil
}

// addTree registers dir and every non-ignored directory below it.
func (s *session) addTree(dir string) error {
	return filepath.WalkDir(dir, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if fullPath == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if fullPath != s.root {
			if relativePath, ok := s.relative(fullPath); !ok || s.rules.Match(relativePath, true) {
				return filepath.SkipDir
			}
		}
		if err := s.watcher.Add(fullPath); err != nil {
			if fullPath == dir {
				return fmt.Errorf("failed to watch %s: %w", fullPath, err)
			}
			logging.Warn("failed to watch directory", logging.Path(fullPath), logging.Err(err))
			return nil
		}
		s.mutex.Lock()
		s.watchedDirs[fullPath] = true
		s.mutex.Unlock()
		return nil
	})
}

func (s *session) relative(fullPath string) (string, bool) {
	relativePath, err := filepath.Rel(s.root, fullPath)
	if err != nil || relativePath == "." || strings.HasPrefix(relativePath, "..") {
		return "", false
	}
	return filepath.ToSlash(relativePath), true
}

// handle maps one fsnotify event onto a session event.
func (s *session) handle(event fsnotify.Event) {
	relativePath, ok := s.relative(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if s.rules.Match(relativePath, true) {
				return
			}
			if err := s.addTree(event.Name); err != nil {
				logging.Warn("failed to watch new directory", logging.Path(event.Name), logging.Err(err))
			}
			s.record(EventAddDir, relativePath)
			return
		}
		if !s.rules.Match(relativePath, false) {
			s.record(EventAdd, relativePath)
		}

	case event.Has(fsnotify.Write):
		if !s.rules.Match(relativePath, false) {
			s.record(EventChange, relativePath)
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		isDir := s.forgetDirectory(event.Name)
		if s.rules.Match(relativePath, isDir) {
			return
		}
		if isDir {
			s.record(EventRemoveDir, relativePath)
		} else {
			s.record(EventRemove, relativePath)
		}
	}
}

// forgetDirectory drops a removed directory and its children from the watched set.
func (s *session) forgetDirectory(fullPath string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.watchedDirs[fullPath] {
		return false
	}
	prefix := fullPath + string(filepath.Separator)
	for dir := range s.watchedDirs {
		if dir == fullPath || strings.HasPrefix(dir, prefix) {
			delete(s.watchedDirs, dir)
		}
	}
	// The kernel drops the watch with the directory; Remove only fails then.
	_ = s.watcher.Remove(fullPath)
	return true
}

// record counts the event and (re)schedules the debounce timer.
func (s *session) record(kind EventKind, relativePath string) {
	metrics.RecordWatchEvent(string(kind))
	logging.Debug("file system event", logging.Project(s.root), zap.String("event", string(kind)), logging.Path(relativePath))

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stopped {
		return
	}

	s.changeCount++
	s.lastUpdate = time.Now()
	// A write right after creating a file is still an addition.
	if s.lastEvent == nil || s.lastEvent.path != relativePath || s.lastEvent.kind != EventAdd || kind != EventChange {
		s.lastEvent = &pendingEvent{kind: kind, path: relativePath}
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	generation := s.generation
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(generation) })
}

// fire runs when the debounce delay passed without further events. A timer
// that fired while a newer one was being scheduled finds a stale generation
// and leaves the pending event to the newer timer.
func (s *session) fire(generation uint64) {
	s.mutex.Lock()
	if s.stopped || s.lastEvent == nil || generation != s.generation {
		s.mutex.Unlock()
		return
	}
	event := *s.lastEvent
	s.lastEvent = nil
	s.timer = nil
	s.inflight.Add(1)
	s.mutex.Unlock()

	defer s.inflight.Done()
	s.apply(event)
}

// apply records the change in the development log and rescans when warranted.
// Failures are logged; they never end the session.
func (s *session) apply(event pendingEvent) {
	_, err := s.recorder.AppendUpdate(s.root, models.Update{
		Type:    models.UpdateFileSystemChange,
		Content: fmt.Sprintf("%s: %s", event.kind, event.path),
		Tags:    []string{"auto-generated", "file-watcher"},
		Metadata: map[string]string{
			"event": string(event.kind),
			"path":  event.path,
		},
	})
	if err != nil {
		logging.Error("failed to record file system change", logging.Project(s.root), logging.Err(err))
	}

	if !event.kind.IsDirectory() && !IsSignificantChange(event.kind, event.path) {
		return
	}

	s.rescanMutex.Lock()
	defer s.rescanMutex.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	metrics.RecordWatchRescan()
	logging.Info("rescanning after file system change", logging.Project(s.root), zap.String("event", string(event.kind)), logging.Path(event.path))
	if err := s.rescanner.Rescan(s.ctx, s.root); err != nil {
		logging.Error("rescan failed", logging.Project(s.root), logging.Err(err))
	}
}

func (s *session) status() SessionStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	status := SessionStatus{
		ID:          s.id,
		ProjectPath: s.root,
		Project:     filepath.Base(s.root),
		StartedAt:   s.startedAt,
		ChangeCount: s.changeCount,
		Active:      s.active && !s.stopped,
		WatchedDirs: len(s.watchedDirs),
	}
	if !s.lastUpdate.IsZero() {
		lastUpdate := s.lastUpdate
		status.LastUpdate = &lastUpdate
	}
	if s.lastEvent != nil {
		status.PendingEvent = fmt.Sprintf("%s: %s", s.lastEvent.kind, s.lastEvent.path)
	}
	return status
}
