package folio

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch watches the content and static directories until ctx is done.
// After a burst of changes settles it invalidates the post cache and, when
// onChange is not nil, calls it. onChange never runs concurrently with itself.
func (a *App) Watch(ctx context.Context, onChange func()) error {
	if err := a.prepare(); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range a.watchRoots() {
		if err := addRecursive(watcher, root); err != nil {
			return err
		}
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
		runMu sync.Mutex
	)
	fire := func() {
		runMu.Lock()
		defer runMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		a.Posts.Invalidate()
		a.Logger.Info("content changed, post cache invalidated")
		if onChange != nil {
			onChange()
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			a.Logger.Debugf("change detected: %s (%s)", event.Name, event.Op)
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := addRecursive(watcher, event.Name); err != nil {
					a.Logger.Warnf("watch %s: %v", event.Name, err)
				}
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(a.debounce, fire)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warnf("watcher error: %v", err)
		}
	}
}

// watchRoots returns the existing directories Watch observes.
func (a *App) watchRoots() []string {
	candidates := []string{
		a.Config.ContentDir,
		filepath.Dir(a.Config.AboutPath),
		a.Config.StaticDir,
	}
	seen := make(map[string]bool)
	var roots []string
	for _, dir := range candidates {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] || !isDir(abs) {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	return roots
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
