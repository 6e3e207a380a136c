package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes another process makes to the session file, such as
// a logout in a second client sharing the same storage. fn receives the
// freshly loaded session; a removed session arrives as the zero Session.
// Writes made through this store are reported too.
//
// Watch blocks until ctx is done.
func (f *FileSessionStore) Watch(ctx context.Context, fn func(Session, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: watch: %v", ErrStorage, err)
	}
	defer func() { _ = w.Close() }()

	// Watch the directory: writeDoc replaces the file by rename.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrStorage, dir, err)
	}

	target := filepath.Clean(f.path)
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&relevant == 0 {
				continue
			}
			s, err := f.Load()
			if errors.Is(err, ErrNoSession) {
				fn(Session{}, nil)
				continue
			}
			fn(s, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(Session{}, fmt.Errorf("%w: watch: %v", ErrStorage, err))
		}
	}
}
