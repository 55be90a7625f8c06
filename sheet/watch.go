package sheet

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval collapses the burst of events editors emit for one save.
const debounceInterval = 100 * time.Millisecond

// Watch loads the sheet at path, calls fn with it, and calls fn again with a
// fresh load each time the file is written, until ctx is cancelled. Load
// errors after the first are passed to fn rather than ending the watch.
func Watch(ctx context.Context, path string, fn func(*Sheet, error)) error {
	s, err := Load(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors that save by rename replace the file's
	// inode and a watch on the file itself would go quiet.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	fn(s, nil)

	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(debounceInterval)

		case <-debounce.C:
			log.Printf("🔄 Sheet changed: %s", path)
			fn(Load(path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️  Watch error: %v", err)
		}
	}
}
