// Package seed imports Markdown files from an optional seed directory into
// the wiki store at startup and keeps them in sync while the process runs.
// Seeding is import-only: nothing is ever written back to disk.
package seed

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/wiki"
)

// Loader imports seed files into a wiki store. It remembers which page each
// file produced so later edits and deletions of the file track the page.
type Loader struct {
	store  *wiki.Store
	root   string
	logger *slog.Logger

	mu     sync.Mutex
	titles map[string]string // relative file path -> page title
}

// NewLoader creates a loader rooted at dir.
func NewLoader(store *wiki.Store, dir string, logger *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		root:   dir,
		logger: logger,
		titles: make(map[string]string),
	}
}

// Load walks the seed directory and imports every .md file, then applies
// wikilinks in a second pass so forward references between seed files
// resolve regardless of walk order. Links to unknown titles are skipped.
func (l *Loader) Load() error {
	type pending struct {
		title string
		links []string
	}
	var links []pending

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return nil
		}
		title, parsed, impErr := l.importFile(rel)
		if impErr != nil {
			l.logger.Warn("seed: import failed", slog.String("path", rel), slog.String("error", impErr.Error()))
			return nil
		}
		links = append(links, pending{title: title, links: parsed.Links})
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range links {
		l.applyLinks(p.title, p.links)
	}
	l.logger.Info("seed: loaded", slog.String("dir", l.root), slog.Int("pages", len(links)))
	return nil
}

// Watch processes file change events under the seed directory until ctx is
// cancelled. Directories created at runtime are added to the watch list.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, l.root); err != nil {
		return err
	}
	l.logger.Info("seed watcher: started", slog.String("root", l.root))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("seed watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			l.handleEvent(w, ev)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (l *Loader) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
				l.logger.Warn("seed watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", addErr.Error()))
			}
			l.importDir(ev.Name)
			return
		}
	}

	if !strings.HasSuffix(ev.Name, ".md") {
		return
	}
	rel, relErr := filepath.Rel(l.root, ev.Name)
	if relErr != nil {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		title, parsed, err := l.importFile(rel)
		if err != nil {
			l.logger.Warn("seed watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		l.applyLinks(title, parsed.Links)
		l.logger.Debug("seed watcher: imported", slog.String("path", rel), slog.String("title", title))

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename fires on the old path; the new path arrives as Create.
		l.forget(rel)
	}
}

// importFile reads and parses one seed file and creates or replaces the
// corresponding page. Returns the resolved page title.
func (l *Loader) importFile(rel string) (string, parser.Result, error) {
	data, err := os.ReadFile(filepath.Join(l.root, rel))
	if err != nil {
		return "", parser.Result{}, err
	}
	res := parser.Parse(data)
	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.ToSlash(rel), ".md")
	}

	l.mu.Lock()
	if prev, ok := l.titles[rel]; ok && prev != title {
		// Frontmatter title changed: the old page is superseded.
		if delErr := l.store.Delete(prev); delErr != nil {
			l.logger.Warn("seed: stale page delete failed", slog.String("title", prev), slog.String("error", delErr.Error()))
		}
	}
	l.titles[rel] = title
	l.mu.Unlock()

	content := res.Body
	if _, getErr := l.store.Get(title); getErr != nil {
		_, err = l.store.Create(title, content, res.Tags)
	} else {
		_, err = l.store.Update(title, wiki.UpdateOptions{Content: &content, Tags: res.Tags})
	}
	if err != nil {
		return "", parser.Result{}, err
	}
	return title, res, nil
}

func (l *Loader) applyLinks(title string, targets []string) {
	for _, target := range targets {
		if err := l.store.Link(title, target); err != nil {
			l.logger.Debug("seed: link skipped", slog.String("from", title), slog.String("to", target))
		}
	}
}

func (l *Loader) forget(rel string) {
	l.mu.Lock()
	title, ok := l.titles[rel]
	delete(l.titles, rel)
	l.mu.Unlock()
	if !ok {
		return
	}
	if err := l.store.Delete(title); err != nil {
		l.logger.Warn("seed watcher: delete failed", slog.String("title", title), slog.String("error", err.Error()))
		return
	}
	l.logger.Debug("seed watcher: removed", slog.String("title", title))
}

// importDir imports any .md files already present in a newly created
// directory.
func (l *Loader) importDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return nil
		}
		if title, parsed, impErr := l.importFile(rel); impErr == nil {
			l.applyLinks(title, parsed.Links)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
