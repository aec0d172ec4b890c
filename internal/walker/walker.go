// Package walker discovers indexable source files under a project root.
//
// Entries within a directory are emitted in lexicographic order so that
// chunk ordinals stay stable across re-indexes of unchanged trees.
package walker

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string // absolute path on disk
	RelPath string // project-relative, forward-slash normalized
	Size    int64
	Mtime   int64 // unix seconds
}

// Options controls a walk.
type Options struct {
	// Root is the project directory.
	Root string
	// Extensions is the accepted extension set, without the dot.
	Extensions map[string]bool
	// Include globs; when non-empty a file must match at least one.
	Include []string
	// Exclude globs; matching files are dropped and matching directories
	// are pruned without being descended into.
	Exclude []string
	// DirOpened, when set, is called with each directory's relative path
	// just before its entries are read.
	DirOpened func(rel string)
}

// Walk traverses the tree rooted at opts.Root and sends accepted files on
// the returned channel in deterministic order. Symlinked directories are
// followed at most once each, so cycles terminate.
func Walk(ctx context.Context, opts Options) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(opts.Root)
		if err != nil {
			errs <- err
			return
		}

		w := &walk{
			opts:    opts,
			files:   files,
			ctx:     ctx,
			visited: make(map[string]bool),
		}
		if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
			w.visited[resolved] = true
		}
		if err := w.dir(absRoot, ""); err != nil {
			errs <- err
		}
	}()

	return files, errs
}

type walk struct {
	opts    Options
	files   chan<- FileInfo
	ctx     context.Context
	visited map[string]bool // resolved directory paths already descended into
}

// dir reads one directory and recurses into accepted subdirectories.
func (w *walk) dir(abs, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if w.opts.DirOpened != nil {
		w.opts.DirOpened(rel)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		// Unreadable directories are skipped, not fatal.
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		entryAbs := filepath.Join(abs, name)
		entryRel := name
		if rel != "" {
			entryRel = path.Join(rel, name)
		}

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(entryAbs)
			if err != nil {
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			// Pruning: a directory whose contents can only match an
			// exclude glob is not descended into.
			if matchesAny(w.opts.Exclude, entryRel+"/x") || matchesAny(w.opts.Exclude, entryRel) {
				continue
			}
			if resolved, err := filepath.EvalSymlinks(entryAbs); err == nil {
				if w.visited[resolved] {
					continue
				}
				w.visited[resolved] = true
			}
			if err := w.dir(entryAbs, entryRel); err != nil {
				return err
			}
			continue
		}

		if !w.accept(entryRel) {
			continue
		}

		info, err := os.Stat(entryAbs)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Size() > maxFileSize {
			continue
		}

		fi := FileInfo{
			Path:    entryAbs,
			RelPath: entryRel,
			Size:    info.Size(),
			Mtime:   info.ModTime().Unix(),
		}
		select {
		case w.files <- fi:
		case <-w.ctx.Done():
			return w.ctx.Err()
		}
	}
	return nil
}

// accept applies the extension whitelist and the include/exclude globs to a
// relative file path.
func (w *walk) accept(rel string) bool {
	ext := strings.TrimPrefix(path.Ext(rel), ".")
	if !w.opts.Extensions[ext] {
		return false
	}
	if matchesAny(w.opts.Exclude, rel) {
		return false
	}
	if len(w.opts.Include) > 0 && !matchesAny(w.opts.Include, rel) {
		return false
	}
	return true
}

// matchesAny reports whether rel matches any of the glob patterns.
// Patterns use forward slashes and support *, **, ? and character classes.
func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if matched, err := doublestar.Match(filepath.ToSlash(p), rel); err == nil && matched {
			return true
		}
	}
	return false
}

// ExtensionSet builds the whitelist map from a list of extensions.
func ExtensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.TrimPrefix(e, ".")] = true
	}
	return set
}
