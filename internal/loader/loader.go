package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/document"
)

// Loader is the interface for a format-specific configuration loader. A
// Loader is a pure transformation from file content to a document; it holds
// no state between calls.
type Loader interface {
	// LoadFile parses one file into a document.
	LoadFile(ctx context.Context, path string) (*document.Document, error)
	// Extensions lists the file extensions (with leading dot) this loader
	// accepts.
	Extensions() []string
}

// Multi dispatches files to format-specific loaders by extension and merges
// the results into a single document.
type Multi struct {
	byExt map[string]Loader
}

// NewMulti builds a Multi from the given loaders. Registering two loaders
// for the same extension is a programmer error and panics.
func NewMulti(loaders ...Loader) *Multi {
	m := &Multi{byExt: make(map[string]Loader)}
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			if _, exists := m.byExt[ext]; exists {
				panic(fmt.Sprintf("loader for extension %q already registered", ext))
			}
			m.byExt[ext] = l
		}
	}
	return m
}

// Load discovers config files under the given paths, parses each with the
// loader for its extension, and deep-merges them in discovery order so later
// files win on conflicting keys.
func (m *Multi) Load(ctx context.Context, paths ...string) (*document.Document, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := m.discover(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no configuration files found under %v", paths)
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	var merged *document.Document
	for _, file := range files {
		l := m.byExt[filepath.Ext(file)]
		doc, err := l.LoadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = doc
			continue
		}
		mergeDocument(merged, doc)
	}

	logger.Debug("Configuration loading complete.", "files", len(files), "top_level_fields", merged.Root().Len())
	return merged, nil
}

// discover expands each path into the config files it names. A file path
// must carry a known extension; a directory is walked recursively and
// unknown extensions inside it are skipped. Files within one directory are
// visited in lexical order so merging is deterministic.
func (m *Multi) discover(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; !ok {
			files = append(files, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if _, ok := m.byExt[filepath.Ext(path)]; !ok {
				return nil, fmt.Errorf("unsupported config format %q for %s", filepath.Ext(path), path)
			}
			add(path)
			continue
		}

		var inDir []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := m.byExt[filepath.Ext(p)]; ok {
				inDir = append(inDir, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(inDir)
		for _, p := range inDir {
			add(p)
		}
	}

	return files, nil
}

// mergeDocument merges overlay into base in place. Mappings merge key by
// key recursively; any other kind, and any kind mismatch, replaces the base
// value wholesale. Component specs replace rather than merge: a later file
// redefining a component redefines its whole argument surface.
func mergeDocument(base, overlay *document.Document) {
	mergeMapping(base.Root(), overlay.Root())
	base.Files = append(base.Files, overlay.Files...)
}

func mergeMapping(base, overlay *document.Mapping) {
	for _, key := range overlay.Keys() {
		ov, _ := overlay.Get(key)
		bv, ok := base.Get(key)
		if ok && bv.Kind() == document.KindMapping && ov.Kind() == document.KindMapping {
			mergeMapping(bv.Mapping(), ov.Mapping())
			continue
		}
		base.Set(key, ov)
	}
}

// HasExtension reports whether the multi-loader understands the extension of
// the given path.
func (m *Multi) HasExtension(path string) bool {
	_, ok := m.byExt[filepath.Ext(path)]
	return ok
}

// SupportedExtensions lists the registered extensions, sorted.
func (m *Multi) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.byExt))
	for ext := range m.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
