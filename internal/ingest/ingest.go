// Package ingest loads local RDF seed files into a Target.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"quadsync/internal/config"
	"quadsync/internal/format"
)

type Result struct {
	FilesLoaded  int
	FilesSkipped int
	QuadsAdded   int
	Errors       []error
}

type Options struct {
	// Full ignores recorded hashes and reloads every file.
	Full   bool
	Hashes HashStore
	// BaseURI, when set, replaces the file:// base of each document; the
	// file's path relative to its seed root is appended.
	BaseURI string
}

var contentTypes = map[string]string{
	".ttl":    "text/turtle",
	".turtle": "text/turtle",
	".n3":     "text/n3",
	".rdf":    "application/rdf+xml",
	".owl":    "application/rdf+xml",
	".xml":    "application/rdf+xml",
	".nq":     "application/n-quads",
	".nt":     "application/n-triples",
}

// ContentTypeFor maps a file name to the content type of its parser, or "".
func ContentTypeFor(path string) string {
	return contentTypes[strings.ToLower(filepath.Ext(path))]
}

func Run(ctx context.Context, cfg *config.ProjectConfig, target Target, options Options) (*Result, error) {
	var existing map[string]string
	if options.Hashes != nil && !options.Full {
		var err error
		existing, err = options.Hashes.SeedHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get seed hashes: %w", err)
		}
	}

	files, err := walkRDFFiles(cfg.Seed.Paths, cfg.Seed.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking seed files: %w", err)
	}

	result := &Result{}
	seen := make(map[string]bool)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, err := os.ReadFile(file.path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", file.path, err))
			continue
		}
		hash := computeHash(data)
		if seen[hash] {
			result.FilesSkipped++
			continue
		}
		seen[hash] = true
		if prev, ok := existing[file.path]; ok && prev == hash {
			result.FilesSkipped++
			continue
		}

		doc := format.Document{
			Data:        data,
			ContentType: ContentTypeFor(file.path),
			Base:        baseFor(file, options.BaseURI),
		}
		n, err := target.Ingest(ctx, doc)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("loading %s: %w", file.path, err))
			continue
		}
		result.FilesLoaded++
		result.QuadsAdded += n

		if options.Hashes != nil {
			if err := options.Hashes.RecordSeedHash(ctx, file.path, hash); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("recording hash for %s: %w", file.path, err))
			}
		}
	}

	return result, nil
}

type seedFile struct {
	root string
	path string
}

func walkRDFFiles(roots []string, excludes []string) ([]seedFile, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []seedFile
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if ContentTypeFor(d.Name()) == "" || isExcluded(path, excluded) {
				return nil
			}
			files = append(files, seedFile{root: root, path: path})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func baseFor(file seedFile, baseURI string) string {
	if baseURI != "" {
		rel, err := filepath.Rel(file.root, file.path)
		if err != nil {
			rel = filepath.Base(file.path)
		}
		return strings.TrimRight(baseURI, "/") + "/" + filepath.ToSlash(rel)
	}
	abs, err := filepath.Abs(file.path)
	if err != nil {
		abs = file.path
	}
	return "file://" + filepath.ToSlash(abs)
}
