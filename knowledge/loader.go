package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/krishg0kul/genai-multi-agent/errors"
)

// DefaultPatterns are the document globs loaded when none are configured.
var DefaultPatterns = []string{"**/*.md", "**/*.markdown", "**/*.txt", "**/*.csv"}

// matchFiles lists the files under dir matching any pattern, sorted and
// de-duplicated. A missing dir yields no files.
func matchFiles(dir string, patterns []string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not stat %s", dir)
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.New("invalid document pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to glob %s in %s", pattern, dir)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDocuments reads every matching document under dir in path order.
func LoadDocuments(dir string, patterns []string) ([]Document, error) {
	files, err := matchFiles(dir, patterns)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(files))
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read document %s", rel)
		}
		docs = append(docs, Document{Path: filepath.ToSlash(rel), Content: string(data)})
	}
	return docs, nil
}

// fingerprint summarizes the matched files (path, size, mtime) so a persisted
// index can be reused while its sources are unchanged.
func fingerprint(dir string, patterns []string, extra string) (string, error) {
	files, err := matchFiles(dir, patterns)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", extra)
	for _, rel := range files {
		info, err := fs.Stat(os.DirFS(dir), rel)
		if err != nil {
			return "", errors.Wrapf(err, "failed to stat %s", rel)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", rel, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
