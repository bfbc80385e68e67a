// Package fs implements file storage against a local notes directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// noteExtensions are the file types treated as notes. Everything else is
// invisible to listings.
var noteExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Store serves note files from a root directory. All paths in the API are
// slash-separated and relative to the root.
type Store struct {
	root string
}

var _ driven.FileStore = (*Store)(nil)

// NewStore creates a file store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("notes directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notes directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat notes directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notes path is not a directory: %s", abs)
	}
	return &Store{root: abs}, nil
}

// resolve maps a relative note path onto the filesystem, refusing paths that
// escape the root.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: path escapes notes root: %s", domain.ErrUnsupportedSource, path)
	}
	return filepath.Join(s.root, clean), nil
}

// Exists reports whether path refers to an existing regular file.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the full text content of a file.
func (s *Store) Read(_ context.Context, path string) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// ModTime returns the file's modification stamp in unix milliseconds.
func (s *Store) ModTime(_ context.Context, path string) (int64, error) {
	full, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.ModTime().UnixMilli(), nil
}

// ListDirectChildren enumerates a folder's note files and subfolders, one
// level deep. Hidden entries are skipped.
func (s *Store) ListDirectChildren(_ context.Context, folderPath string) (*driven.FolderListing, error) {
	full, err := s.resolve(folderPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, folderPath)
		}
		return nil, fmt.Errorf("failed to list folder: %w", err)
	}

	listing := &driven.FolderListing{}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		child := name
		if folderPath != "" && folderPath != "." {
			child = strings.TrimSuffix(folderPath, "/") + "/" + name
		}
		if entry.IsDir() {
			listing.Subfolders = append(listing.Subfolders, child)
		} else if noteExtensions[strings.ToLower(filepath.Ext(name))] {
			listing.Files = append(listing.Files, child)
		}
	}
	sort.Strings(listing.Files)
	sort.Strings(listing.Subfolders)
	return listing, nil
}

// ListFilesUnderPrefix returns all note file paths under the prefix,
// recursively. An empty prefix walks the whole root.
func (s *Store) ListFilesUnderPrefix(_ context.Context, prefix string) ([]string, error) {
	start, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != start {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !noteExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, prefix)
		}
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// TagsForFile returns the tags attached to a file, combining YAML frontmatter
// tags with inline #hashtags from the body. Tags are deduplicated and
// lowercased.
func (s *Store) TagsForFile(ctx context.Context, path string) ([]string, error) {
	content, err := s.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	body := content
	if fm, rest, ok := splitFrontmatter(content); ok {
		body = rest
		for _, tag := range frontmatterTags(fm) {
			add(tag)
		}
	}
	for _, tag := range inlineTags(body) {
		add(tag)
	}
	return tags, nil
}

// splitFrontmatter separates a leading YAML frontmatter block delimited by
// "---" lines from the document body.
func splitFrontmatter(content string) (frontmatter, body string, ok bool) {
	if !strings.HasPrefix(content, "---\n") && content != "---" {
		return "", "", false
	}
	rest := strings.TrimPrefix(content, "---\n")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", false
	}
	frontmatter = rest[:idx]
	body = rest[idx+len("\n---"):]
	if after, found := strings.CutPrefix(body, "\n"); found {
		body = after
	}
	return frontmatter, body, true
}

// frontmatterTags extracts the tags field, tolerating both a YAML list and a
// single comma-separated string.
func frontmatterTags(fm string) []string {
	var doc struct {
		Tags any `yaml:"tags"`
	}
	if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
		return nil
	}
	switch v := doc.Tags.(type) {
	case []any:
		var tags []string
		for _, item := range v {
			if s, isStr := item.(string); isStr {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		return strings.Split(v, ",")
	default:
		return nil
	}
}

// inlineTags finds #hashtag tokens in the body. A tag starts with '#' at a
// word boundary and runs over letters, digits, hyphens and slashes.
func inlineTags(body string) []string {
	var tags []string
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '#' {
			continue
		}
		if i > 0 && !unicode.IsSpace(runes[i-1]) && runes[i-1] != '(' {
			continue
		}
		j := i + 1
		for j < len(runes) && isTagRune(runes[j]) {
			j++
		}
		if j > i+1 {
			tags = append(tags, string(runes[i+1:j]))
		}
		i = j - 1
	}
	return tags
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '/'
}
