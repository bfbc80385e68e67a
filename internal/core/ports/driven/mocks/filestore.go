package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// MockFileStore is an in-memory implementation of FileStore for testing.
// Folder structure is derived from the registered file paths.
type MockFileStore struct {
	mu       sync.RWMutex
	contents map[string]string
	modTimes map[string]int64
	tags     map[string][]string
	folders  map[string]bool
}

// NewMockFileStore creates an empty MockFileStore
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		contents: make(map[string]string),
		modTimes: make(map[string]int64),
		tags:     make(map[string][]string),
		folders:  make(map[string]bool),
	}
}

// AddFile registers a file with content and a modification stamp.
// Parent folders are registered implicitly.
func (m *MockFileStore) AddFile(path, content string, modTime int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[path] = content
	m.modTimes[path] = modTime
	for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
		m.folders[dir] = true
	}
}

// AddFolder registers a folder explicitly (needed for empty folders)
func (m *MockFileStore) AddFolder(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := path; dir != ""; dir = parentDir(dir) {
		m.folders[dir] = true
	}
}

// SetTags attaches tags to a file
func (m *MockFileStore) SetTags(path string, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[path] = tags
}

// SetModTime changes a file's modification stamp
func (m *MockFileStore) SetModTime(path string, modTime int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modTimes[path] = modTime
}

func (m *MockFileStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.contents[path]
	return ok, nil
}

func (m *MockFileStore) Read(ctx context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.contents[path]
	if !ok {
		return "", domain.ErrNotFound
	}
	return content, nil
}

func (m *MockFileStore) ModTime(ctx context.Context, path string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.modTimes[path]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return mt, nil
}

func (m *MockFileStore) ListDirectChildren(ctx context.Context, folderPath string) (*driven.FolderListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if folderPath != "" && !m.folders[folderPath] {
		return nil, domain.ErrNotFound
	}

	listing := &driven.FolderListing{}
	seenFolders := make(map[string]bool)

	for path := range m.contents {
		if parentDir(path) == folderPath {
			listing.Files = append(listing.Files, path)
		}
	}
	for folder := range m.folders {
		if parentDir(folder) == folderPath && !seenFolders[folder] {
			seenFolders[folder] = true
			listing.Subfolders = append(listing.Subfolders, folder)
		}
	}

	sort.Strings(listing.Files)
	sort.Strings(listing.Subfolders)
	return listing, nil
}

func (m *MockFileStore) ListFilesUnderPrefix(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []string
	for path := range m.contents {
		if prefix == "" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *MockFileStore) TagsForFile(ctx context.Context, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tags[path], nil
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}
