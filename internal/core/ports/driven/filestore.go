package driven

import (
	"context"
)

// FolderListing holds the direct children of a folder, one level only.
// Recursion over subfolders is explicit in the caller.
type FolderListing struct {
	Files      []string
	Subfolders []string
}

// FileStore abstracts the host file storage
type FileStore interface {
	// Exists reports whether the path refers to an existing file
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the full text content of a file
	Read(ctx context.Context, path string) (string, error)

	// ModTime returns the file's modification stamp in unix milliseconds
	ModTime(ctx context.Context, path string) (int64, error)

	// ListDirectChildren enumerates a folder's direct files and subfolders
	ListDirectChildren(ctx context.Context, folderPath string) (*FolderListing, error)

	// ListFilesUnderPrefix returns all file paths under the prefix, recursively
	ListFilesUnderPrefix(ctx context.Context, prefix string) ([]string, error)

	// TagsForFile returns the tags attached to a file
	TagsForFile(ctx context.Context, path string) ([]string, error)
}
