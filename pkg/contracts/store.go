// Package contracts stores uploaded contract files on disk and extracts
// their text for analysis.
package contracts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// allowedExtensions lists the upload types the extraction pipeline handles.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Document describes a stored contract file.
type Document struct {
	// Filename is the name the client uploaded the file under.
	Filename string `json:"filename"`

	// StoredName is the unique on-disk name, a UUID plus the original
	// extension.
	StoredName string `json:"saved_as"`

	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store persists uploaded contracts under a single directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a store
// rooted at it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the uploaded content to disk under a fresh UUID-based name,
// preserving the original extension.
func (s *Store) Save(filename string, r io.Reader) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	storedName := uuid.New().String() + ext
	path := filepath.Join(s.dir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &Document{
		Filename:   filepath.Base(filename),
		StoredName: storedName,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Read returns the raw content of a stored document.
func (s *Store) Read(storedName string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(storedName)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// List returns all stored documents, newest first.
func (s *Store) List() ([]Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing upload directory: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, Document{
			Filename:   entry.Name(),
			StoredName: entry.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// Delete removes a stored document. The name is reduced to its base so a
// crafted path cannot escape the upload directory.
func (s *Store) Delete(storedName string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(storedName)))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
