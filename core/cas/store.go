package cas

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// ErrBlobNotFound is returned when a blob with the given digest does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidHash is returned when a digest string is malformed.
var ErrInvalidHash = errors.New("invalid hash format")

// Store keeps rendered output blobs addressed by their BLAKE3 digest.
type Store struct {
	root string
}

// NewStore opens or creates a store rooted at root.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "blake3"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Put stores data and returns its digests. Storing identical content twice
// is a no-op.
func (s *Store) Put(data []byte) (Digest, error) {
	d := Sum(data)
	blobPath := s.pathFor(d.BLAKE3)
	if _, err := os.Stat(blobPath); err == nil {
		return d, nil
	}

	dir := filepath.Dir(blobPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Digest{}, fmt.Errorf("failed to create prefix directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return Digest{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return Digest{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return Digest{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := osRename(tempPath, blobPath); err != nil {
		os.Remove(tempPath)
		return Digest{}, fmt.Errorf("failed to rename blob: %w", err)
	}
	return d, nil
}

// Get returns the blob with the given BLAKE3 digest.
func (s *Store) Get(blake3Hash string) ([]byte, error) {
	if !ValidHash(blake3Hash) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(s.pathFor(blake3Hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Has reports whether a blob with the digest exists.
func (s *Store) Has(blake3Hash string) bool {
	if !ValidHash(blake3Hash) {
		return false
	}
	_, err := os.Stat(s.pathFor(blake3Hash))
	return err == nil
}

// pathFor returns <root>/blobs/blake3/<first2>/<hash>.
func (s *Store) pathFor(hash string) string {
	return filepath.Join(s.root, "blobs", "blake3", hash[:2], hash)
}
