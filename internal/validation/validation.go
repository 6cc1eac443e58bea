// Package validation checks paths, file names and chart sources read at the
// command-line boundary, guarding against path traversal and oversized
// input.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxSourceSize is the largest chart source accepted (1 MB).
	MaxSourceSize = 1 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// SourceExt is the extension of chart source files.
const SourceExt = ".cchart"

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrNotChartSource   = errors.New("not a " + SourceExt + " file")
	ErrSourceTooLarge   = errors.New("source too large")
	ErrBinarySource     = errors.New("source is not UTF-8 text")
)

// SanitizePath validates a user-supplied path to prevent path traversal
// attacks. It returns the cleaned path relative to baseDir, or an error if
// the path would escape it.
func SanitizePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}
	if len(userPath) > MaxPathLength {
		return "", ErrPathTooLong
	}

	cleanPath := filepath.Clean(userPath)
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleanPath, nil
}

// ValidateFilename checks that a single path element is safe to create.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Could be mistaken for a flag.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ValidatePath checks length and characters of a path without a base
// directory.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateSourcePath checks a chart source path and its extension.
func ValidateSourcePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), SourceExt) {
		return fmt.Errorf("%w: %s", ErrNotChartSource, filepath.Base(path))
	}
	return ValidateFilename(filepath.Base(path))
}

// SanitizeFilename turns free text, such as a chart title, into a safe
// file name. Runs of anything other than letters, digits, '-', '_' and '.'
// become a single '-'.
func SanitizeFilename(name string) (string, error) {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if len(out) > MaxFilenameLength {
		out = out[:MaxFilenameLength]
		for !utf8.ValidString(out) {
			out = out[:len(out)-1]
		}
	}
	if err := ValidateFilename(out); err != nil {
		return "", err
	}
	return out, nil
}

// ReadSource reads a chart source of at most limit bytes (MaxSourceSize
// when limit <= 0) and checks that it is UTF-8 text.
func ReadSource(r io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = MaxSourceSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, limit)
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", ErrBinarySource
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return string(data), nil
}

// ReadSourceFile validates path and reads the chart source it names.
func ReadSourceFile(path string, limit int64) (string, error) {
	if err := ValidateSourcePath(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ReadSource(f, limit)
}

// FileType represents a detected bundle file type.
type FileType string

const (
	FileTypeTarXZ   FileType = "tar.xz"
	FileTypeTarGZ   FileType = "tar.gz"
	FileTypeUnknown FileType = "unknown"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// DetectBundleType reads the header of a bundle and checks that its
// content matches the extension of filename.
func DetectBundleType(r io.Reader, filename string) (FileType, error) {
	buf := make([]byte, len(xzMagic))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := FileTypeUnknown
	switch {
	case bytes.HasPrefix(buf, xzMagic):
		detected = FileTypeTarXZ
	case bytes.HasPrefix(buf, gzipMagic):
		detected = FileTypeTarGZ
	}

	expected := bundleTypeFromExtension(filename)
	if detected == FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("%s is not a compressed bundle", filepath.Base(filename))
	}
	if expected != FileTypeUnknown && expected != detected {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
	}
	return detected, nil
}

func bundleTypeFromExtension(filename string) FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FileTypeTarXZ
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FileTypeTarGZ
	}
	return FileTypeUnknown
}
