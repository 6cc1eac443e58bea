package validation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizePath(t *testing.T) {
	baseDir := "/tmp/charts"

	tests := []struct {
		name      string
		userPath  string
		want      string
		wantError error
	}{
		{"simple", "song.svg", "song.svg", nil},
		{"nested", "set1/song.svg", filepath.Join("set1", "song.svg"), nil},
		{"redundant separators", "set1//song.svg", filepath.Join("set1", "song.svg"), nil},
		{"dots inside name", "a..b.svg", "a..b.svg", nil},
		{"empty", "", "", ErrEmptyPath},
		{"parent", "../etc/passwd", "", ErrPathTraversal},
		{"parent after clean", "set1/../../x", "", ErrPathTraversal},
		{"absolute", "/etc/passwd", "", ErrPathTraversal},
		{"too long", strings.Repeat("a", MaxPathLength+1), "", ErrPathTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(baseDir, tt.userPath)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("SanitizePath() error = %v, want %v", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SanitizePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"song.cchart", nil},
		{"", ErrInvalidFilename},
		{"..", ErrInvalidFilename},
		{"a/b", ErrInvalidFilename},
		{"a\x00b", ErrInvalidFilename},
		{"a\nb", ErrInvalidFilename},
		{"-rf", ErrInvalidFilename},
		{strings.Repeat("x", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		err := ValidateFilename(tt.name)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateFilename(%q) = %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateFilename(%q) = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath("charts/a.cchart"); err != nil {
		t.Errorf("ValidatePath() = %v", err)
	}
	if err := ValidatePath(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("ValidatePath(empty) = %v", err)
	}
	if err := ValidatePath("a\x01b"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("ValidatePath(control) = %v", err)
	}
}

func TestValidateSourcePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr error
	}{
		{"songs/blue-bossa.cchart", nil},
		{"songs/UPPER.CCHART", nil},
		{"songs/blue-bossa.txt", ErrNotChartSource},
		{"songs/-x.cchart", ErrInvalidFilename},
		{"", ErrEmptyPath},
	}
	for _, tt := range tests {
		err := ValidateSourcePath(tt.path)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateSourcePath(%q) = %v", tt.path, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateSourcePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Autumn Leaves", "Autumn-Leaves", false},
		{"Rock & Roll <Live>", "Rock-Roll-Live", false},
		{"  ../etc/passwd ", "etc-passwd", false},
		{"Días de Sol", "Días-de-Sol", false},
		{"***", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long, err := SanitizeFilename(strings.Repeat("é", 300))
	if err != nil {
		t.Fatal(err)
	}
	if len(long) > MaxFilenameLength {
		t.Errorf("len = %d", len(long))
	}
}

func TestReadSource(t *testing.T) {
	src, err := ReadSource(strings.NewReader("\xef\xbb\xbfTitle: X\n"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if src != "Title: X\n" {
		t.Errorf("ReadSource() = %q, BOM should be stripped", src)
	}

	if _, err := ReadSource(strings.NewReader("12345"), 4); !errors.Is(err, ErrSourceTooLarge) {
		t.Errorf("oversized: err = %v", err)
	}
	if _, err := ReadSource(strings.NewReader("1234"), 4); err != nil {
		t.Errorf("exact limit: err = %v", err)
	}
	if _, err := ReadSource(bytes.NewReader([]byte{'a', 0, 'b'}), 0); !errors.Is(err, ErrBinarySource) {
		t.Errorf("NUL: err = %v", err)
	}
	if _, err := ReadSource(bytes.NewReader([]byte{0xff, 0xfe}), 0); !errors.Is(err, ErrBinarySource) {
		t.Errorf("invalid UTF-8: err = %v", err)
	}
}

func TestReadSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.cchart")
	if err := os.WriteFile(path, []byte("Title: Song\nC\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := ReadSourceFile(path, 0)
	if err != nil || src != "Title: Song\nC\n" {
		t.Errorf("ReadSourceFile() = %q, %v", src, err)
	}
	if _, err := ReadSourceFile(filepath.Join(dir, "missing.cchart"), 0); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := ReadSourceFile(filepath.Join(dir, "song.md"), 0); !errors.Is(err, ErrNotChartSource) {
		t.Errorf("wrong extension: err = %v", err)
	}
}

func TestDetectBundleType(t *testing.T) {
	xz := append([]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 'x')
	gz := []byte{0x1f, 0x8b, 0x08, 0x00}

	tests := []struct {
		name    string
		data    []byte
		file    string
		want    FileType
		wantErr bool
	}{
		{"xz", xz, "out.tar.xz", FileTypeTarXZ, false},
		{"gz", gz, "out.tgz", FileTypeTarGZ, false},
		{"no extension hint", gz, "bundle", FileTypeTarGZ, false},
		{"mismatch", gz, "out.tar.xz", FileTypeUnknown, true},
		{"plain", []byte("Title: x"), "out.tar.gz", FileTypeUnknown, true},
		{"empty", nil, "out.tar.gz", FileTypeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectBundleType(bytes.NewReader(tt.data), tt.file)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("DetectBundleType() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}
