package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
)

// Epoch is the modification time written on every bundle entry so the same
// entries always produce the same archive bytes.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Compression selects the bundle compressor.
type Compression int

const (
	Gzip Compression = iota
	XZ
)

func (c Compression) String() string {
	if c == XZ {
		return "xz"
	}
	return "gzip"
}

// Ext returns the bundle file extension for c.
func (c Compression) Ext() string {
	if c == XZ {
		return ".tar.xz"
	}
	return ".tar.gz"
}

// CompressionFor picks the compression from a bundle path's extension.
func CompressionFor(path string) (Compression, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return XZ, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return Gzip, nil
	}
	return Gzip, cerrors.NewUnsupported("archive format", filepath.Base(path))
}

// Entry is one file of a bundle.
type Entry struct {
	Name string
	Data []byte
}

// WriteBundle writes entries as a compressed tar stream under baseDir.
// Entries are sorted by name and all metadata is normalised.
func WriteBundle(w io.Writer, comp Compression, baseDir string, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return fmt.Errorf("duplicate bundle entry %q", sorted[i].Name)
		}
	}

	var (
		cw  io.WriteCloser
		err error
	)
	switch comp {
	case XZ:
		cw, err = xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
	default:
		gw := gzip.NewWriter(w)
		gw.ModTime = Epoch
		cw = gw
	}

	tw := tar.NewWriter(cw)
	if err := writeEntries(tw, baseDir, sorted); err != nil {
		tw.Close()
		cw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		cw.Close()
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish %s stream: %w", comp, err)
	}
	return nil
}

func writeEntries(tw *tar.Writer, baseDir string, entries []Entry) error {
	if baseDir != "" {
		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeDir,
			Name:     baseDir + "/",
			Mode:     0755,
			ModTime:  Epoch,
			Format:   tar.FormatPAX,
		}); err != nil {
			return err
		}
	}
	for _, e := range entries {
		name := e.Name
		if baseDir != "" {
			name = baseDir + "/" + name
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0644,
			Size:     int64(len(e.Data)),
			ModTime:  Epoch,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	return nil
}

// CreateBundle writes a bundle file, choosing the compression from the
// extension of dstPath and naming the top directory after the file.
// Parent directories are created as needed.
func CreateBundle(dstPath string, entries []Entry) error {
	comp, err := CompressionFor(dstPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if err := WriteBundle(out, comp, BundleID(filepath.Base(dstPath)), entries); err != nil {
		out.Close()
		os.Remove(dstPath)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return out.Close()
}

// BundleID strips known bundle extensions from a file name.
func BundleID(filename string) string {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".txz", ".tgz", ".tar"} {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
