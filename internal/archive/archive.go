// Package archive wraps ZIP access for course packages: listing and reading
// entries in archive order, and assembling new archives from named byte
// streams.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry describes one file or directory inside an archive. Entries remain
// readable only while their parent Reader is open.
type Entry struct {
	Name string
	Dir  bool

	file *zip.File
}

// Open returns a reader over the entry's content.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.file == nil {
		return nil, fmt.Errorf("archive entry %q is not readable", e.Name)
	}
	return e.file.Open()
}

// ReadAll reads the full entry content.
func (e Entry) ReadAll() ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read archive entry %q: %w", e.Name, err)
	}
	return data, nil
}

// Reader provides ordered access to the entries of a ZIP archive.
type Reader struct {
	zr     *zip.Reader
	closer io.Closer
}

// Open opens an archive from disk.
func Open(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", filepath.Base(path), err)
	}
	return &Reader{zr: &rc.Reader, closer: rc}, nil
}

// OpenBytes opens an archive held fully in memory.
func OpenBytes(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive bytes: %w", err)
	}
	return &Reader{zr: zr}, nil
}

// Close releases the underlying file handle, if any.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Entries returns all archive entries in their stored order. Entry names use
// forward slashes regardless of how the archive was produced.
func (r *Reader) Entries() []Entry {
	entries := make([]Entry, 0, len(r.zr.File))
	for _, file := range r.zr.File {
		name := strings.ReplaceAll(file.Name, "\\", "/")
		entries = append(entries, Entry{
			Name: name,
			Dir:  file.FileInfo().IsDir() || strings.HasSuffix(name, "/"),
			file: file,
		})
	}
	return entries
}

// ReadFile reads a single entry by name. Matching is case-insensitive since
// authoring tools disagree about manifest casing.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	for _, entry := range r.Entries() {
		if entry.Dir {
			continue
		}
		if strings.EqualFold(entry.Name, name) {
			return entry.ReadAll()
		}
	}
	return nil, fmt.Errorf("archive entry %q not found", name)
}

// Writer assembles a new ZIP archive on disk. All entries are deflated so
// output size stays stable across runs.
type Writer struct {
	file *os.File
	zw   *zip.Writer
}

// NewWriter creates the output file and an archive writer over it.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive %q: %w", path, err)
	}
	return &Writer{file: file, zw: zip.NewWriter(file)}, nil
}

// Add stores data under name. Names are normalized to forward slashes.
func (w *Writer) Add(name string, data []byte) error {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	if name == "" {
		return fmt.Errorf("archive entry name is empty")
	}
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	entry, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry %q: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write archive entry %q: %w", name, err)
	}
	return nil
}

// Close finishes the archive and the backing file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}
	return nil
}
