package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"coursemerge/internal/archive"
)

func TestWriterRoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	w, err := archive.NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	names := []string{"imsmanifest.xml", "index.html", "assets/app.js"}
	for _, name := range names {
		if err := w.Add(name, []byte("content of "+name)); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	entries := r.Entries()
	if len(entries) != len(names) {
		t.Fatalf("expected %d entries, got %d", len(names), len(entries))
	}
	for i, entry := range entries {
		if entry.Name != names[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, names[i], entry.Name)
		}
		data, err := entry.ReadAll()
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name, err)
		}
		if string(data) != "content of "+names[i] {
			t.Fatalf("entry %s has wrong content: %q", entry.Name, data)
		}
	}
}

func TestReadFileIsCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg.zip")
	w, err := archive.NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Add("IMSMANIFEST.XML", []byte("<manifest/>")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	data, err := r.ReadFile("imsmanifest.xml")
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "<manifest/>" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestReadFileMissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg.zip")
	w, err := archive.NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Add("index.html", []byte("<html></html>")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadFile("missing.xml"); err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestOpenBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg.zip")
	w, err := archive.NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Add("a.txt", []byte("alpha")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive bytes: %v", err)
	}
	r, err := archive.OpenBytes(data)
	if err != nil {
		t.Fatalf("open bytes: %v", err)
	}
	if got := r.Entries()[0].Name; got != "a.txt" {
		t.Fatalf("unexpected entry name %q", got)
	}
}
