package testsupport

import (
	"fmt"
	"path/filepath"
	"testing"

	"coursemerge/internal/archive"
)

// FileSpec orders fixture files explicitly; map iteration order would make
// archive entry ordering nondeterministic.
type FileSpec struct {
	Name string
	Body string
}

// BuildArchive writes a ZIP containing the given files (in order) into a temp
// directory and returns its path.
func BuildArchive(t testing.TB, name string, files []FileSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := archive.NewWriter(path)
	if err != nil {
		t.Fatalf("new archive writer: %v", err)
	}
	for _, file := range files {
		if err := w.Add(file.Name, []byte(file.Body)); err != nil {
			t.Fatalf("add %s: %v", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

// CoursePackage builds a minimal valid SCORM-style package archive with the
// given title and an index.html body, and returns its path.
func CoursePackage(t testing.TB, name, identifier, title, body string) string {
	t.Helper()
	manifest := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier=%q>
  <metadata>
    <schemaversion>1.2</schemaversion>
    <lom><general><title><langstring>%s</langstring></title></general></lom>
  </metadata>
  <organizations>
    <organization identifier="ORG-1">
      <title>%s</title>
      <item identifier="ITEM-1" identifierref="RES-1"><title>%s</title></item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" href="index.html">
      <file href="index.html"/>
    </resource>
  </resources>
</manifest>`, identifier, title, title, title)

	return BuildArchive(t, name, []FileSpec{
		{Name: "imsmanifest.xml", Body: manifest},
		{Name: "index.html", Body: body},
	})
}
