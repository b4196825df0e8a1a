package manifest_test

import (
	"strings"
	"testing"

	"coursemerge/internal/manifest"
)

const scorm12Manifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="COURSE-42" xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2">
  <metadata>
    <schemaversion>1.2</schemaversion>
    <lom>
      <general>
        <title><langstring>Intro to Go</langstring></title>
        <description><langstring>A short course about Go.</langstring></description>
      </general>
    </lom>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Intro to Go</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Lesson 1</title>
        <item identifier="ITEM-1-1" identifierref="RES-2">
          <title>Lesson 1.1</title>
        </item>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" href="lesson1.html">
      <file href="lesson1.html"/>
      <file href="style.css"/>
    </resource>
    <resource identifier="RES-2" type="webcontent" href="lesson1_1.html">
      <file href="lesson1_1.html"/>
    </resource>
  </resources>
</manifest>`

func TestParseScorm12Manifest(t *testing.T) {
	m, err := manifest.Parse([]byte(scorm12Manifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Identifier != "COURSE-42" {
		t.Errorf("identifier = %q", m.Identifier)
	}
	if m.Title != "Intro to Go" {
		t.Errorf("title = %q", m.Title)
	}
	if m.Description != "A short course about Go." {
		t.Errorf("description = %q", m.Description)
	}
	if m.SchemaVersion != "1.2" {
		t.Errorf("schema version = %q", m.SchemaVersion)
	}
	if len(m.Organizations) != 1 {
		t.Fatalf("organizations = %d", len(m.Organizations))
	}
	org := m.Organizations[0]
	if org.Identifier != "ORG-1" || org.Title != "Intro to Go" {
		t.Errorf("organization = %+v", org)
	}
	if len(org.Items) != 1 || len(org.Items[0].Items) != 1 {
		t.Fatalf("item nesting lost: %+v", org.Items)
	}
	if org.Items[0].Items[0].ResourceRef != "RES-2" {
		t.Errorf("nested item ref = %q", org.Items[0].Items[0].ResourceRef)
	}
	if len(m.Resources) != 2 {
		t.Fatalf("resources = %d", len(m.Resources))
	}
	if m.Resources[0].Href != "lesson1.html" || len(m.Resources[0].Files) != 2 {
		t.Errorf("resource = %+v", m.Resources[0])
	}
}

func TestParseNamespacedLomDialect(t *testing.T) {
	body := `<manifest identifier="NS-1" xmlns:lom="http://ltsc.ieee.org/xsd/LOM">
  <metadata>
    <lom:lom>
      <lom:general>
        <lom:title><lom:string language="en">Namespaced Title</lom:string></lom:title>
      </lom:general>
    </lom:lom>
  </metadata>
</manifest>`
	m, err := manifest.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Title != "Namespaced Title" {
		t.Errorf("title = %q", m.Title)
	}
}

func TestParseDefaultsWhenMetadataSparse(t *testing.T) {
	body := `<manifest identifier="SPARSE"><metadata/></manifest>`
	m, err := manifest.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Title != manifest.DefaultTitle {
		t.Errorf("title = %q, want %q", m.Title, manifest.DefaultTitle)
	}
	if m.SchemaVersion != manifest.DefaultSchemaVersion {
		t.Errorf("schema version = %q", m.SchemaVersion)
	}
	if !m.HasMetadata {
		t.Error("HasMetadata should be true")
	}
	if len(m.Organizations) != 0 || len(m.Resources) != 0 {
		t.Error("missing sections should yield empty sequences")
	}
}

func TestParseDefaultsWhenNoMetadataBlock(t *testing.T) {
	m, err := manifest.Parse([]byte(`<manifest identifier="BARE"/>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Title != manifest.DefaultTitleNoMeta {
		t.Errorf("title = %q, want %q", m.Title, manifest.DefaultTitleNoMeta)
	}
	if m.HasMetadata {
		t.Error("HasMetadata should be false")
	}
}

func TestParseGeneratesIdentifierWhenAbsent(t *testing.T) {
	first, err := manifest.Parse([]byte(`<manifest><metadata/></manifest>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if first.Identifier == "" {
		t.Fatal("expected generated identifier")
	}
	if !first.GeneratedIdentifier {
		t.Fatal("GeneratedIdentifier should be true")
	}
	second, err := manifest.Parse([]byte(`<manifest><metadata/></manifest>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if first.Identifier == second.Identifier {
		t.Fatal("generated identifiers must not be stable across reparse")
	}
}

func TestParseMalformedXML(t *testing.T) {
	_, err := manifest.Parse([]byte(`<manifest><unclosed>`))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !manifest.IsParseError(err) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if !strings.Contains(err.Error(), "well-formed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestParseBoundsItemRecursion(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<manifest identifier="DEEP"><organizations><organization identifier="O">`)
	const depth = 200
	for i := 0; i < depth; i++ {
		b.WriteString(`<item identifier="I"><title>deep</title>`)
	}
	for i := 0; i < depth; i++ {
		b.WriteString(`</item>`)
	}
	b.WriteString(`</organization></organizations></manifest>`)

	m, err := manifest.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Organizations) != 1 {
		t.Fatalf("organizations = %d", len(m.Organizations))
	}
	// Depth is capped; parsing must terminate without error.
}
