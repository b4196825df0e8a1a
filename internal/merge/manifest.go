package merge

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coursemerge/internal/course"
	"coursemerge/internal/manifest"
)

// The merged shell always declares the newest commonly supported SCORM
// profile regardless of what the inputs declared; original version strings
// survive only in the menu for display.
const (
	mergedSchema        = "ADL SCORM"
	mergedSchemaVersion = "2004 4th Edition"
)

// defaultEntryPoint is used when a package declares no resource href.
const defaultEntryPoint = "index.html"

const menuFolder = "menu"

// buildManifest synthesizes the merged imsmanifest.xml: a fresh root and
// organization identifier, a menu item first, then one item and resource per
// package in caller order. All title text is XML-escaped.
func buildManifest(packages []*course.Package) string {
	rootID := "MERGED-" + uuid.NewString()
	orgID := "ORG-" + uuid.NewString()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<manifest identifier="%s" version="1"`+"\n", rootID)
	b.WriteString(`  xmlns="http://www.imsglobal.org/xsd/imscp_v1p1"` + "\n")
	b.WriteString(`  xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_v1p3"` + "\n")
	b.WriteString(`  xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` + "\n")
	b.WriteString("  <metadata>\n")
	fmt.Fprintf(&b, "    <schema>%s</schema>\n", mergedSchema)
	fmt.Fprintf(&b, "    <schemaversion>%s</schemaversion>\n", mergedSchemaVersion)
	b.WriteString("  </metadata>\n")

	fmt.Fprintf(&b, `  <organizations default="%s">`+"\n", orgID)
	fmt.Fprintf(&b, `    <organization identifier="%s">`+"\n", orgID)
	b.WriteString("      <title>Merged Course Collection</title>\n")
	b.WriteString(`      <item identifier="ITEM-MENU" identifierref="RES-MENU">` + "\n")
	b.WriteString("        <title>Course Menu</title>\n")
	b.WriteString("      </item>\n")
	for i, pkg := range packages {
		fmt.Fprintf(&b, `      <item identifier="ITEM-%d" identifierref="RES-%d">`+"\n", i+1, i+1)
		fmt.Fprintf(&b, "        <title>%s</title>\n", manifest.EscapeXML(pkg.DisplayTitle()))
		b.WriteString("      </item>\n")
	}
	b.WriteString("    </organization>\n")
	b.WriteString("  </organizations>\n")

	b.WriteString("  <resources>\n")
	fmt.Fprintf(&b, `    <resource identifier="RES-MENU" type="webcontent" adlcp:scormType="sco" href="%s/menu.html">`+"\n", menuFolder)
	fmt.Fprintf(&b, `      <file href="%s/menu.html"/>`+"\n", menuFolder)
	fmt.Fprintf(&b, `      <file href="%s/menu.js"/>`+"\n", menuFolder)
	fmt.Fprintf(&b, `      <file href="%s/menu.css"/>`+"\n", menuFolder)
	b.WriteString("    </resource>\n")
	for i, pkg := range packages {
		folder := fmt.Sprintf("%s%d", packageFolderPrefix, i+1)
		entry := packageEntryPoint(pkg)
		fmt.Fprintf(&b, `    <resource identifier="RES-%d" type="webcontent" adlcp:scormType="sco" href="%s/%s">`+"\n",
			i+1, folder, manifest.EscapeXML(entry))
		for _, file := range packageFiles(pkg, entry) {
			fmt.Fprintf(&b, `      <file href="%s/%s"/>`+"\n", folder, manifest.EscapeXML(file))
		}
		b.WriteString("    </resource>\n")
	}
	b.WriteString("  </resources>\n")
	b.WriteString("</manifest>\n")
	return b.String()
}

// packageEntryPoint picks the package's launch file: the first resource href
// if one exists, else the default entry-point name.
func packageEntryPoint(pkg *course.Package) string {
	for _, res := range pkg.Resources {
		if href := strings.TrimSpace(res.Href); href != "" {
			return href
		}
	}
	return defaultEntryPoint
}

// packageFiles lists every file path the package's resources declare, in
// order and without duplicates. The entry point is always included.
func packageFiles(pkg *course.Package, entry string) []string {
	seen := map[string]struct{}{entry: {}}
	files := []string{entry}
	for _, res := range pkg.Resources {
		for _, file := range res.Files {
			file = strings.TrimSpace(file)
			if file == "" {
				continue
			}
			if _, dup := seen[file]; dup {
				continue
			}
			seen[file] = struct{}{}
			files = append(files, file)
		}
	}
	return files
}
