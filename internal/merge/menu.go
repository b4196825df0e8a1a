package merge

import (
	_ "embed"
	"fmt"
	"strings"

	"coursemerge/internal/course"
	"coursemerge/internal/describe"
	"coursemerge/internal/manifest"
)

//go:embed assets/menu.js
var menuScript []byte

//go:embed assets/menu.css
var menuStyles []byte

type menuAsset struct {
	name string
	data []byte
}

// menuAssets produces the three fixed menu files in stable order. They are
// emitted even for an empty package list so the merged shell always launches
// cleanly.
func menuAssets(packages []*course.Package) []menuAsset {
	return []menuAsset{
		{menuFolder + "/menu.html", []byte(buildMenuHTML(packages))},
		{menuFolder + "/menu.js", menuScript},
		{menuFolder + "/menu.css", menuStyles},
	}
}

// buildMenuHTML renders the navigation page: one card per package with its
// display title, description, version, original filename, and a launch
// control wired to the menu script.
func buildMenuHTML(packages []*course.Package) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="en">` + "\n<head>\n")
	b.WriteString(`  <meta charset="utf-8">` + "\n")
	b.WriteString("  <title>Course Menu</title>\n")
	b.WriteString(`  <link rel="stylesheet" href="menu.css">` + "\n")
	b.WriteString(`  <script src="menu.js"></script>` + "\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("  <h1>Course Menu</h1>\n")

	if len(packages) == 0 {
		b.WriteString(`  <p class="empty">No courses available.</p>` + "\n")
	} else {
		b.WriteString(`  <ul class="courses">` + "\n")
		for i, pkg := range packages {
			title := manifest.EscapeXML(pkg.DisplayTitle())
			description := pkg.Description
			if strings.TrimSpace(description) == "" {
				description = describe.FallbackDescription(pkg.DisplayTitle(), pkg.ContentSample)
			}
			entry := fmt.Sprintf("%s%d/%s", packageFolderPrefix, i+1, packageEntryPoint(pkg))

			b.WriteString(`    <li class="course">` + "\n")
			fmt.Fprintf(&b, `      <h2>%s</h2>`+"\n", title)
			fmt.Fprintf(&b, `      <p class="description">%s</p>`+"\n", manifest.EscapeXML(description))
			fmt.Fprintf(&b, `      <p class="meta">Version: %s &middot; File: %s</p>`+"\n",
				manifest.EscapeXML(pkg.Version), manifest.EscapeXML(pkg.Filename))
			fmt.Fprintf(&b, `      <button type="button" onclick="launchPackage(%d, '%s')">Launch</button>`+"\n",
				i+1, manifest.EscapeXML(entry))
			b.WriteString("    </li>\n")
		}
		b.WriteString("  </ul>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
