package merge_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"coursemerge/internal/archive"
	"coursemerge/internal/course"
	"coursemerge/internal/logging"
	"coursemerge/internal/merge"
	"coursemerge/internal/sampler"
	"coursemerge/internal/testsupport"
)

func parsedPackage(t *testing.T, name, identifier, title, body string) *course.Package {
	t.Helper()
	path := testsupport.CoursePackage(t, name, identifier, title, body)
	pkg, err := course.ValidateAndParsePackage(path, name, sampler.Options{})
	if err != nil {
		t.Fatalf("parse fixture %s: %v", name, err)
	}
	return pkg
}

func newMerger(t *testing.T) *merge.Merger {
	t.Helper()
	return merge.NewMerger(testsupport.NewConfig(t), logging.NewNop())
}

func readOutput(t *testing.T, path string) map[string]string {
	t.Helper()
	reader, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer reader.Close()
	out := map[string]string{}
	for _, entry := range reader.Entries() {
		if entry.Dir {
			continue
		}
		data, err := entry.ReadAll()
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name, err)
		}
		out[entry.Name] = string(data)
	}
	return out
}

func TestMergeLayoutAndOrdering(t *testing.T) {
	packages := []*course.Package{
		parsedPackage(t, "zebra.zip", "PKG-Z", "Zebra Course", "<html><body><p>z</p></body></html>"),
		parsedPackage(t, "apple.zip", "PKG-A", "Apple Course", "<html><body><p>a</p></body></html>"),
	}

	output, err := newMerger(t).Merge(context.Background(), packages, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if base := filepath.Base(output); !strings.HasPrefix(base, "merged-") || !strings.HasSuffix(base, ".zip") {
		t.Errorf("output name = %q", base)
	}

	files := readOutput(t, output)
	for _, want := range []string{
		"imsmanifest.xml",
		"menu/menu.html", "menu/menu.js", "menu/menu.css",
		"package_1/index.html", "package_2/index.html",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("output missing %s (have %d files)", want, len(files))
		}
	}
	// The input manifests must not leak into the package folders.
	for name := range files {
		if name != "imsmanifest.xml" && strings.HasSuffix(name, "imsmanifest.xml") {
			t.Errorf("input manifest copied into output: %s", name)
		}
	}

	root := files["imsmanifest.xml"]
	zebra := strings.Index(root, "Zebra Course")
	apple := strings.Index(root, "Apple Course")
	if zebra < 0 || apple < 0 || zebra > apple {
		t.Errorf("caller order not preserved: zebra@%d apple@%d", zebra, apple)
	}
	if !strings.Contains(root, "2004 4th Edition") || !strings.Contains(root, "ADL SCORM") {
		t.Error("merged manifest must declare the SCORM 2004 4th Edition profile")
	}
	for _, want := range []string{`href="package_1/index.html"`, `href="package_2/index.html"`} {
		if !strings.Contains(root, want) {
			t.Errorf("manifest missing %s", want)
		}
	}
}

func TestMergeMilestones(t *testing.T) {
	packages := []*course.Package{
		parsedPackage(t, "one.zip", "PKG-1", "One", "<html></html>"),
		parsedPackage(t, "two.zip", "PKG-2", "Two", "<html></html>"),
	}

	var progress []int
	_, err := newMerger(t).Merge(context.Background(), packages, func(step string, pct int) {
		progress = append(progress, pct)
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if len(progress) < 4 || progress[0] != 5 || progress[1] != 10 {
		t.Fatalf("progress = %v", progress)
	}
	if progress[len(progress)-2] != 90 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress not monotonic: %v", progress)
		}
	}
	for _, pct := range progress[2 : len(progress)-2] {
		if pct < 15 || pct > 85 {
			t.Errorf("per-package progress %d outside 15-85 band", pct)
		}
	}
}

func TestMergeSinglePackageBandStartsAtFifteen(t *testing.T) {
	pkg := parsedPackage(t, "solo.zip", "PKG-1", "Solo", "<html></html>")

	var progress []int
	_, err := newMerger(t).Merge(context.Background(), []*course.Package{pkg}, func(step string, pct int) {
		progress = append(progress, pct)
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := []int{5, 10, 15, 90, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i, pct := range want {
		if progress[i] != pct {
			t.Errorf("progress = %v, want %v", progress, want)
			break
		}
	}
}

func TestMergeEmptyList(t *testing.T) {
	output, err := newMerger(t).Merge(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	files := readOutput(t, output)
	if len(files) != 4 {
		t.Errorf("empty merge produced %d files, want manifest plus three menu assets", len(files))
	}
	if !strings.Contains(files["menu/menu.html"], "No courses available") {
		t.Errorf("empty-state menu = %q", files["menu/menu.html"])
	}
}

func TestMergeInjectsFinishHandler(t *testing.T) {
	pkg := parsedPackage(t, "course.zip", "PKG-1", "Course",
		"<html><head><title>c</title></head><body><p>content</p></body></html>")

	output, err := newMerger(t).Merge(context.Background(), []*course.Package{pkg}, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	page := readOutput(t, output)["package_1/index.html"]
	if !strings.Contains(page, "returnToMenu") {
		t.Fatal("finish handler not injected")
	}
	if strings.Index(page, "returnToMenu") > strings.Index(page, "</head>") {
		t.Error("script should land before the first closing tag")
	}
	if !strings.Contains(page, "<p>content</p>") {
		t.Error("original markup lost")
	}
}

func TestMergeMenuShowsPackageDetails(t *testing.T) {
	pkg := parsedPackage(t, "safety-v2.zip", "PKG-1", "Tom &amp; Jerry Safety",
		"<html><body><p>x</p></body></html>")

	output, err := newMerger(t).Merge(context.Background(), []*course.Package{pkg}, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	menu := readOutput(t, output)["menu/menu.html"]
	if !strings.Contains(menu, "Tom &amp; Jerry Safety") {
		t.Errorf("menu must escape the ampersand in the title: %q", menu)
	}
	if !strings.Contains(menu, "safety-v2.zip") || !strings.Contains(menu, "1.2") {
		t.Error("menu must show the original filename and version")
	}
	if !strings.Contains(menu, "launchPackage(1, 'package_1/index.html')") {
		t.Error("menu launch control missing or mis-targeted")
	}
}

func TestMergeMissingArchiveFails(t *testing.T) {
	pkg := &course.Package{Identifier: "PKG-1", Title: "Ghost", Path: "/nonexistent/ghost.zip"}

	_, err := newMerger(t).Merge(context.Background(), []*course.Package{pkg}, nil)
	if !merge.IsMergeError(err) {
		t.Fatalf("expected MergeError, got %v", err)
	}
}

func TestMergeCancelledContext(t *testing.T) {
	pkg := parsedPackage(t, "course.zip", "PKG-1", "Course", "<html></html>")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newMerger(t).Merge(ctx, []*course.Package{pkg}, nil)
	if !merge.IsMergeError(err) {
		t.Fatalf("expected MergeError, got %v", err)
	}
}

func TestInjectFinishHandlerPriority(t *testing.T) {
	doc := []byte("<html><head></head><body></body></html>")
	injected, ok := merge.InjectFinishHandler(doc)
	if !ok {
		t.Fatal("injection failed")
	}
	text := string(injected)
	if strings.Index(text, "<script>") > strings.Index(text, "</head>") {
		t.Error("script should be placed before </head>")
	}
}

func TestInjectFinishHandlerCaseInsensitive(t *testing.T) {
	doc := []byte("<HTML><BODY>content</BODY></HTML>")
	injected, ok := merge.InjectFinishHandler(doc)
	if !ok {
		t.Fatal("injection failed")
	}
	text := string(injected)
	if strings.Index(text, "<script>") > strings.Index(text, "</BODY>") {
		t.Errorf("script should be placed before </BODY>: %q", text)
	}
}

func TestInjectFinishHandlerMultiByteCaseFolding(t *testing.T) {
	// U+212A (KELVIN SIGN) is three bytes but folds to a one-byte k, so any
	// length-changing lowering would shift the splice offset into the title.
	doc := []byte("<html><head><title>KKKK temperature</title></head><body></body></html>")
	injected, ok := merge.InjectFinishHandler(doc)
	if !ok {
		t.Fatal("injection failed")
	}
	text := string(injected)
	if !strings.Contains(text, "<title>KKKK temperature</title>") {
		t.Fatalf("title element corrupted: %q", text)
	}
	script := strings.Index(text, "<script>")
	if script < strings.Index(text, "</title>") || script > strings.Index(text, "</head>") {
		t.Errorf("script spliced at wrong offset: %q", text)
	}
}

func TestInjectFinishHandlerAppendsWithoutClosingTags(t *testing.T) {
	doc := []byte("<p>fragment without closing tags")
	injected, ok := merge.InjectFinishHandler(doc)
	if !ok {
		t.Fatal("injection failed")
	}
	text := string(injected)
	if !strings.HasPrefix(text, "<p>fragment") || !strings.Contains(text, "returnToMenu") {
		t.Errorf("append fallback broken: %q", text)
	}
}
