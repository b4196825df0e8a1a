// Package sampler extracts a bounded text sample from the markup files of a
// course package. The sample feeds description generation; it is heuristic,
// best-effort, and never fails: any internal problem yields an empty string.
package sampler

import (
	"bytes"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coursemerge/internal/archive"
)

// DefaultMaxLength bounds the sample when the caller passes no limit.
const DefaultMaxLength = 1500

// DefaultMaxFallbackFiles limits how many extra markup files are scanned when
// the conventional entry points score poorly.
const DefaultMaxFallbackFiles = 5

// entryPointNames are conventional launch files, checked first in this order.
var entryPointNames = []string{
	"index.html",
	"index_lms.html",
	"story.html",
	"launch.html",
	"default.html",
	"player.html",
	"course.html",
	"start.html",
	"main.html",
}

// goodScore is the score above which no further files are scanned.
const goodScore = 50

// minBlockLength filters out navigation crumbs and button labels when
// collecting paragraph text.
const minBlockLength = 20

// Options tunes sampling; zero values select the defaults.
type Options struct {
	MaxLength        int
	MaxFallbackFiles int
}

// Sample scans the archive's markup files and returns the highest-scoring
// text extract, truncated to the configured bound. Content-free input yields
// an empty string.
func Sample(entries []archive.Entry, opts Options) (sample string) {
	// Sampling is an enrichment step; a panic inside the HTML machinery must
	// not take down package validation.
	defer func() {
		if recover() != nil {
			sample = ""
		}
	}()

	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	maxFallback := opts.MaxFallbackFiles
	if maxFallback <= 0 {
		maxFallback = DefaultMaxFallbackFiles
	}

	markup := markupEntries(entries)
	if len(markup) == 0 {
		return ""
	}

	var bestText string
	bestScore := -1
	consider := func(entry archive.Entry) {
		data, err := entry.ReadAll()
		if err != nil {
			return
		}
		text := extractText(data)
		if text == "" {
			return
		}
		if score := scoreText(text); score > bestScore {
			bestScore = score
			bestText = text
		}
	}

	remaining := make([]archive.Entry, 0, len(markup))
	for _, entry := range markup {
		if isEntryPoint(entry.Name) {
			consider(entry)
		} else {
			remaining = append(remaining, entry)
		}
	}

	if bestScore < goodScore {
		scanned := 0
		for _, entry := range remaining {
			if scanned >= maxFallback {
				break
			}
			consider(entry)
			scanned++
		}
	}

	return truncate(bestText, maxLength)
}

func markupEntries(entries []archive.Entry) []archive.Entry {
	var out []archive.Entry
	for _, entry := range entries {
		if entry.Dir {
			continue
		}
		switch strings.ToLower(path.Ext(entry.Name)) {
		case ".html", ".htm":
			out = append(out, entry)
		}
	}
	return out
}

func isEntryPoint(name string) bool {
	base := strings.ToLower(path.Base(name))
	for _, candidate := range entryPointNames {
		if base == candidate {
			return true
		}
	}
	return false
}

// extractText pulls structural text out of an HTML document: headings first
// as encountered, then paragraph-like blocks above the minimum length, then
// list items. Script, style, and comment content is discarded.
func extractText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	seen := map[string]struct{}{}
	add := func(text string) {
		text = collapseSpace(text)
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		add(sel.Text())
	})
	doc.Find("p, td").Each(func(_ int, sel *goquery.Selection) {
		if text := collapseSpace(sel.Text()); len(text) >= minBlockLength {
			add(text)
		}
	})
	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		add(sel.Text())
	})

	return strings.Join(parts, " ")
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength])
}
