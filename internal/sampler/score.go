package sampler

import "strings"

// Pedagogical vocabulary; each hit contributes keywordHitScore up to
// keywordScoreCap. Matching is case-insensitive substring matching, which is
// crude but cheap and good enough for ranking candidate files.
var pedagogicalKeywords = []string{
	"learn",
	"course",
	"module",
	"lesson",
	"objective",
	"training",
	"assessment",
	"quiz",
	"introduction",
	"chapter",
	"skill",
	"knowledge",
	"practice",
	"exercise",
	"summary",
	"overview",
}

const (
	keywordHitScore = 10
	keywordScoreCap = 100
)

var structureMarkers = []string{"• ", "- ", "1.", "2.", "a)", "i."}

// scoreText ranks extracted text: longer bodies score higher (capped),
// pedagogical vocabulary adds a capped bonus, and visible list/numbering
// structure adds a small bonus.
func scoreText(text string) int {
	if text == "" {
		return 0
	}
	score := 0

	switch length := len(text); {
	case length >= 500:
		score += 60
	case length >= 200:
		score += 40
	case length >= 80:
		score += 20
	default:
		score += 5
	}

	lower := strings.ToLower(text)
	keywordScore := 0
	for _, keyword := range pedagogicalKeywords {
		if strings.Contains(lower, keyword) {
			keywordScore += keywordHitScore
		}
	}
	if keywordScore > keywordScoreCap {
		keywordScore = keywordScoreCap
	}
	score += keywordScore

	for _, marker := range structureMarkers {
		if strings.Contains(text, marker) {
			score += 10
			break
		}
	}

	return score
}
