package describe

import (
	"fmt"
	"strings"

	"coursemerge/internal/textutil"
)

// domainRule maps title keywords to a templated description sentence. Rules
// are checked in order; the first hit wins.
type domainRule struct {
	keywords []string
	template string
}

var domainRules = []domainRule{
	{
		keywords: []string{"programming", "coding", "software", "developer", "python", "java", "javascript", "sql", "web development"},
		template: "A technical course on %s, covering practical software development skills.",
	},
	{
		keywords: []string{"business", "management", "leadership", "marketing", "sales", "finance", "negotiation"},
		template: "A professional development course on %s for business skills training.",
	},
	{
		keywords: []string{"math", "science", "history", "language", "physics", "chemistry", "biology", "literature"},
		template: "An academic course covering %s fundamentals and key concepts.",
	},
	{
		keywords: []string{"health", "safety", "first aid", "medical", "wellness", "hygiene", "compliance"},
		template: "A health and safety training course on %s.",
	},
}

// sampleQualifier appends a short clause when the content sample shows
// evidence of a particular content type.
type sampleQualifier struct {
	markers []string
	clause  string
}

var sampleQualifiers = []sampleQualifier{
	{markers: []string{"quiz", "assessment", "test your", "knowledge check"}, clause: "Includes interactive assessments."},
	{markers: []string{"video", "watch", "animation"}, clause: "Features video content."},
	{markers: []string{"exercise", "practice", "hands-on", "activity"}, clause: "Contains practical exercises."},
}

// FallbackDescription derives a description from title keywords and content
// sample heuristics. It always returns a non-empty string.
func FallbackDescription(title, contentSample string) string {
	cleaned := textutil.CleanTitle(title)
	if cleaned == "" {
		cleaned = "this course"
	}

	lowerTitle := strings.ToLower(cleaned)
	base := ""
	for _, rule := range domainRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowerTitle, keyword) {
				base = fmt.Sprintf(rule.template, cleaned)
				break
			}
		}
		if base != "" {
			break
		}
	}
	if base == "" {
		base = fmt.Sprintf("A learning module covering %s.", cleaned)
	}

	lowerSample := strings.ToLower(contentSample)
	for _, qualifier := range sampleQualifiers {
		for _, marker := range qualifier.markers {
			if strings.Contains(lowerSample, marker) {
				base += " " + qualifier.clause
				break
			}
		}
	}
	return base
}
