package analyzer

import "fmt"

// Deductions per issue category.
const (
	criticalPenalty       = 15
	warningPenalty        = 5
	recommendationPenalty = 2
)

// Thresholds used by Score.
const (
	MinTitleLength       = 30
	MaxTitleLength       = 60
	MinDescriptionLength = 120
	MaxDescriptionLength = 160
	MaxPageSizeKB        = 3000
	MaxLoadTimeMS        = 3000
	MinWordCount         = 300
)

// Score classifies s into issues and computes the 0-100 score. Every rule is
// evaluated independently, so rule order does not change the result.
func Score(s Signals) Verdict {
	v := Verdict{
		CriticalIssues:  []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	switch {
	case s.Title == "":
		v.CriticalIssues = append(v.CriticalIssues, "Missing <title> tag")
	case s.TitleLength < MinTitleLength:
		v.Warnings = append(v.Warnings, fmt.Sprintf("Title too short (< %d characters)", MinTitleLength))
	case s.TitleLength > MaxTitleLength:
		v.Warnings = append(v.Warnings, fmt.Sprintf("Title too long (> %d characters)", MaxTitleLength))
	}

	switch {
	case s.MetaDescription == "":
		v.CriticalIssues = append(v.CriticalIssues, "Missing meta description")
	case s.MetaDescriptionLength < MinDescriptionLength:
		v.Warnings = append(v.Warnings, "Meta description too short")
	case s.MetaDescriptionLength > MaxDescriptionLength:
		v.Warnings = append(v.Warnings, "Meta description too long")
	}

	if s.H1Count == 0 {
		v.CriticalIssues = append(v.CriticalIssues, "Missing H1 tag")
	}
	if s.H1Count > 1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Multiple H1 tags found (%d)", s.H1Count))
	}

	if s.ImagesWithoutAlt > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d images without ALT attribute", s.ImagesWithoutAlt))
	}

	if !s.IsHTTPS {
		v.CriticalIssues = append(v.CriticalIssues, "Site does not use HTTPS")
	}
	if !s.HasViewportMeta {
		v.CriticalIssues = append(v.CriticalIssues, "Missing mobile viewport meta tag")
	}

	if !s.HasSchemaMarkup {
		v.Recommendations = append(v.Recommendations, "Add schema markup (JSON-LD)")
	}
	if s.OGTitle == "" || s.OGDescription == "" {
		v.Recommendations = append(v.Recommendations, "Add Open Graph tags")
	}
	if s.TwitterCard == "" {
		v.Recommendations = append(v.Recommendations, "Add Twitter Card meta tags")
	}

	if s.PageSizeKB > MaxPageSizeKB {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Page too heavy (%.0f KB)", s.PageSizeKB))
	}
	if s.LoadTimeMS > MaxLoadTimeMS {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Slow load time (%.1fs)", float64(s.LoadTimeMS)/1000))
	}
	if s.WordCount < MinWordCount {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Thin content (< %d words)", MinWordCount))
	}

	v.Score = clamp(100-
		criticalPenalty*len(v.CriticalIssues)-
		warningPenalty*len(v.Warnings)-
		recommendationPenalty*len(v.Recommendations), 0, 100)

	return v
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
