// Package normalize maps raw harvested records onto the fixed output
// schema. Everything here is pure: no I/O, no clock, no store.
package normalize

import (
	"regexp"
	"strings"

	"gradharvest/internal/domain"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText strips residual markup tags, collapses whitespace runs and
// trims. Empty results stay empty (absent).
func CleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NationalityLabel maps the tri-state international flag onto the fixed
// labels. The raw boolean never reaches the output schema.
func NationalityLabel(flag *bool) string {
	if flag == nil {
		return ""
	}
	if *flag {
		return "International"
	}
	return "American"
}

// ParseNationalityLabel accepts already-stringified flag forms
// defensively: "true"/"false" and the labels themselves in any case.
// Anything else is absent.
func ParseNationalityLabel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "international":
		return "International"
	case "false", "american":
		return "American"
	}
	return ""
}

// Record cleans one raw record into the output schema. Explicitly present
// term/year values are never overwritten; inference only fills gaps.
func Record(r domain.RawRecord) domain.NormalizedRecord {
	n := domain.NormalizedRecord{
		University:   CleanText(r.University),
		Comments:     CleanText(r.Comments),
		DatePosted:   CleanText(r.DatePosted),
		EntryURL:     CleanText(r.EntryURL),
		Status:       CleanText(r.Status),
		AcceptedDate: CleanText(r.AcceptedDate),
		RejectedDate: CleanText(r.RejectedDate),
		StartTerm:    CleanText(r.StartTerm),
		StartYear:    CleanText(r.StartYear),
		Nationality:  NationalityLabel(r.International),
		GRETotal:     CleanText(r.GRETotal),
		GREVerbal:    CleanText(r.GREVerbal),
		GREAW:        CleanText(r.GREAW),
		DegreeLevel:  CleanText(r.DegreeLevel),
		Degree:       CleanText(r.Degree),
		GPA:          CleanText(r.GPA),
		SourceURL:    CleanText(r.SourceURL),
		ScrapedAt:    CleanText(r.ScrapedAt),
	}

	program := CleanText(r.Program)
	switch {
	case program != "" && n.University != "":
		n.Program = program + ", " + n.University
	case program != "":
		n.Program = program
	default:
		n.Program = n.University
	}

	if n.StartTerm == "" || n.StartYear == "" {
		term, year := InferTermYear(n.Comments, n.Status, program, n.University)
		if n.StartTerm == "" {
			n.StartTerm = term
		}
		if n.StartYear == "" {
			n.StartYear = year
		}
	}

	return n
}

// Records cleans a whole harvest.
func Records(rs []domain.RawRecord) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, Record(r))
	}
	return out
}
