package gradcafe

import (
	"regexp"
	"strings"
)

// Professional doctorates count as the PhD tier alongside literal "phd".
var doctoralKeywords = []string{
	"phd", "dphil", "doctor", "psyd", "edd", "drph", "dpt", "md", "jd", "dds", "dmd",
}

var mastersAbbrevRe = regexp.MustCompile(`\b(ma|ms|mfa|meng|mpa|mpp|mph|msc|mme|msw|mha)\b`)

// DegreeLevel classifies a free-text degree label into the PhD or Masters
// tier by keyword. Unrecognized labels stay unclassified.
func DegreeLevel(degree string) string {
	t := strings.ToLower(strings.TrimSpace(degree))
	if t == "" {
		return ""
	}

	for _, kw := range doctoralKeywords {
		if strings.Contains(t, kw) {
			return "PhD"
		}
	}

	if strings.Contains(t, "master") || mastersAbbrevRe.MatchString(t) {
		return "Masters"
	}

	return ""
}
