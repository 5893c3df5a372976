package normalize

import (
	"regexp"
	"strings"
)

// Term inference only fires when the text actually talks about starting a
// program; a stray "Fall 2026" in unrelated chatter must not count.
var startContextRe = regexp.MustCompile(
	`(?i)\b(start(?:ing)?|begin(?:s|ning)?|term|semester|matriculat\w*|enroll\w*|cohort)\b`)

var seasonYearRe = regexp.MustCompile(
	`(?i)\b(spring|summer|fall|autumn|winter)\b\W*(20\d{2})\b`)

var monthYearRe = regexp.MustCompile(
	`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b\W*(20\d{2})\b`)

var termAliases = map[string]string{
	"spring": "Spring",
	"summer": "Summer",
	"fall":   "Fall",
	"autumn": "Fall",
	"winter": "Winter",
}

// Rough month -> academic term mapping, for phrases like
// "July 2026 start date".
var monthToTerm = map[string]string{
	"jan": "Spring",
	"feb": "Spring",
	"mar": "Spring",
	"apr": "Spring",
	"may": "Summer",
	"jun": "Summer",
	"jul": "Summer",
	"aug": "Fall",
	"sep": "Fall",
	"oct": "Fall",
	"nov": "Fall",
	"dec": "Winter",
}

// InferTermYear infers a start term and year from free text. It requires
// start-ish context anywhere in the concatenated texts before either
// pattern is tried; without it both results are absent. Season+year wins
// over month+year.
func InferTermYear(texts ...string) (term, year string) {
	hay := CleanText(strings.Join(texts, " "))
	if hay == "" {
		return "", ""
	}

	if !startContextRe.MatchString(hay) {
		return "", ""
	}

	if m := seasonYearRe.FindStringSubmatch(hay); m != nil {
		return termAliases[strings.ToLower(m[1])], m[2]
	}

	if m := monthYearRe.FindStringSubmatch(hay); m != nil {
		month := strings.ToLower(m[1])
		if len(month) > 3 {
			month = month[:3]
		}
		return monthToTerm[month], m[2]
	}

	return "", ""
}
