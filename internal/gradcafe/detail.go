package gradcafe

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Detail page labels of interest.
const (
	labelDegreeType = "Degree Type"
	labelOrigin     = "Degree's Country of Origin"
	labelNotes      = "Notes"
	labelTerm       = "Term"
	labelYear       = "Year"
	labelGPA        = "Undergrad GPA"
	labelGRETotal   = "GRE General:"
	labelGREVerbal  = "GRE Verbal:"
	labelGREAW      = "Analytical Writing:"
)

// Labels and page chrome that leak into values when the markup shifts.
var labelArtifacts = map[string]struct{}{
	labelGRETotal:   {},
	labelGREVerbal:  {},
	labelGREAW:      {},
	labelNotes:      {},
	labelGPA:        {},
	labelDegreeType: {},
	labelOrigin:     {},
	"Timeline":      {},
	"Admissions":    {},
	"Results":       {},
	"Logo":          {},
}

const domesticOriginLabel = "american"

var (
	floatRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	intRe   = regexp.MustCompile(`(\d+)`)
)

// Detail carries the enrichment fields harvested from one /result/<id>
// page. Fetched is false when the page could not be retrieved at all, in
// which case every field is absent.
type Detail struct {
	Degree        string
	DegreeLevel   string
	International *bool
	GPA           string
	GRETotal      string
	GREVerbal     string
	GREAW         string
	Notes         string
	StartTerm     string
	StartYear     string
	Fetched       bool
}

// Fetcher is the soft-failure fetch contract the detail parser needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// Extractor locates the value for a label in the page's flattened visible
// text. Label-following extraction is fragile to upstream markup changes,
// so it stays pluggable here rather than baked into the parser.
type Extractor func(lines []string, label string) (string, bool)

// NextLineExtractor takes the line after the first line equal to the
// label. First match wins.
func NextLineExtractor(lines []string, label string) (string, bool) {
	for i, ln := range lines {
		if strings.TrimSpace(ln) == label && i+1 < len(lines) {
			v := strings.TrimSpace(lines[i+1])
			if v == "" {
				return "", false
			}
			return v, true
		}
	}
	return "", false
}

// DetailParser fetches and parses detail pages.
type DetailParser struct {
	fetch   Fetcher
	extract Extractor
}

func NewDetailParser(f Fetcher) *DetailParser {
	return &DetailParser{fetch: f, extract: NextLineExtractor}
}

// WithExtractor swaps the field-extraction strategy.
func (p *DetailParser) WithExtractor(e Extractor) *DetailParser {
	p.extract = e
	return p
}

// Parse fetches entryURL and pulls the enrichment fields out of the page.
// A failed fetch is a soft failure: the zero Detail comes back with
// Fetched=false and the caller moves on.
func (p *DetailParser) Parse(ctx context.Context, entryURL string) Detail {
	body, ok := p.fetch.Fetch(ctx, entryURL)
	if !ok {
		return Detail{}
	}
	return p.parseBody(body)
}

func (p *DetailParser) parseBody(body string) Detail {
	lines := visibleLines(body)

	get := func(label string) string {
		v, ok := p.extract(lines, label)
		if !ok {
			return ""
		}
		return v
	}

	degree := cleanCellText(get(labelDegreeType))
	origin := cleanCellText(get(labelOrigin))

	notes := cleanCellText(get(labelNotes))
	if _, leaked := labelArtifacts[notes]; leaked {
		notes = ""
	}

	// Often absent upstream; stays empty when missing.
	startTerm := cleanCellText(get(labelTerm))
	startYear := cleanCellText(get(labelYear))

	d := Detail{
		Degree:        degree,
		DegreeLevel:   DegreeLevel(degree),
		International: internationalFromOrigin(origin),
		GPA:           extractFloat(dropLabelValue(zeroToEmpty(get(labelGPA)))),
		GRETotal:      extractInt(dropLabelValue(zeroToEmpty(get(labelGRETotal)))),
		GREVerbal:     extractInt(dropLabelValue(zeroToEmpty(get(labelGREVerbal)))),
		GREAW:         extractFloat(dropLabelValue(zeroToEmpty(get(labelGREAW)))),
		Notes:         notes,
		StartTerm:     startTerm,
		StartYear:     startYear,
		Fetched:       true,
	}
	return d
}

// internationalFromOrigin derives the tri-state nationality flag strictly
// from the origin text: only the domestic label maps to false, any other
// stated origin maps to true, absence stays unknown. The raw origin text
// is never kept.
func internationalFromOrigin(origin string) *bool {
	if origin == "" {
		return nil
	}
	intl := !strings.EqualFold(strings.TrimSpace(origin), domesticOriginLabel)
	return &intl
}

// dropLabelValue drops obvious label-as-value artifacts: known labels and
// short trailing-colon fragments.
func dropLabelValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if _, ok := labelArtifacts[v]; ok {
		return ""
	}
	if strings.HasSuffix(v, ":") && len(v) <= 25 {
		return ""
	}
	return v
}

// zeroToEmpty maps literal zero scores to absent; the site renders "0"
// for "not provided".
func zeroToEmpty(v string) string {
	switch strings.TrimSpace(v) {
	case "0", "0.0", "0.00":
		return ""
	}
	return v
}

func extractFloat(s string) string {
	return floatRe.FindString(s)
}

func extractInt(s string) string {
	return intRe.FindString(s)
}

// visibleLines flattens a page's visible text into one trimmed line per
// text node, skipping script/style subtrees.
func visibleLines(body string) []string {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, part := range strings.Split(n.Data, "\n") {
				if t := strings.TrimSpace(part); t != "" {
					lines = append(lines, t)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}
