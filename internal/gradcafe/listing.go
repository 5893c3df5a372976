package gradcafe

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gradharvest/internal/domain"
)

// UI filler the listing comment cell drags along.
var listingChrome = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bTotal comments\b`),
	regexp.MustCompile(`(?i)\bOpen options\b`),
	regexp.MustCompile(`(?i)\bSee More\b`),
	regexp.MustCompile(`(?i)\bReport\b`),
}

var decisionRe = regexp.MustCompile(`(?i)^(Accepted|Rejected|Wait\s?listed)\s+on\s+(.+)$`)

// ParseDecision splits a survey decision cell like "Accepted on 29 Jan"
// into (status, acceptedDate, rejectedDate). "Wait listed" normalizes to
// "Waitlisted". Text that doesn't match the pattern is kept verbatim as
// the status with no dates.
func ParseDecision(text string) (status, accepted, rejected string) {
	text = cleanCellText(text)
	if text == "" {
		return "", "", ""
	}

	m := decisionRe.FindStringSubmatch(text)
	if m == nil {
		return text, "", ""
	}

	date := strings.TrimSpace(m[2])
	switch strings.ToLower(strings.Join(strings.Fields(m[1]), "")) {
	case "accepted":
		return "Accepted", date, ""
	case "rejected":
		return "Rejected", "", date
	default:
		return "Waitlisted", "", ""
	}
}

// ParseListingPage parses one paginated survey page into partial records.
// Rows with fewer than 5 data cells are header/malformed rows and are
// skipped. Every record on the page shares one capture instant.
func ParseListingPage(html string, sourceURL string) []domain.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(sourceURL)
	scrapedAt := time.Now().UTC().Format(time.RFC3339)

	var records []domain.RawRecord
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		status, accepted, rejected := ParseDecision(cells.Eq(3).Text())

		records = append(records, domain.RawRecord{
			University:   cleanCellText(cells.Eq(0).Text()),
			Program:      cleanCellText(cells.Eq(1).Text()),
			DatePosted:   cleanCellText(cells.Eq(2).Text()),
			Status:       status,
			AcceptedDate: accepted,
			RejectedDate: rejected,
			Comments:     cleanListingComments(cells.Eq(4).Text()),
			EntryURL:     extractEntryURL(row, base),
			SourceURL:    sourceURL,
			ScrapedAt:    scrapedAt,
		})
	})
	return records
}

// extractEntryURL finds the first /result/<id> link in a row, resolves it
// against the page URL and canonicalizes. Empty when the row has none.
func extractEntryURL(row *goquery.Selection, base *url.URL) string {
	found := ""
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !strings.Contains(href, resultPathPrefix) {
			return true
		}
		abs := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
		found = CanonicalResultURL(abs)
		return false
	})
	return found
}

func cleanListingComments(text string) string {
	for _, re := range listingChrome {
		text = re.ReplaceAllString(text, "")
	}
	return cleanCellText(text)
}

// cleanCellText collapses whitespace runs the way the listing cells need:
// non-breaking spaces flattened, runs to single spaces, trimmed.
func cleanCellText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
