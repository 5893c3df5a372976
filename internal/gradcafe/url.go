package gradcafe

import (
	"net/url"
	"strings"
)

const (
	canonicalHost    = "www.thegradcafe.com"
	bareHost         = "thegradcafe.com"
	resultPathPrefix = "/result/"
)

// CanonicalResultURL normalizes a detail-page URL to the single canonical
// form https://www.thegradcafe.com/result/<id>: query and fragment dropped,
// scheme forced to https, bare host collapsed onto the www host.
// Idempotent: canonicalizing a canonical URL is a no-op.
func CanonicalResultURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Fragment = ""
	u.RawQuery = ""
	u.Scheme = "https"

	host := strings.ToLower(u.Host)
	if host == "" || host == bareHost {
		host = canonicalHost
	}
	u.Host = host

	return u.String()
}

// ValidResultURL reports whether a URL points at a detail page on the
// target site. Any other host fails, even with a matching path.
func ValidResultURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Host), bareHost) &&
		strings.HasPrefix(u.Path, resultPathPrefix)
}
