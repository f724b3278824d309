// Package identity derives stable product identifiers and canonical URLs from raw marketplace links.
package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxIDInputLength bounds the URL prefix that identifier matchers look at.
	MaxIDInputLength = 500
	// MaxURLLength bounds every URL handled by the normalizer. It equals the stored url cap,
	// so a normalized URL is never shortened again on its way to the store.
	MaxURLLength = 500
	// DefaultCacheSize is the number of normalized URLs kept in memory.
	DefaultCacheSize = 10000
	// DefaultMarketplaceURL is the origin used for canonical and relative URLs.
	DefaultMarketplaceURL = "https://www.amazon.com"

	stableIDLength = 10
)

// Matchers run in order; the first valid capture wins.
var (
	idMatchers = []*regexp.Regexp{
		regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i:asin)[/=]([A-Z0-9]{10})`),
	}
	stableIDShape = regexp.MustCompile(`^[A-Z0-9]{10}$`)
)

// trackingSegments are path suffixes that only carry referral state.
var trackingSegments = []string{"/ref=", "/ref/"}

// ExtractStableID returns the fixed-format product identifier carried by rawURL,
// or an empty string when none of the matchers fire.
func ExtractStableID(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	safe := truncate(rawURL, MaxIDInputLength)
	for _, matcher := range idMatchers {
		match := matcher.FindStringSubmatch(safe)
		if len(match) < 2 || len(match[1]) != stableIDLength {
			continue
		}
		if stableIDShape.MatchString(match[1]) {
			return match[1]
		}
	}

	return ""
}

// IsStableID reports whether id has the fixed alphanumeric shape.
func IsStableID(id string) bool {
	return stableIDShape.MatchString(id)
}

// CanonicalURL builds the canonical product URL for a stable identifier.
func CanonicalURL(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/dp/" + id
}

// cleanURL strips the query string, fragment and tracking segments and coerces the
// result to an absolute URL. The returned value is a fixed point of cleanURL.
func cleanURL(origin, rawURL string) string {
	cleaned := strings.TrimSpace(truncate(rawURL, MaxURLLength))
	if idx := strings.IndexAny(cleaned, "?#"); idx != -1 {
		cleaned = cleaned[:idx]
	}

	if !isAbsolute(cleaned) {
		origin = strings.TrimRight(origin, "/")
		if strings.HasPrefix(cleaned, "/") {
			cleaned = origin + cleaned
		} else {
			cleaned = origin + "/" + cleaned
		}
		cleaned = truncate(cleaned, MaxURLLength)
	}

	// Every pass shortens the string, so the loop is bounded by its length.
	for {
		stripped := stripTracking(cleaned)
		if stripped == cleaned {
			return cleaned
		}
		cleaned = stripped
	}
}

// stripTracking removes one round of tracking segments from the path part of an absolute URL.
func stripTracking(absURL string) string {
	pathStart := pathOffset(absURL)
	if pathStart == -1 {
		return strings.TrimSpace(absURL)
	}

	host, path := absURL[:pathStart], absURL[pathStart:]
	for _, segment := range trackingSegments {
		if idx := strings.Index(path, segment); idx != -1 {
			path = path[:idx]
		}
	}
	path = strings.TrimSuffix(path, "/ref")

	return strings.TrimSpace(host + path)
}

// pathOffset returns the index of the first '/' after the scheme and host, or -1.
func pathOffset(absURL string) int {
	schemeEnd := strings.Index(absURL, "://")
	if schemeEnd == -1 {
		return -1
	}
	hostStart := schemeEnd + len("://")
	idx := strings.IndexByte(absURL[hostStart:], '/')
	if idx == -1 {
		return -1
	}
	return hostStart + idx
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
