package crawler

import (
	"net/url"
	"strings"
)

// wikiPathPrefix is the path segment kiwix-serve puts in front of article names.
const wikiPathPrefix = "wiki"

// ResolveTitleFromHref returns the canonical page title an href points at.
// Only the path is used; query and fragment are ignored. A leading "wiki"
// segment is dropped, the last remaining segment is percent-decoded, and
// underscores become spaces.
//
// The second return value is false when no title can be derived, e.g. for
// "#section", "/wiki/" or "?q=1".
func ResolveTitleFromHref(href string) (string, bool) {
	path := strings.TrimLeft(hrefPath(href), "/")
	if path == "" {
		return "", false
	}

	segments := strings.Split(path, "/")
	if strings.EqualFold(segments[0], wikiPathPrefix) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", false
	}

	last := segments[len(segments)-1]
	if last == "" {
		return "", false
	}

	title := strings.ReplaceAll(percentDecode(last), "_", " ")
	if title == "" {
		return "", false
	}
	return title, true
}

// DeriveTitleFromAbsoluteURL is the weaker fallback used when a link carries
// no resolved title. It takes the last segment of the URL after trimming
// trailing slashes and replaces underscores with spaces. It does not
// percent-decode.
func DeriveTitleFromAbsoluteURL(rawURL string) (string, bool) {
	segments := strings.Split(strings.TrimRight(rawURL, "/"), "/")
	if len(segments) == 0 {
		return "", false
	}

	title := strings.ReplaceAll(segments[len(segments)-1], "_", " ")
	if title == "" {
		return "", false
	}
	return title, true
}

// hrefPath returns the still-escaped path component of href.
//
// Design decision: We take the escaped form and decode the chosen segment
// afterwards, so an encoded "%2F" stays inside its segment instead of
// splitting it in two.
func hrefPath(href string) string {
	u, err := url.Parse(href)
	if err == nil {
		// "mailto:x@y" and friends keep everything in Opaque.
		if u.Opaque != "" {
			return u.Opaque
		}
		return u.EscapedPath()
	}

	// url.Parse rejects hrefs that browsers accept (bad escapes, stray
	// brackets). Cut them by hand instead of dropping the link.
	s := href
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+len("://"):]
		j := strings.IndexByte(rest, '/')
		if j < 0 {
			return ""
		}
		s = rest[j:]
	}
	return s
}

// percentDecode decodes %XX escapes and leaves malformed escapes untouched.
// Invalid UTF-8 in the decoded bytes is replaced with U+FFFD.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
