package kiwix

import (
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// defaultCharset is assumed when the server declares none.
const defaultCharset = "utf-8"

// decodeBody converts body to a UTF-8 string using the declared charset.
// It never fails: unknown labels fall back to UTF-8 and invalid byte
// sequences become U+FFFD.
func decodeBody(body []byte, label string) string {
	decoded, _, err := transform.Bytes(lookupEncoding(label).NewDecoder(), body)
	if err != nil {
		decoded = body
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}

// latin1Labels name ISO-8859-1 itself. The WHATWG table maps them to
// windows-1252, which decodes 0x80-0x9F to printable characters instead of
// the C1 controls.
var latin1Labels = map[string]struct{}{
	"latin1":     {},
	"latin-1":    {},
	"l1":         {},
	"iso-8859-1": {},
	"iso8859-1":  {},
	"iso_8859-1": {},
	"iso_8859_1": {},
	"cp819":      {},
	"ibm819":     {},
}

// lookupEncoding resolves a charset label. Latin-1 labels decode as true
// ISO-8859-1; everything else goes through the WHATWG label table.
func lookupEncoding(label string) encoding.Encoding {
	label = strings.TrimSpace(label)
	if label == "" {
		label = defaultCharset
	}
	if _, ok := latin1Labels[strings.ToLower(label)]; ok {
		return charmap.ISO8859_1
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return unicode.UTF8
	}
	return enc
}
