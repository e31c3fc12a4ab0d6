package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/kiwicrawl/internal/model"
)

// Parser extracts plain text and links from a wiki page.
//
// Design decision: We drive golang.org/x/net/html's Tokenizer instead of
// building a DOM with html.Parse because:
//  1. The tree builder re-parents misnested anchors, which would change link
//     order and anchor text compared to the source markup
//  2. A flat event loop with an explicit stack never recurses, so deeply
//     nested or malformed markup cannot blow the stack
//  3. Pages are scanned once and nothing needs to be kept after the scan
//
// Only script and style bodies are read as raw text. The tokenizer would
// also swallow the markup inside noscript, iframe, textarea, title and
// similar elements, so their children are tokenized as ordinary tags.
type Parser struct {
	// baseURL resolves relative hrefs. Nil when the page URL did not parse,
	// in which case hrefs are kept as written.
	baseURL *url.URL
}

// ParseResult is what a single scan of a page produces.
type ParseResult struct {
	// PlainText is every visible text fragment joined with single spaces.
	PlainText string

	// Links are the anchors with an href, in document order.
	Links []model.PageLink
}

// NewParser creates a Parser that resolves links against baseURL.
// It never fails: an unparsable base only disables resolution.
func NewParser(baseURL string) *Parser {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}
	return &Parser{baseURL: base}
}

// Parse scans content and returns its text and links. Malformed markup and
// read errors end the scan early but never fail it; whatever was collected
// so far is returned.
func (p *Parser) Parse(content io.Reader) *ParseResult {
	s := &pageScanner{parser: p, links: make([]model.PageLink, 0)}
	z := html.NewTokenizer(content)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return s.result()
		case html.TextToken:
			s.text(string(z.Text()))
		case html.StartTagToken:
			name, href, hasHref := readTag(z)
			if !isSkipElement(name) {
				z.NextIsNotRawText()
			}
			s.start(name, href, hasHref)
		case html.EndTagToken:
			name, _ := z.TagName()
			s.end(atom.Lookup(name))
		case html.SelfClosingTagToken:
			name, href, hasHref := readTag(z)
			z.NextIsNotRawText()
			s.start(name, href, hasHref)
			s.end(name)
		}
	}
}

// readTag returns the atom of the current tag and, for anchors, its href.
// With duplicate href attributes the last one wins.
func readTag(z *html.Tokenizer) (atom.Atom, string, bool) {
	rawName, hasAttr := z.TagName()
	name := atom.Lookup(rawName)
	if name != atom.A {
		return name, "", false
	}

	var href string
	var hasHref bool
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "href" {
			href = string(val)
			hasHref = true
		}
	}
	return name, href, hasHref
}

// anchorFrame is an anchor that has been opened but not yet closed.
type anchorFrame struct {
	href string
	text []string
}

// pageScanner holds the state of one Parse call.
type pageScanner struct {
	parser *Parser

	// skipDepth counts open script/style elements. Never negative.
	skipDepth int

	// fragments are the collapsed, non-empty text pieces in document order.
	fragments []string

	// frames is the stack of open anchors; the innermost is last.
	frames []*anchorFrame

	links []model.PageLink
}

func (s *pageScanner) start(name atom.Atom, href string, hasHref bool) {
	if isSkipElement(name) {
		s.skipDepth++
		return
	}
	if s.skipDepth > 0 {
		return
	}
	if name == atom.A && hasHref {
		s.frames = append(s.frames, &anchorFrame{href: href})
	}
}

func (s *pageScanner) end(name atom.Atom) {
	if isSkipElement(name) {
		if s.skipDepth > 0 {
			s.skipDepth--
		}
		return
	}
	if s.skipDepth > 0 || name != atom.A || len(s.frames) == 0 {
		return
	}

	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	// An empty href still opens a frame, but there is nothing to link to.
	if frame.href == "" {
		return
	}

	title, _ := ResolveTitleFromHref(frame.href)
	s.links = append(s.links, model.PageLink{
		TargetURL:   s.parser.resolveURL(frame.href),
		AnchorText:  strings.TrimSpace(strings.Join(frame.text, " ")),
		TargetTitle: title,
	})
}

func (s *pageScanner) text(data string) {
	if s.skipDepth > 0 {
		return
	}
	fragment := collapseWhitespace(data)
	if fragment == "" {
		return
	}
	s.fragments = append(s.fragments, fragment)
	if len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		top.text = append(top.text, fragment)
	}
}

func (s *pageScanner) result() *ParseResult {
	return &ParseResult{
		PlainText: collapseWhitespace(strings.Join(s.fragments, " ")),
		Links:     s.links,
	}
}

// resolveURL resolves href against the page URL.
// Hrefs that do not parse are returned unchanged.
func (p *Parser) resolveURL(href string) string {
	if p.baseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(ref).String()
}

func isSkipElement(name atom.Atom) bool {
	return name == atom.Script || name == atom.Style
}

// collapseWhitespace trims s and folds internal whitespace runs to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
