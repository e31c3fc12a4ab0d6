package model

// PageLink is a single anchor element extracted from a page, in document order.
type PageLink struct {
	// TargetURL is the href resolved against the page URL.
	TargetURL string `json:"target_url"`

	// AnchorText is the space-joined text found inside the anchor.
	AnchorText string `json:"anchor_text"`

	// TargetTitle is the canonical title resolved from the raw href.
	// Empty when no title could be resolved.
	TargetTitle string `json:"target_title,omitempty"`
}

// HasTargetTitle reports whether a title was resolved for the link.
// A resolved title is never empty, so the empty string means "none".
func (l PageLink) HasTargetTitle() bool {
	return l.TargetTitle != ""
}

// PageDocument is the structured result of fetching one wiki page.
//
// Design decision: We keep the raw HTML alongside the extracted text because
// the history database stores it for later re-parsing, even though the corpus
// artifact does not include it.
type PageDocument struct {
	// Title is the title that was requested, not the <title> element.
	Title string `json:"title"`

	// URL is the absolute URL the page was fetched from.
	URL string `json:"url"`

	// HTML is the decoded response body.
	HTML string `json:"-"`

	// PlainText is the visible text with whitespace runs collapsed.
	PlainText string `json:"plain_text"`

	// Links are the extracted anchors in document order.
	Links []PageLink `json:"links"`
}

// LinkTitles returns the resolved target titles of the page's links,
// skipping links without one.
func (p *PageDocument) LinkTitles() []string {
	titles := make([]string, 0, len(p.Links))
	for _, link := range p.Links {
		if link.HasTargetTitle() {
			titles = append(titles, link.TargetTitle)
		}
	}
	return titles
}
