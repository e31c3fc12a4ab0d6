package output

import "github.com/nao1215/kiwicrawl/internal/model"

// CorpusRecord is one line of corpus.jsonl.
type CorpusRecord struct {
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	PlainText string       `json:"plain_text"`
	Links     []LinkRecord `json:"links"`
}

// LinkRecord is a link inside a CorpusRecord.
// TargetTitle is null in JSON when no title was resolved.
type LinkRecord struct {
	TargetURL   string  `json:"target_url"`
	AnchorText  string  `json:"anchor_text"`
	TargetTitle *string `json:"target_title"`
}

// Graph is the content of graph.json.
type Graph struct {
	Nodes []Node       `json:"nodes"`
	Edges []model.Edge `json:"edges"`
}

// Node is a fetched page in the graph.
type Node struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NewCorpusRecord converts a page to its corpus line.
func NewCorpusRecord(page *model.PageDocument) CorpusRecord {
	links := make([]LinkRecord, len(page.Links))
	for i, link := range page.Links {
		links[i] = LinkRecord{
			TargetURL:  link.TargetURL,
			AnchorText: link.AnchorText,
		}
		if link.HasTargetTitle() {
			title := link.TargetTitle
			links[i].TargetTitle = &title
		}
	}

	return CorpusRecord{
		Title:     page.Title,
		URL:       page.URL,
		PlainText: page.PlainText,
		Links:     links,
	}
}

// NewGraph builds the graph of a crawl result.
func NewGraph(result *model.CrawlResult) *Graph {
	nodes := make([]Node, len(result.Pages))
	for i, page := range result.Pages {
		nodes[i] = Node{Title: page.Title, URL: page.URL}
	}

	edges := make([]model.Edge, len(result.Edges))
	copy(edges, result.Edges)

	return &Graph{Nodes: nodes, Edges: edges}
}
