package crawl

import (
	"encoding/json"
	"time"
)

// Kind distinguishes folders from files.
type Kind string

// Node kinds.
const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Node is one folder or file in a crawled tree. A node with Error set has
// no children: the branch was abandoned, not partially populated. Nodes are
// built for a single crawl and never modified after Crawl returns.
type Node struct {
	Name       string
	Path       string
	URL        string
	Kind       Kind
	CreatedAt  *time.Time
	ModifiedAt *time.Time
	Size       *int64 // files only
	Children   []Node // folders only
	Error      string

	// Truncated is set when a folder held more entries than the per-level
	// cap and Children was cut short.
	Truncated bool
}

// nodeJSON is the wire form. Folders always carry a children array, files
// never do.
type nodeJSON struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	URL       string     `json:"url,omitempty"`
	Type      Kind       `json:"type"`
	Created   *time.Time `json:"created,omitempty"`
	Modified  *time.Time `json:"modified,omitempty"`
	Size      *int64     `json:"size,omitempty"`
	Children  *[]Node    `json:"children,omitempty"`
	Error     string     `json:"error,omitempty"`
	Truncated bool       `json:"truncated,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		Name:      n.Name,
		Path:      n.Path,
		URL:       n.URL,
		Type:      n.Kind,
		Created:   n.CreatedAt,
		Modified:  n.ModifiedAt,
		Size:      n.Size,
		Error:     n.Error,
		Truncated: n.Truncated,
	}

	if n.Kind == KindFolder {
		children := n.Children
		if children == nil {
			children = []Node{}
		}

		out.Children = &children
	}

	return json.Marshal(out)
}

// Walk calls fn for n and every descendant, depth first, with each node's
// depth below n.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int), depth int) {
	fn(n, depth)

	for i := range n.Children {
		n.Children[i].walk(fn, depth+1)
	}
}

// Stats summarizes a tree.
type Stats struct {
	Folders  int `json:"folders"`
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	MaxDepth int `json:"max_depth"`
}

// Summarize counts the folders, files, and error stubs under n (n
// included).
func (n *Node) Summarize() Stats {
	var s Stats

	n.Walk(func(node *Node, depth int) {
		if node.Kind == KindFolder {
			s.Folders++
		} else {
			s.Files++
		}

		if node.Error != "" {
			s.Errors++
		}

		s.MaxDepth = max(s.MaxDepth, depth)
	})

	return s
}
