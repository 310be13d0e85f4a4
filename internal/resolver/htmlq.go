package resolver

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Minimal selector walking over parsed HTML: the scraping sources only
// need id lookup, class lookup, first anchor, and text extraction.

// walk visits n and its descendants in document order until fn returns true.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findByID returns the element with the given id, or nil.
func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attrVal(n, "id") == id {
			found = n
			return true
		}
		return false
	})
	return found
}

// firstByClass returns the first element carrying class, or nil.
func firstByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return true
		}
		return false
	})
	return found
}

// eachByClass visits every element carrying class.
func eachByClass(root *html.Node, class string, fn func(*html.Node)) {
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			fn(n)
		}
		return false
	})
}

// firstAnchor returns the first <a href> under root, or nil.
func firstAnchor(root *html.Node) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && attrVal(n, "href") != "" {
			found = n
			return true
		}
		return false
	})
	return found
}

// anchors returns every <a href> under root in document order.
func anchors(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && attrVal(n, "href") != "" {
			out = append(out, n)
		}
		return false
	})
	return out
}

// text returns the concatenated, whitespace-collapsed text content of n.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return false
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
