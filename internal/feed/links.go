package feed

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// linkAttrs lists the attributes resolved per element.
var linkAttrs = map[atom.Atom]string{
	atom.A:      "href",
	atom.Img:    "src",
	atom.Source: "src",
	atom.Video:  "src",
	atom.Audio:  "src",
}

// AbsolutizeLinks resolves relative link and media URLs in an HTML fragment
// against pageURL, so entries read correctly outside the site. URLs with a
// scheme and protocol-relative URLs are left alone.
func AbsolutizeLinks(fragment, pageURL string) (string, error) {
	if pageURL == "" || !strings.ContainsAny(fragment, "<") {
		return fragment, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		rewriteNode(n, base)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		if key, ok := linkAttrs[n.DataAtom]; ok {
			rewriteAttr(n, key, base)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, base)
	}
}

func rewriteAttr(n *html.Node, key string, base *url.URL) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativeURL(attr.Val) {
			continue
		}
		ref, err := url.Parse(attr.Val)
		if err != nil {
			continue
		}
		n.Attr[i].Val = base.ResolveReference(ref).String()
	}
}

// isRelativeURL reports whether u needs resolving against the page URL.
func isRelativeURL(u string) bool {
	if u == "" || strings.HasPrefix(u, "//") {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == ""
}
