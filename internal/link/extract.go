package link

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// routerLinkAttr is the attribute single-page-app routers use for in-app
// navigation targets. It takes precedence over href on the same element.
const routerLinkAttr = "routerlink"

// Extract returns the raw link tokens in an HTML document, in document order.
//
// An element contributes a token when it carries a routerlink attribute
// (any element) or when it is an <a> with an href attribute. Tokens are
// returned unresolved and undeduplicated; pass them through Normalize.
func Extract(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, routerLinkAttr); ok {
				tokens = append(tokens, v)
			} else if n.Data == "a" {
				if v, ok := attr(n, "href"); ok {
					tokens = append(tokens, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tokens, nil
}

// BaseHref returns the href of the document's first <base> element that has
// one, or "" when the document declares no base URL.
func BaseHref(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var find func(*html.Node) (string, bool)
	find = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "base" {
			if v, ok := attr(n, "href"); ok {
				return v, true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v, ok := find(c); ok {
				return v, true
			}
		}
		return "", false
	}

	href, _ := find(doc)
	return strings.TrimSpace(href), nil
}

// attr looks up an attribute on n. The tokenizer lowercases attribute names,
// so routerLink and routerlink are the same key here.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
