package search

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/careboard/careboard/internal/models"
)

// ParseResults extracts up to limit result cards from a search page. Cards
// are the a.item-card links inside #itemList; hrefs are resolved against
// base.
func ParseResults(page []byte, base *url.URL, limit int) ([]models.SupplementItem, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	items := []models.SupplementItem{}
	list := findFirst(doc, func(n *html.Node) bool { return attr(n, "id") == "itemList" })
	if list == nil {
		return items, nil
	}

	for _, card := range findAll(list, func(n *html.Node) bool {
		return n.Data == "a" && hasClass(n, "item-card")
	}) {
		if len(items) >= limit {
			break
		}
		items = append(items, models.SupplementItem{
			Href:    resolve(base, attr(card, "href")),
			Brand:   textOf(card, "txt1"),
			Name:    textOf(card, "txt2"),
			Rating:  textOf(card, "star-point"),
			Reviews: textOf(card, "txt3"),
			Dose:    textOf(card, "txt-dot"),
			Image:   imageOf(card),
		})
	}
	return items, nil
}

func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func textOf(card *html.Node, class string) string {
	n := findFirst(card, func(n *html.Node) bool { return hasClass(n, class) })
	if n == nil {
		return ""
	}
	return strings.TrimSpace(innerText(n))
}

func imageOf(card *html.Node) string {
	n := findFirst(card, func(n *html.Node) bool { return n.Data == "img" && hasClass(n, "item-img") })
	if n == nil {
		return ""
	}
	return attr(n, "src")
}

// findFirst returns the first element below root (depth first) matching.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && match(child) {
			return child
		}
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && match(child) {
				out = append(out, child)
			}
			traverse(child)
		}
	}
	traverse(root)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
