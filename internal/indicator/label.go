package indicator

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

const labelLimit = 50

// Label describes the commented element for the marker tooltip. It prefers
// the stored snapshots over the live element so the label survives the
// element disappearing.
func Label(id string, comments []models.Comment, el Element, found bool) string {
	if len(comments) > 0 {
		first := comments[0]
		if text := snapshotText(first.InnerHTML); text != "" {
			return ellipsize(text)
		}
		if first.Element != "" {
			if attr := snapshotAttr(first.Element, "title", "aria-label"); attr != "" {
				return attr
			}
			if text := snapshotText(first.Element); text != "" {
				return ellipsize(text)
			}
		}
	}

	if found {
		if el.Title != "" {
			return el.Title
		}
		if el.AriaLabel != "" {
			return el.AriaLabel
		}
		if text := collapse(el.Text); text != "" {
			return ellipsize(text)
		}
	}

	return "Element: " + id
}

func ellipsize(s string) string {
	r := []rune(s)
	if len(r) <= labelLimit {
		return s
	}
	return string(r[:labelLimit]) + "..."
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseSnapshot(fragment string) []*html.Node {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil
	}
	return nodes
}

// snapshotText is the collapsed text content of an HTML fragment, ignoring
// script and style.
func snapshotText(fragment string) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range parseSnapshot(fragment) {
		walk(n)
	}
	return collapse(b.String())
}

// snapshotAttr returns the first non-empty attribute among keys on the
// fragment's first element.
func snapshotAttr(fragment string, keys ...string) string {
	for _, n := range parseSnapshot(fragment) {
		if n.Type != html.ElementNode {
			continue
		}
		for _, key := range keys {
			for _, a := range n.Attr {
				if a.Key == key && strings.TrimSpace(a.Val) != "" {
					return strings.TrimSpace(a.Val)
				}
			}
		}
		return ""
	}
	return ""
}
