package htmlutil

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// OwnText returns the text of the direct text children of the selection's
// first node, skipping the text inside child elements.
func OwnText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var buffer bytes.Buffer
	child := sel.Get(0).FirstChild
	for child != nil {
		if child.Type == html.TextNode {
			buffer.WriteString(child.Data)
		}
		child = child.NextSibling
	}
	return buffer.String()
}

func removeNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// CleanText strips non-printable characters, trims and collapses inner whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	// strings.Fields also splits on unicode spaces such as &nbsp;
	return strings.Join(strings.Fields(s), " ")
}

type Anchor struct {
	Name string
	Url  *url.URL
}

// GetAnchors returns the anchors in the selection with a parseable href.
func GetAnchors(sel *goquery.Selection) []Anchor {
	var anchors []Anchor
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Url:  link,
		})
	}
	return anchors
}

// LastPathSegment returns the final non-empty segment of a url path.
func LastPathSegment(link *url.URL) string {
	segments := strings.Split(strings.TrimRight(link.Path, "/"), "/")
	return segments[len(segments)-1]
}
