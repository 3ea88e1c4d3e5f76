package ebird

import (
	"fmt"
	"net/url"
	"strings"

	"ebird-pages/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

func parseIdentifier(root *goquery.Selection) (string, error) {
	value := strings.TrimSpace(root.Find("input[name=subID]").First().AttrOr("value", ""))
	if value != "" {
		return value, nil
	}

	canonical, ok := root.Find("link[rel=canonical]").First().Attr("href")
	if ok {
		link, err := url.Parse(canonical)
		if err == nil {
			if id := htmlutil.LastPathSegment(link); id != "" {
				return id, nil
			}
		}
	}
	return "", structureError("checklist identifier", nil)
}

// effortSection is the part of the page holding the date heading and the
// labelled effort fields.
func effortSection(root *goquery.Selection) (*goquery.Selection, error) {
	heading := root.Find("h5.rep-obs-date").First()
	if heading.Length() == 0 {
		return nil, structureError("date heading", nil)
	}
	section := heading.Closest("div.report-section")
	if section.Length() == 0 {
		section = heading.Parent()
	}
	return section, nil
}

// ExtractChecklist builds the checklist record from a parsed checklist page.
func ExtractChecklist(doc *goquery.Document) (Checklist, error) {
	root := doc.Selection

	identifier, err := parseIdentifier(root)
	if err != nil {
		return Checklist{}, err
	}

	section, err := effortSection(root)
	if err != nil {
		return Checklist{}, err
	}
	date, _, err := parseDateHeading(section)
	if err != nil {
		return Checklist{}, err
	}

	protocolName, err := parseProtocolName(section)
	if err != nil {
		return Checklist{}, err
	}
	name, strategy, err := ResolveProtocol(protocolName)
	if err != nil {
		return Checklist{}, err
	}
	effort, err := strategy.Extract(name, section)
	if err != nil {
		return Checklist{}, err
	}

	location, err := parseLocation(root)
	if err != nil {
		return Checklist{}, err
	}
	entries, err := parseEntries(root)
	if err != nil {
		return Checklist{}, err
	}
	complete, err := parseComplete(root)
	if err != nil {
		return Checklist{}, err
	}

	return Checklist{
		Identifier: identifier,
		Date:       date,
		Protocol: Protocol{
			Name:   name,
			Effort: effort,
		},
		Location: location,
		Entries:  entries,
		Comment:  parseComment(section),
		Complete: complete,
	}, nil
}

// ParseChecklist is ExtractChecklist over raw html.
func ParseChecklist(html string) (Checklist, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Checklist{}, fmt.Errorf("parse checklist page: %w", err)
	}
	return ExtractChecklist(doc)
}
