package ebird

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ebird-pages/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const recentDateLayout = "2006-01-02 15:04"

func nthText(sel *goquery.Selection, n int, element string) (string, error) {
	if sel.Length() <= n {
		return "", structureError(element, nil)
	}
	return htmlutil.CleanText(sel.Eq(n).Text()), nil
}

func parseSummary(item *goquery.Selection) (ChecklistSummary, error) {
	species := item.Find("div.Chk-species").First()
	href, ok := species.Find("a[href]").First().Attr("href")
	if !ok {
		return ChecklistSummary{}, structureError("checklist link", nil)
	}
	link, err := url.Parse(href)
	if err != nil {
		return ChecklistSummary{}, structureError("checklist link", err)
	}

	countText, err := nthText(species.Find("span"), 0, "species count")
	if err != nil {
		return ChecklistSummary{}, err
	}
	count, err := strconv.Atoi(countText)
	if err != nil {
		return ChecklistSummary{}, structureError("species count", err)
	}

	value, ok := item.Find("div.Chk-date time[datetime]").First().Attr("datetime")
	if !ok {
		return ChecklistSummary{}, structureError("checklist date", nil)
	}
	date, err := time.Parse(recentDateLayout, strings.TrimSpace(value))
	if err != nil {
		return ChecklistSummary{}, structureError("checklist date", err)
	}

	location := item.Find("div.Chk-location").First()
	name := location.Find(".u-loc-name").First()
	if name.Length() == 0 {
		return ChecklistSummary{}, structureError("location name", nil)
	}
	ancestors := location.Find("span.u-loc-ancestors span")
	subnational2, err := nthText(ancestors, 0, "subnational2")
	if err != nil {
		return ChecklistSummary{}, err
	}
	subnational1, err := nthText(ancestors, 1, "subnational1")
	if err != nil {
		return ChecklistSummary{}, err
	}

	observer, err := nthText(item.Find("div.Chk-observer span"), 1, "observer")
	if err != nil {
		return ChecklistSummary{}, err
	}

	return ChecklistSummary{
		Identifier:   htmlutil.LastPathSegment(link),
		Species:      count,
		Date:         date,
		Location:     htmlutil.CleanText(name.Text()),
		Subnational1: subnational1,
		Subnational2: subnational2,
		Observer:     observer,
	}, nil
}

// ExtractRecentChecklists returns the rows of a region's recent checklists
// page in the order they are listed.
func ExtractRecentChecklists(doc *goquery.Document) ([]ChecklistSummary, error) {
	list := doc.Find("ul.RecentChecklists-list").First()
	if list.Length() == 0 {
		return nil, structureError("recent checklists list", nil)
	}

	items := list.Find("li.Chk")
	summaries := make([]ChecklistSummary, 0, items.Length())
	for i := range items.Nodes {
		summary, err := parseSummary(items.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("recent checklist %d: %w", i+1, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func ParseRecentChecklists(html string) ([]ChecklistSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse recent checklists page: %w", err)
	}
	return ExtractRecentChecklists(doc)
}
