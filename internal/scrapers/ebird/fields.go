package ebird

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ebird-pages/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// space also matches unicode spaces, labels are often written with &nbsp;
const space = `[\s\p{Zs}]`

// labels are matched against the whole <dt> text, tolerant of case,
// surrounding whitespace, line breaks and a missing trailing colon
func labelRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + space + `*` + name + space + `*:?` + space + `*$`)
}

var (
	labelProtocol  = labelRegex(`protocol`)
	labelPartySize = labelRegex(`party` + space + `+size`)
	labelDistance  = labelRegex(`distance`)
	labelArea      = labelRegex(`area`)
	labelDuration  = labelRegex(`duration`)
	labelObservers = labelRegex(`observers`)
	labelComments  = labelRegex(`comments?`)
)

// findField returns the <dd> that belongs to the first <dt> matching label,
// the returned selection is empty when there is no such label.
func findField(section *goquery.Selection, label *regexp.Regexp) *goquery.Selection {
	dt := section.Find("dt").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return label.MatchString(s.Text())
	}).First()
	if dt.Length() == 0 {
		return dt
	}
	dd := dt.NextAllFiltered("dd").First()
	if dd.Length() == 0 {
		dd = dt.Parent().Find("dd").First()
	}
	return dd
}

func parseProtocolName(section *goquery.Selection) (string, error) {
	field := findField(section, labelProtocol)
	if field.Length() == 0 {
		return "", structureError("protocol label", nil)
	}
	name := htmlutil.CleanText(field.Text())
	if name == "" {
		return "", structureError("protocol", fmt.Errorf("empty protocol name"))
	}
	return name, nil
}

var distanceUnits = map[string]Unit{
	"kilometer(s)": UnitKilometer,
	"kilometre(s)": UnitKilometer,
	"km(s)":        UnitKilometer,
	"kilometers":   UnitKilometer,
	"kilometres":   UnitKilometer,
	"kilometer":    UnitKilometer,
	"kilometre":    UnitKilometer,
	"km":           UnitKilometer,
	"kms":          UnitKilometer,
	"mile(s)":      UnitMile,
	"miles":        UnitMile,
	"mile":         UnitMile,
	"mi":           UnitMile,
}

var areaUnits = map[string]Unit{
	"hectare(s)": UnitHectare,
	"hectares":   UnitHectare,
	"hectare":    UnitHectare,
	"ha":         UnitHectare,
	"acre(s)":    UnitAcre,
	"acres":      UnitAcre,
	"acre":       UnitAcre,
}

func parseMeasurement(name, text string, units map[string]Unit) (*Measurement, error) {
	values := strings.Fields(strings.ToLower(text))
	if len(values) < 2 {
		return nil, structureError(name, fmt.Errorf("expected a value and units, got %q", text))
	}
	value, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return nil, structureError(name, err)
	}
	unit, ok := units[values[1]]
	if !ok {
		return nil, &UnknownUnitError{Unit: values[1]}
	}
	return &Measurement{Value: value, Unit: unit}, nil
}

// parseDistance returns nil when the checklist has no distance.
func parseDistance(section *goquery.Selection) (*Measurement, error) {
	field := findField(section, labelDistance)
	if field.Length() == 0 {
		return nil, nil
	}
	return parseMeasurement("distance", field.Text(), distanceUnits)
}

// parseArea returns nil when the checklist has no area.
func parseArea(section *goquery.Selection) (*Measurement, error) {
	field := findField(section, labelArea)
	if field.Length() == 0 {
		return nil, nil
	}
	return parseMeasurement("area", field.Text(), areaUnits)
}

var (
	hourTokens   = []string{"hour(s)", "hours", "hour", "hrs", "hr"}
	minuteTokens = []string{"minute(s)", "minutes", "minute", "mins", "min"}
)

// countBefore finds the first of `units` in `tokens` and parses the token
// before it as the count, the count is 0 when no unit is present.
func countBefore(tokens []string, units []string) (int, error) {
	for i, token := range tokens {
		for _, unit := range units {
			if token != unit {
				continue
			}
			if i == 0 {
				return 0, fmt.Errorf("no value before %q", token)
			}
			return strconv.Atoi(tokens[i-1])
		}
	}
	return 0, nil
}

// parseDuration returns nil when the checklist has no duration.
func parseDuration(section *goquery.Selection) (*Duration, error) {
	field := findField(section, labelDuration)
	if field.Length() == 0 {
		return nil, nil
	}
	// the newer layout separates hours and minutes with a comma
	tokens := strings.FieldsFunc(strings.ToLower(field.Text()), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	hours, err := countBefore(tokens, hourTokens)
	if err != nil {
		return nil, structureError("duration", err)
	}
	minutes, err := countBefore(tokens, minuteTokens)
	if err != nil {
		return nil, structureError("duration", err)
	}

	duration := NewDuration(hours, minutes)
	return &duration, nil
}

// parsePartySize returns nil when the checklist has no party size.
func parsePartySize(section *goquery.Selection) (*int, error) {
	field := findField(section, labelPartySize)
	if field.Length() == 0 {
		return nil, nil
	}
	size, err := strconv.Atoi(strings.TrimSpace(field.Text()))
	if err != nil {
		return nil, structureError("party size", err)
	}
	return &size, nil
}

// parseObservers only ever finds the observer who submitted the checklist,
// the rest of the party is not listed on the page.
func parseObservers(section *goquery.Selection) []string {
	field := findField(section, labelObservers)
	if field.Length() == 0 {
		return nil
	}
	name := htmlutil.CleanText(field.Text())
	if name == "" {
		return nil
	}
	return []string{name}
}

// parseComment joins the paragraphs of the comment with newlines, a checklist
// without comments gives an empty string.
func parseComment(section *goquery.Selection) string {
	field := findField(section, labelComments)
	if field.Length() == 0 {
		return ""
	}

	paragraphs := field.Find("p")
	if paragraphs.Length() == 0 {
		return htmlutil.CleanText(field.Text())
	}

	var items []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		text := htmlutil.CleanText(p.Text())
		if text != "" {
			items = append(items, text)
		}
	})
	return strings.Join(items, "\n")
}

const (
	headingDateLayout = "Mon Jan 2 2006"
	headingTimeLayout = "3:04 PM"
)

// datetime attribute layouts, the bool says whether the layout carries a time
var timestampLayouts = []struct {
	layout  string
	hasTime bool
}{
	{layout: "2006-01-02T15:04:05", hasTime: true},
	{layout: "2006-01-02T15:04", hasTime: true},
	{layout: "2006-01-02 15:04", hasTime: true},
	{layout: "2006-01-02", hasTime: false},
}

func parseTimestamp(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, l := range timestampLayouts {
		t, err := time.Parse(l.layout, value)
		if err == nil {
			return t, l.hasTime, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", value)
}

// parseDateHeading reads the date and, when it was recorded, the start time
// from the date heading of the effort section.
func parseDateHeading(section *goquery.Selection) (Date, *Clock, error) {
	heading := section.Find("h5.rep-obs-date").First()
	if heading.Length() == 0 {
		return Date{}, nil, structureError("date heading", nil)
	}

	if value, ok := heading.Find("time[datetime]").First().Attr("datetime"); ok {
		t, hasTime, err := parseTimestamp(value)
		if err != nil {
			return Date{}, nil, structureError("date", err)
		}
		if !hasTime {
			return DateOf(t), nil, nil
		}
		clock := ClockOf(t)
		return DateOf(t), &clock, nil
	}

	tokens := strings.Fields(strings.ReplaceAll(heading.Text(), ",", " "))
	if len(tokens) < 4 {
		return Date{}, nil, structureError("date", fmt.Errorf("too few tokens in %q", heading.Text()))
	}

	day, err := time.Parse(headingDateLayout, strings.Join(tokens[:4], " "))
	if err != nil {
		return Date{}, nil, structureError("date", err)
	}
	if len(tokens) == 4 {
		return DateOf(day), nil, nil
	}

	start, err := time.Parse(headingTimeLayout, strings.ToUpper(strings.Join(tokens[4:], " ")))
	if err != nil {
		return Date{}, nil, structureError("time", err)
	}
	clock := ClockOf(start)
	return DateOf(day), &clock, nil
}

func parseCount(text string) (*int, error) {
	value := strings.ToLower(strings.TrimSpace(text))
	if value == "x" {
		return nil, nil
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return nil, structureError("count", err)
	}
	if count <= 0 {
		return nil, structureError("count", fmt.Errorf("count must be positive, got %d", count))
	}
	return &count, nil
}

func parseEntry(row *goquery.Selection) (Entry, error) {
	name := row.Find(".se-name").First()
	if name.Length() == 0 {
		return Entry{}, structureError("species name", nil)
	}
	countTag := row.Find(".se-count").First()
	if countTag.Length() == 0 {
		return Entry{}, structureError("species count", nil)
	}

	count, err := parseCount(countTag.Text())
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Species: htmlutil.CleanText(name.Text()),
		Count:   count,
	}, nil
}

// parseEntries returns the species rows in page order.
func parseEntries(root *goquery.Selection) ([]Entry, error) {
	rows := root.Find(".spp-entry")
	entries := make([]Entry, 0, rows.Length())
	for i := range rows.Nodes {
		entry, err := parseEntry(rows.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseComplete(root *goquery.Selection) (bool, error) {
	answer := root.Find("div.all-spp-ans h5").First()
	if answer.Length() == 0 {
		answer = root.Find(".Badge-label").First()
	}
	if answer.Length() == 0 {
		return false, structureError("all species reported answer", nil)
	}
	value := strings.ToLower(strings.TrimSpace(answer.Text()))
	return value == "yes" || value == "complete", nil
}
