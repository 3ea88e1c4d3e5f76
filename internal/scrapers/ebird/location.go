package ebird

import (
	"fmt"
	"strconv"
	"strings"

	"ebird-pages/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// locationParts splits the location line into the site name, county,
// region and two-letter country code. Only the last three comma separated
// parts are fixed, site names may contain commas of their own.
func locationParts(text string) (site, subnational2, subnational1, country string, err error) {
	parts := strings.Split(text, ",")
	if len(parts) < 4 {
		err = fmt.Errorf("expected site, county, region and country in %q", htmlutil.CleanText(text))
		return
	}
	n := len(parts)

	site = htmlutil.CleanText(strings.Join(parts[:n-3], ","))
	subnational2 = htmlutil.CleanText(parts[n-3])
	subnational1 = htmlutil.CleanText(parts[n-2])
	country = htmlutil.CleanText(parts[n-1])
	if runes := []rune(country); len(runes) > 2 {
		country = string(runes[:2])
	}
	return
}

func parseCoordinate(value string, limit float64) (float64, error) {
	coordinate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if coordinate < -limit || coordinate > limit {
		return 0, fmt.Errorf("%v is outside [-%v, %v]", coordinate, limit, limit)
	}
	return coordinate, nil
}

// parseCoordinates reads the latitude and longitude from the `ll` parameter
// of the map link, the parameter can be anywhere in the query.
func parseCoordinates(section *goquery.Selection) (lat, lon float64, err error) {
	var mapLink *htmlutil.Anchor
	for _, a := range htmlutil.GetAnchors(section.Find("a")) {
		if strings.EqualFold(a.Name, "map") {
			mapLink = &a
			break
		}
	}
	if mapLink == nil {
		return 0, 0, structureError("map link", nil)
	}

	ll := mapLink.Url.Query().Get("ll")
	if ll == "" {
		return 0, 0, structureError("map link", fmt.Errorf("no ll parameter in %q", mapLink.Url.String()))
	}
	latText, lonText, ok := strings.Cut(ll, ",")
	if !ok {
		return 0, 0, structureError("map link", fmt.Errorf("malformed coordinates %q", ll))
	}

	lat, err = parseCoordinate(latText, 90)
	if err != nil {
		return 0, 0, structureError("latitude", err)
	}
	lon, err = parseCoordinate(lonText, 180)
	if err != nil {
		return 0, 0, structureError("longitude", err)
	}
	return lat, lon, nil
}

// parseHotspot returns the hotspot identifier or an empty string when the
// location is not a hotspot.
func parseHotspot(section *goquery.Selection) string {
	for _, a := range htmlutil.GetAnchors(section.Find("a")) {
		if strings.Contains(strings.ToLower(a.Name), "hotspot") {
			return htmlutil.LastPathSegment(a.Url)
		}
	}
	return ""
}

// regionCodes picks up the codes of any region links in the location
// section, the depth of a code is the number of dashes in it (US, US-MA, US-MA-017).
func regionCodes(section *goquery.Selection, location *Location) {
	for _, a := range htmlutil.GetAnchors(section.Find("a")) {
		if !strings.Contains(a.Url.Path, "/region/") {
			continue
		}
		code := htmlutil.LastPathSegment(a.Url)
		switch strings.Count(code, "-") {
		case 0:
			location.CountryCode = code
		case 1:
			location.Subnational1Code = code
		case 2:
			location.Subnational2Code = code
		}
	}
}

func locationSection(root *goquery.Selection) (*goquery.Selection, *goquery.Selection, error) {
	heading := root.Find("h5.obs-loc").First()
	if heading.Length() == 0 {
		return nil, nil, structureError("location heading", nil)
	}
	section := heading.Closest("div.report-section")
	if section.Length() == 0 {
		section = heading.Parent()
	}
	return heading, section, nil
}

func parseLocation(root *goquery.Selection) (Location, error) {
	heading, section, err := locationSection(root)
	if err != nil {
		return Location{}, err
	}

	site, subnational2, subnational1, country, err := locationParts(htmlutil.OwnText(heading))
	if err != nil {
		return Location{}, structureError("location", err)
	}
	lat, lon, err := parseCoordinates(section)
	if err != nil {
		return Location{}, err
	}

	location := Location{
		Name:         site,
		Identifier:   parseHotspot(section),
		Subnational2: subnational2,
		Subnational1: subnational1,
		Country:      country,
		CountryCode:  country,
		Lat:          lat,
		Lon:          lon,
	}
	regionCodes(section, &location)
	return location, nil
}
