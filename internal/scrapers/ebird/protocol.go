package ebird

import (
	"ebird-pages/internal/components/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts the effort fields of one kind of protocol from the
// effort section of a checklist page.
type Strategy interface {
	Extract(protocol string, section *goquery.Selection) (Effort, error)
}

// pointStrategy is used by protocols where the observers stay in one place.
type pointStrategy struct{}

func (pointStrategy) Extract(protocol string, section *goquery.Selection) (Effort, error) {
	var effort Effort
	var err error

	_, effort.Time, err = parseDateHeading(section)
	if err != nil {
		return Effort{}, err
	}
	effort.Duration, err = parseDuration(section)
	if err != nil {
		return Effort{}, err
	}
	effort.PartySize, err = parsePartySize(section)
	if err != nil {
		return Effort{}, err
	}
	effort.Observers = parseObservers(section)

	return effort, requireFields(protocol, []requirement{
		{"time", effort.Time != nil},
		{"duration", effort.Duration != nil},
		{"party_size", effort.PartySize != nil},
	})
}

// distanceStrategy is used by protocols where the observers travel.
type distanceStrategy struct{}

func (distanceStrategy) Extract(protocol string, section *goquery.Selection) (Effort, error) {
	effort, err := pointStrategy{}.Extract(protocol, section)
	if err != nil {
		return Effort{}, err
	}
	effort.Distance, err = parseDistance(section)
	if err != nil {
		return Effort{}, err
	}
	return effort, requireFields(protocol, []requirement{
		{"distance", effort.Distance != nil},
	})
}

// areaStrategy is used by protocols where the observers cover an area,
// the area itself is only reported when requireArea is set.
type areaStrategy struct {
	requireArea bool
}

func (s areaStrategy) Extract(protocol string, section *goquery.Selection) (Effort, error) {
	effort, err := pointStrategy{}.Extract(protocol, section)
	if err != nil {
		return Effort{}, err
	}
	if !s.requireArea {
		return effort, nil
	}
	effort.Area, err = parseArea(section)
	if err != nil {
		return Effort{}, err
	}
	return effort, requireFields(protocol, []requirement{
		{"area", effort.Area != nil},
	})
}

// incidentalStrategy is used when no protocol was followed, nothing is required.
type incidentalStrategy struct{}

func (incidentalStrategy) Extract(_ string, section *goquery.Selection) (Effort, error) {
	var effort Effort
	var err error

	_, effort.Time, err = parseDateHeading(section)
	if err != nil {
		return Effort{}, err
	}
	effort.Observers = parseObservers(section)
	return effort, nil
}

// historicalStrategy takes whatever effort fields the checklist happens to have.
type historicalStrategy struct{}

func (historicalStrategy) Extract(_ string, section *goquery.Selection) (Effort, error) {
	effort, err := incidentalStrategy{}.Extract("", section)
	if err != nil {
		return Effort{}, err
	}
	effort.Duration, err = parseDuration(section)
	if err != nil {
		return Effort{}, err
	}
	effort.Distance, err = parseDistance(section)
	if err != nil {
		return Effort{}, err
	}
	effort.Area, err = parseArea(section)
	if err != nil {
		return Effort{}, err
	}
	effort.PartySize, err = parsePartySize(section)
	if err != nil {
		return Effort{}, err
	}
	return effort, nil
}

type requirement struct {
	field   string
	present bool
}

func requireFields(protocol string, requirements []requirement) error {
	for _, r := range requirements {
		if !r.present {
			return &MissingFieldError{Protocol: protocol, Field: r.field}
		}
	}
	return nil
}

var (
	point      = pointStrategy{}
	distance   = distanceStrategy{}
	area       = areaStrategy{requireArea: true}
	banding    = areaStrategy{requireArea: false}
	incidental = incidentalStrategy{}
	historical = historicalStrategy{}
)

type protocolDef struct {
	name     string
	strategy Strategy
}

var protocolDefs = []protocolDef{
	{"Stationary", point},
	{"Stationary (2 band, 25m)", point},
	{"Stationary (2 band, 30m)", point},
	{"Stationary (2 band, 100m)", point},
	{"Stationary (3 band, 30m+100m)", point},
	{"Nocturnal Flight Call Count", point},
	{"CWC Point Count", point},
	{"PROALAS", point},
	{"TNC California Waterbird Count", point},
	{"Traveling", distance},
	{"eBird Pelagic Protocol", distance},
	{"Random", distance},
	{"Rusty Blackbird Spring Migration Blitz", distance},
	{"California Brown Pelican Survey", distance},
	{"Area", area},
	{"CWC Area Count", area},
	{"Banding", banding},
	{"Incidental", incidental},
	{"Historical", historical},
}

// protocols is keyed by the normalized name so differences in case and
// spacing on the page do not matter.
var protocols = func() map[string]protocolDef {
	out := make(map[string]protocolDef, len(protocolDefs))
	for _, def := range protocolDefs {
		out[textutil.NormalizeName(def.name)] = def
	}
	return out
}()

const suggestionThreshold = 0.8

// ResolveProtocol returns the canonical name of a protocol and the strategy
// that extracts its effort.
func ResolveProtocol(name string) (string, Strategy, error) {
	normalized := textutil.NormalizeName(name)
	def, ok := protocols[normalized]
	if ok {
		return def.name, def.strategy, nil
	}

	suggestion, similarity := textutil.Closest(name, ProtocolNames())
	if similarity < suggestionThreshold {
		suggestion = ""
	}
	return "", nil, &UnknownProtocolError{Name: name, Suggestion: suggestion}
}

// ProtocolNames lists the supported protocols in table order.
func ProtocolNames() []string {
	names := make([]string, len(protocolDefs))
	for i, def := range protocolDefs {
		names[i] = def.name
	}
	return names
}
