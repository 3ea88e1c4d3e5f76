package ebird

import (
	_ "embed"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/checklist_stationary.html
var stationaryPage string

//go:embed testdata/checklist_traveling.html
var travelingPage string

func TestParseStationaryChecklist(t *testing.T) {
	checklist, err := ParseChecklist(stationaryPage)
	require.NoError(t, err)

	duration := NewDuration(4, 0)
	expected := Checklist{
		Identifier: "S38429565",
		Date:       Date{2017, time.August, 10},
		Protocol: Protocol{
			Name: "Stationary",
			Effort: Effort{
				Time:      &Clock{Hour: 7},
				Duration:  &duration,
				PartySize: intPtr(1),
				Observers: []string{"John Smith"},
			},
		},
		Location: Location{
			Name:             "Parque da Paz",
			Identifier:       "L6129283",
			Subnational2:     "Loulé",
			Subnational2Code: "PT-08-08",
			Subnational1:     "Faro",
			Subnational1Code: "PT-08",
			Country:          "PT",
			CountryCode:      "PT",
			Lat:              37.1025,
			Lon:              -8.0348,
		},
		Entries: []Entry{
			{Species: "European Serin", Count: intPtr(3)},
			{Species: "Common Waxbill", Count: nil},
			{Species: "White Wagtail (White-faced)", Count: intPtr(12)},
		},
		Comment:  "Sunny, light wind.\nCounted from the lake shore.",
		Complete: true,
	}
	if diff := cmp.Diff(expected, checklist); diff != "" {
		t.Fatalf("checklist mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTravelingChecklist(t *testing.T) {
	checklist, err := ParseChecklist(travelingPage)
	require.NoError(t, err)

	require.Equal(t, "S62633426", checklist.Identifier)
	require.Equal(t, Date{2019, time.December, 14}, checklist.Date)
	require.Equal(t, "Traveling", checklist.Protocol.Name)
	require.Equal(t, []string{"time", "duration", "distance", "party_size", "observers"}, checklist.Protocol.Fields())
	require.Equal(t, Clock{Hour: 8, Minute: 15}, *checklist.Protocol.Time)
	require.Equal(t, NewDuration(1, 25), *checklist.Protocol.Duration)
	require.Equal(t, Measurement{Value: 2.3, Unit: UnitMile}, *checklist.Protocol.Distance)
	require.Equal(t, 3, *checklist.Protocol.PartySize)
	require.Equal(t, []string{"Jane Doe"}, checklist.Protocol.Observers)

	require.Equal(t, "Plum Island, Parking Lot 1", checklist.Location.Name)
	require.Equal(t, "Essex", checklist.Location.Subnational2)
	require.Equal(t, "Massachusetts", checklist.Location.Subnational1)
	require.Equal(t, "US", checklist.Location.CountryCode)
	require.Empty(t, checklist.Location.Identifier)

	require.Equal(t, "", checklist.Comment)
	require.False(t, checklist.Complete)
	require.Len(t, checklist.Entries, 1)
}

func TestChecklistJson(t *testing.T) {
	checklist, err := ParseChecklist(stationaryPage)
	require.NoError(t, err)

	data, err := json.Marshal(checklist)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	require.Len(t, keys, 7)
	for _, key := range []string{"identifier", "date", "protocol", "location", "entries", "comment", "complete"} {
		require.Contains(t, keys, key)
	}
	require.JSONEq(t, `"2017-08-10"`, string(keys["date"]))
	require.JSONEq(t, `{
		"name": "Stationary",
		"time": "07:00:00",
		"duration": "4:00:00",
		"party_size": 1,
		"observers": ["John Smith"]
	}`, string(keys["protocol"]))
	require.JSONEq(t, `[
		{"species": "European Serin", "count": 3},
		{"species": "Common Waxbill", "count": null},
		{"species": "White Wagtail (White-faced)", "count": 12}
	]`, string(keys["entries"]))

	var decoded Checklist
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(checklist, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChecklistStructureErrors(t *testing.T) {
	testCases := []struct {
		name    string
		page    string
		element string
	}{
		{
			name:    "no identifier",
			page:    strings.Replace(strings.Replace(stationaryPage, `name="subID"`, `name="other"`, 1), `rel="canonical"`, `rel="icon"`, 1),
			element: "checklist identifier",
		},
		{
			name:    "no date heading",
			page:    strings.Replace(stationaryPage, "rep-obs-date", "other", 1),
			element: "date heading",
		},
		{
			name:    "no protocol",
			page:    strings.Replace(stationaryPage, "Protocol:", "Method:", 1),
			element: "protocol label",
		},
		{
			name:    "no location",
			page:    strings.Replace(stationaryPage, "obs-loc", "other", 1),
			element: "location heading",
		},
		{
			name:    "no completeness answer",
			page:    strings.Replace(stationaryPage, "all-spp-ans", "other", 1),
			element: "all species reported answer",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseChecklist(test.page)
			var structErr *StructureError
			require.ErrorAs(t, err, &structErr)
			require.Equal(t, test.element, structErr.Element)
		})
	}
}

func TestChecklistIdentifierFallback(t *testing.T) {
	page := strings.Replace(stationaryPage, `name="subID"`, `name="other"`, 1)
	checklist, err := ParseChecklist(page)
	require.NoError(t, err)
	require.Equal(t, "S38429565", checklist.Identifier)
}

func TestChecklistProtocolErrors(t *testing.T) {
	_, err := ParseChecklist(strings.Replace(stationaryPage, "<dd>Stationary</dd>", "<dd>Stationery</dd>", 1))
	var unknown *UnknownProtocolError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Stationary", unknown.Suggestion)

	_, err = ParseChecklist(strings.Replace(stationaryPage, "Duration:", "Length:", 1))
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "duration", missing.Field)
}
