package ebird

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationString(t *testing.T) {
	testCases := []struct {
		duration Duration
		expected string
	}{
		{NewDuration(4, 0), "4:00:00"},
		{NewDuration(1, 1), "1:01:00"},
		{NewDuration(0, 30), "0:30:00"},
		{NewDuration(26, 5), "26:05:00"},
		{Duration{90 * time.Second}, "0:01:30"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, test.duration.String())

		parsed, err := ParseDuration(test.expected)
		require.NoError(t, err)
		require.Equal(t, test.duration, parsed)
	}

	for _, invalid := range []string{"", "4:00", "4:60:00", "a:00:00", "-1:00:00"} {
		_, err := ParseDuration(invalid)
		require.Error(t, err, invalid)
	}
}

func TestTemporalJson(t *testing.T) {
	type record struct {
		Date     Date      `json:"date"`
		Time     *Clock    `json:"time"`
		Duration *Duration `json:"duration"`
	}

	clock := Clock{Hour: 15, Minute: 15}
	duration := NewDuration(1, 25)
	original := record{
		Date:     Date{2017, time.July, 28},
		Time:     &clock,
		Duration: &duration,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	require.JSONEq(t, `{"date": "2017-07-28", "time": "15:15:00", "duration": "1:25:00"}`, string(data))

	var decoded record
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original, decoded)

	require.Error(t, json.Unmarshal([]byte(`{"date": "28/07/2017"}`), &decoded))
	require.Error(t, json.Unmarshal([]byte(`{"time": "3:15 PM"}`), &decoded))
}

func TestDate(t *testing.T) {
	date, err := ParseDate("2017-08-10")
	require.NoError(t, err)
	require.Equal(t, Date{2017, time.August, 10}, date)
	require.Equal(t, "2017-08-10", date.String())
	require.False(t, date.IsZero())
	require.True(t, Date{}.IsZero())
}

func TestEffortFields(t *testing.T) {
	require.Empty(t, Effort{}.Fields())

	size := 0
	effort := Effort{
		Distance:  &Measurement{Value: 0, Unit: UnitKilometer},
		PartySize: &size,
	}
	require.Equal(t, []string{"distance", "party_size"}, effort.Fields())

	data, err := json.Marshal(effort)
	require.NoError(t, err)
	require.JSONEq(t, `{"distance": {"value": 0, "unit": "km"}, "party_size": 0}`, string(data))
}
