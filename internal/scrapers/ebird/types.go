package ebird

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Checklist struct {
	Identifier string   `json:"identifier"`
	Date       Date     `json:"date"`
	Protocol   Protocol `json:"protocol"`
	Location   Location `json:"location"`
	Entries    []Entry  `json:"entries"`
	Comment    string   `json:"comment"`
	Complete   bool     `json:"complete"`
}

type Protocol struct {
	Name string `json:"name"`
	Effort
}

// Effort describes how the observations were made, which fields are set
// depends on the protocol, unset fields are nil and left out of the json.
type Effort struct {
	Time      *Clock       `json:"time,omitempty"`
	Duration  *Duration    `json:"duration,omitempty"`
	Distance  *Measurement `json:"distance,omitempty"`
	Area      *Measurement `json:"area,omitempty"`
	PartySize *int         `json:"party_size,omitempty"`
	Observers []string     `json:"observers,omitempty"`
}

// Fields returns the json names of the fields that are set.
func (e Effort) Fields() []string {
	var fields []string
	if e.Time != nil {
		fields = append(fields, "time")
	}
	if e.Duration != nil {
		fields = append(fields, "duration")
	}
	if e.Distance != nil {
		fields = append(fields, "distance")
	}
	if e.Area != nil {
		fields = append(fields, "area")
	}
	if e.PartySize != nil {
		fields = append(fields, "party_size")
	}
	if e.Observers != nil {
		fields = append(fields, "observers")
	}
	return fields
}

type Location struct {
	Name string `json:"name"`
	// hotspot identifier, empty for personal locations
	Identifier       string  `json:"identifier,omitempty"`
	Subnational2     string  `json:"subnational2"`
	Subnational2Code string  `json:"subnational2_code,omitempty"`
	Subnational1     string  `json:"subnational1"`
	Subnational1Code string  `json:"subnational1_code,omitempty"`
	Country          string  `json:"country"`
	CountryCode      string  `json:"country_code"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
}

type Entry struct {
	Species string `json:"species"`
	// nil when the species was present but not counted
	Count *int `json:"count"`
}

type Unit string

const (
	UnitKilometer Unit = "km"
	UnitMile      Unit = "mi"
	UnitHectare   Unit = "ha"
	UnitAcre      Unit = "acre"
)

type Measurement struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ChecklistSummary is one row of a region's recent checklists.
type ChecklistSummary struct {
	Identifier   string    `json:"identifier"`
	Species      int       `json:"species"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location"`
	Subnational1 string    `json:"subnational1"`
	Subnational2 string    `json:"subnational2"`
	Observer     string    `json:"observer"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date without a time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func ParseDate(text string) (Date, error) {
	t, err := time.Parse(dateLayout, text)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	*d, err = ParseDate(text)
	return err
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func ParseClock(text string) (Clock, error) {
	t, err := time.Parse("15:04:05", text)
	if err != nil {
		return Clock{}, err
	}
	return ClockOf(t), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	*c, err = ParseClock(text)
	return err
}

// Duration is written as H:MM:SS, hours are not wrapped at 24.
type Duration struct {
	time.Duration
}

func NewDuration(hours, minutes int) Duration {
	return Duration{time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute}
}

func (d Duration) String() string {
	total := int64(d.Duration / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

func ParseDuration(text string) (Duration, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return Duration{}, fmt.Errorf("invalid duration %q: expected H:MM:SS", text)
	}
	var values [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return Duration{}, fmt.Errorf("invalid duration %q", text)
		}
		values[i] = v
	}
	if values[1] > 59 || values[2] > 59 {
		return Duration{}, fmt.Errorf("invalid duration %q", text)
	}
	return Duration{
		time.Duration(values[0])*time.Hour +
			time.Duration(values[1])*time.Minute +
			time.Duration(values[2])*time.Second,
	}, nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	*d, err = ParseDuration(text)
	return err
}
