package db

import (
	"database/sql"
)

type Checklist struct {
	ID               string
	Date             string
	Protocol         string
	Time             sql.NullString
	DurationSeconds  sql.NullInt64
	DistanceValue    sql.NullFloat64
	DistanceUnit     sql.NullString
	AreaValue        sql.NullFloat64
	AreaUnit         sql.NullString
	PartySize        sql.NullInt64
	Observers        sql.NullString
	LocationName     string
	LocationID       sql.NullString
	Subnational2     string
	Subnational2Code sql.NullString
	Subnational1     string
	Subnational1Code sql.NullString
	Country          string
	CountryCode      string
	Lat              float64
	Lon              float64
	Comment          string
	Complete         int64
}

type Entry struct {
	ChecklistID string
	Position    int64
	Species     string
	Count       sql.NullInt64
}
