package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ebird-pages/internal/components/assert"
	"ebird-pages/internal/components/telemetry"
	"ebird-pages/internal/db"
	"ebird-pages/internal/scrapers/ebird"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	report_store_save = "store.save"
	report_store_get  = "store.get"
)

var ErrNotFound = errors.New("checklist not found")

func isRemote(dsn string) bool {
	for _, prefix := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// Open connects to a remote libsql server when dsn is a url and to a local
// sqlite file otherwise, creating the tables if needed.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a database was not specified")
	}

	var database *sql.DB
	var err error
	if isRemote(dsn) {
		database, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	} else {
		database, err = openSqlite(dsn)
		if err != nil {
			return nil, err
		}
	}

	err = db.Migrate(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return database, nil
}

func openSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		_, statErr := os.Stat(path)
		if os.IsNotExist(statErr) {
			f, err := os.Create(path)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only allows one writer at a time
	database.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}

type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API
}

func NewStore(database *sql.DB, tel telemetry.API) Store {
	assert.NotNil(tel, "store telemetry")
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewScopedAPI("checklist_store", tel),
	}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func checklistParams(checklist ebird.Checklist) (db.UpsertChecklistParams, error) {
	effort := checklist.Protocol.Effort
	location := checklist.Location

	params := db.UpsertChecklistParams{
		ID:               checklist.Identifier,
		Date:             checklist.Date.String(),
		Protocol:         checklist.Protocol.Name,
		LocationName:     location.Name,
		LocationID:       nullString(location.Identifier),
		Subnational2:     location.Subnational2,
		Subnational2Code: nullString(location.Subnational2Code),
		Subnational1:     location.Subnational1,
		Subnational1Code: nullString(location.Subnational1Code),
		Country:          location.Country,
		CountryCode:      location.CountryCode,
		Lat:              location.Lat,
		Lon:              location.Lon,
		Comment:          checklist.Comment,
	}
	if checklist.Complete {
		params.Complete = 1
	}

	if effort.Time != nil {
		params.Time = nullString(effort.Time.String())
	}
	if effort.Duration != nil {
		params.DurationSeconds = sql.NullInt64{Int64: int64(effort.Duration.Duration / time.Second), Valid: true}
	}
	if effort.Distance != nil {
		params.DistanceValue = sql.NullFloat64{Float64: effort.Distance.Value, Valid: true}
		params.DistanceUnit = nullString(string(effort.Distance.Unit))
	}
	if effort.Area != nil {
		params.AreaValue = sql.NullFloat64{Float64: effort.Area.Value, Valid: true}
		params.AreaUnit = nullString(string(effort.Area.Unit))
	}
	if effort.PartySize != nil {
		params.PartySize = sql.NullInt64{Int64: int64(*effort.PartySize), Valid: true}
	}
	if effort.Observers != nil {
		observers, err := json.Marshal(effort.Observers)
		if err != nil {
			return db.UpsertChecklistParams{}, err
		}
		params.Observers = sql.NullString{String: string(observers), Valid: true}
	}
	return params, nil
}

// Save writes the checklist and replaces its entries in one transaction,
// saving the same checklist twice leaves a single copy.
func (s Store) Save(ctx context.Context, checklist ebird.Checklist) error {
	err := s.save(ctx, checklist)
	if err != nil {
		s.tel.ReportBroken(report_store_save, err, checklist.Identifier)
		return fmt.Errorf("save checklist %s: %w", checklist.Identifier, err)
	}
	return nil
}

func (s Store) save(ctx context.Context, checklist ebird.Checklist) error {
	params, err := checklistParams(checklist)
	if err != nil {
		return err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	err = tx.UpsertChecklist(ctx, params)
	if err != nil {
		return err
	}
	err = tx.DeleteEntries(ctx, checklist.Identifier)
	if err != nil {
		return err
	}
	for i, entry := range checklist.Entries {
		count := sql.NullInt64{}
		if entry.Count != nil {
			count = sql.NullInt64{Int64: int64(*entry.Count), Valid: true}
		}
		err = tx.CreateEntry(ctx, db.CreateEntryParams{
			ChecklistID: checklist.Identifier,
			Position:    int64(i),
			Species:     entry.Species,
			Count:       count,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}

func measurement(value sql.NullFloat64, unit sql.NullString) *ebird.Measurement {
	if !value.Valid {
		return nil
	}
	return &ebird.Measurement{Value: value.Float64, Unit: ebird.Unit(unit.String)}
}

func intOrNil(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func checklistFromRows(row db.Checklist, entries []db.Entry) (ebird.Checklist, error) {
	date, err := ebird.ParseDate(row.Date)
	if err != nil {
		return ebird.Checklist{}, fmt.Errorf("date: %w", err)
	}

	effort := ebird.Effort{
		Distance:  measurement(row.DistanceValue, row.DistanceUnit),
		Area:      measurement(row.AreaValue, row.AreaUnit),
		PartySize: intOrNil(row.PartySize),
	}
	if row.Time.Valid {
		clock, err := ebird.ParseClock(row.Time.String)
		if err != nil {
			return ebird.Checklist{}, fmt.Errorf("time: %w", err)
		}
		effort.Time = &clock
	}
	if row.DurationSeconds.Valid {
		effort.Duration = &ebird.Duration{Duration: time.Duration(row.DurationSeconds.Int64) * time.Second}
	}
	if row.Observers.Valid {
		err = json.Unmarshal([]byte(row.Observers.String), &effort.Observers)
		if err != nil {
			return ebird.Checklist{}, fmt.Errorf("observers: %w", err)
		}
	}

	checklist := ebird.Checklist{
		Identifier: row.ID,
		Date:       date,
		Protocol: ebird.Protocol{
			Name:   row.Protocol,
			Effort: effort,
		},
		Location: ebird.Location{
			Name:             row.LocationName,
			Identifier:       row.LocationID.String,
			Subnational2:     row.Subnational2,
			Subnational2Code: row.Subnational2Code.String,
			Subnational1:     row.Subnational1,
			Subnational1Code: row.Subnational1Code.String,
			Country:          row.Country,
			CountryCode:      row.CountryCode,
			Lat:              row.Lat,
			Lon:              row.Lon,
		},
		Entries:  make([]ebird.Entry, len(entries)),
		Comment:  row.Comment,
		Complete: row.Complete != 0,
	}
	for i, entry := range entries {
		checklist.Entries[i] = ebird.Entry{
			Species: entry.Species,
			Count:   intOrNil(entry.Count),
		}
	}
	return checklist, nil
}

// Get reads back a saved checklist, ErrNotFound if it was never saved.
func (s Store) Get(ctx context.Context, identifier string) (ebird.Checklist, error) {
	row, err := s.qry.GetChecklist(ctx, identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return ebird.Checklist{}, ErrNotFound
	}
	if err != nil {
		s.tel.ReportBroken(report_store_get, err, identifier)
		return ebird.Checklist{}, err
	}

	entries, err := s.qry.GetEntries(ctx, identifier)
	if err != nil {
		s.tel.ReportBroken(report_store_get, err, identifier)
		return ebird.Checklist{}, err
	}

	checklist, err := checklistFromRows(row, entries)
	if err != nil {
		s.tel.ReportBroken(report_store_get, err, identifier)
		return ebird.Checklist{}, fmt.Errorf("checklist %s: %w", identifier, err)
	}
	return checklist, nil
}

// List returns the identifiers of every saved checklist, newest first.
func (s Store) List(ctx context.Context) ([]string, error) {
	return s.qry.ListChecklistIds(ctx)
}
