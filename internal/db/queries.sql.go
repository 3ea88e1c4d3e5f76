package db

import (
	"context"
	"database/sql"
)

const upsertChecklist = `-- name: UpsertChecklist :exec
insert into checklists (
    id, date, protocol, time, duration_seconds,
    distance_value, distance_unit, area_value, area_unit,
    party_size, observers,
    location_name, location_id,
    subnational2, subnational2_code, subnational1, subnational1_code,
    country, country_code, lat, lon,
    comment, complete
) values (
    ?, ?, ?, ?, ?,
    ?, ?, ?, ?,
    ?, ?,
    ?, ?,
    ?, ?, ?, ?,
    ?, ?, ?, ?,
    ?, ?
)
on conflict (id) do update set
    date = excluded.date,
    protocol = excluded.protocol,
    time = excluded.time,
    duration_seconds = excluded.duration_seconds,
    distance_value = excluded.distance_value,
    distance_unit = excluded.distance_unit,
    area_value = excluded.area_value,
    area_unit = excluded.area_unit,
    party_size = excluded.party_size,
    observers = excluded.observers,
    location_name = excluded.location_name,
    location_id = excluded.location_id,
    subnational2 = excluded.subnational2,
    subnational2_code = excluded.subnational2_code,
    subnational1 = excluded.subnational1,
    subnational1_code = excluded.subnational1_code,
    country = excluded.country,
    country_code = excluded.country_code,
    lat = excluded.lat,
    lon = excluded.lon,
    comment = excluded.comment,
    complete = excluded.complete
`

type UpsertChecklistParams struct {
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

func (q *Queries) UpsertChecklist(ctx context.Context, arg UpsertChecklistParams) error {
	_, err := q.db.ExecContext(ctx, upsertChecklist,
		arg.ID,
		arg.Date,
		arg.Protocol,
		arg.Time,
		arg.DurationSeconds,
		arg.DistanceValue,
		arg.DistanceUnit,
		arg.AreaValue,
		arg.AreaUnit,
		arg.PartySize,
		arg.Observers,
		arg.LocationName,
		arg.LocationID,
		arg.Subnational2,
		arg.Subnational2Code,
		arg.Subnational1,
		arg.Subnational1Code,
		arg.Country,
		arg.CountryCode,
		arg.Lat,
		arg.Lon,
		arg.Comment,
		arg.Complete,
	)
	return err
}

const deleteEntries = `-- name: DeleteEntries :exec
delete from entries where checklist_id = ?
`

func (q *Queries) DeleteEntries(ctx context.Context, checklistID string) error {
	_, err := q.db.ExecContext(ctx, deleteEntries, checklistID)
	return err
}

const createEntry = `-- name: CreateEntry :exec
insert into entries (checklist_id, position, species, count)
values (?, ?, ?, ?)
`

type CreateEntryParams struct {
	ChecklistID string
	Position    int64
	Species     string
	Count       sql.NullInt64
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.ExecContext(ctx, createEntry,
		arg.ChecklistID,
		arg.Position,
		arg.Species,
		arg.Count,
	)
	return err
}

const getChecklist = `-- name: GetChecklist :one
select id, date, protocol, time, duration_seconds, distance_value, distance_unit, area_value, area_unit, party_size, observers, location_name, location_id, subnational2, subnational2_code, subnational1, subnational1_code, country, country_code, lat, lon, comment, complete from checklists where id = ?
`

func (q *Queries) GetChecklist(ctx context.Context, id string) (Checklist, error) {
	row := q.db.QueryRowContext(ctx, getChecklist, id)
	var i Checklist
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Protocol,
		&i.Time,
		&i.DurationSeconds,
		&i.DistanceValue,
		&i.DistanceUnit,
		&i.AreaValue,
		&i.AreaUnit,
		&i.PartySize,
		&i.Observers,
		&i.LocationName,
		&i.LocationID,
		&i.Subnational2,
		&i.Subnational2Code,
		&i.Subnational1,
		&i.Subnational1Code,
		&i.Country,
		&i.CountryCode,
		&i.Lat,
		&i.Lon,
		&i.Comment,
		&i.Complete,
	)
	return i, err
}

const getEntries = `-- name: GetEntries :many
select checklist_id, position, species, count from entries where checklist_id = ? order by position
`

func (q *Queries) GetEntries(ctx context.Context, checklistID string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, getEntries, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ChecklistID,
			&i.Position,
			&i.Species,
			&i.Count,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listChecklistIds = `-- name: ListChecklistIds :many
select id from checklists order by date desc, id
`

func (q *Queries) ListChecklistIds(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listChecklistIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
