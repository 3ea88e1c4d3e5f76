package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"ebird-pages/internal/components/telemetry"
	"ebird-pages/internal/scrapers/ebird"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func intPtr(v int) *int {
	return &v
}

func testChecklists() []ebird.Checklist {
	stationaryTime := ebird.Clock{Hour: 7}
	stationaryDuration := ebird.NewDuration(4, 0)
	travelingTime := ebird.Clock{Hour: 8, Minute: 15}
	travelingDuration := ebird.NewDuration(1, 25)

	return []ebird.Checklist{
		{
			Identifier: "S38429565",
			Date:       ebird.Date{Year: 2017, Month: time.August, Day: 10},
			Protocol: ebird.Protocol{
				Name: "Stationary",
				Effort: ebird.Effort{
					Time:      &stationaryTime,
					Duration:  &stationaryDuration,
					PartySize: intPtr(1),
					Observers: []string{"John Smith"},
				},
			},
			Location: ebird.Location{
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
			Entries: []ebird.Entry{
				{Species: "European Serin", Count: intPtr(3)},
				{Species: "Common Waxbill", Count: nil},
			},
			Comment:  "Sunny, light wind.\nCounted from the lake shore.",
			Complete: true,
		},
		{
			Identifier: "S62633426",
			Date:       ebird.Date{Year: 2019, Month: time.December, Day: 14},
			Protocol: ebird.Protocol{
				Name: "Traveling",
				Effort: ebird.Effort{
					Time:      &travelingTime,
					Duration:  &travelingDuration,
					Distance:  &ebird.Measurement{Value: 0, Unit: ebird.UnitMile},
					PartySize: intPtr(3),
				},
			},
			Location: ebird.Location{
				Name:         "Plum Island, Parking Lot 1",
				Subnational2: "Essex",
				Subnational1: "Massachusetts",
				Country:      "US",
				CountryCode:  "US",
				Lat:          42.7585,
				Lon:          -70.8031,
			},
			Entries: []ebird.Entry{},
		},
		{
			Identifier: "S100",
			Date:       ebird.Date{Year: 1950, Month: time.May, Day: 1},
			Protocol: ebird.Protocol{
				Name: "Historical",
				Effort: ebird.Effort{
					Area: &ebird.Measurement{Value: 12.5, Unit: ebird.UnitAcre},
				},
			},
			Location: ebird.Location{
				Name:         "Old Farm",
				Subnational2: "Barnstable",
				Subnational1: "Massachusetts",
				Country:      "US",
				CountryCode:  "US",
			},
			Entries: []ebird.Entry{{Species: "Heath Hen", Count: intPtr(2)}},
		},
	}
}

func testStore(t testing.TB, ctx context.Context, store Store) {
	t.Helper()

	_, err := store.Get(ctx, "S38429565")
	require.ErrorIs(t, err, ErrNotFound)

	checklists := testChecklists()
	for _, checklist := range checklists {
		require.NoError(t, store.Save(ctx, checklist))
	}

	for _, expected := range checklists {
		got, err := store.Get(ctx, expected.Identifier)
		require.NoError(t, err)
		if diff := cmp.Diff(expected, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", expected.Identifier, diff)
		}
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"S62633426", "S38429565", "S100"}, ids)

	// saving again replaces the checklist instead of adding to it
	updated := checklists[0]
	updated.Entries = updated.Entries[:1]
	updated.Comment = ""
	require.NoError(t, store.Save(ctx, updated))

	got, err := store.Get(ctx, updated.Identifier)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.Equal(t, "", got.Comment)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestSqliteStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	database, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	rec := &telemetry.Recorder{}
	testStore(t, ctx, NewStore(database, rec))
	require.Empty(t, rec.Reports("broken"))
}

func TestSqliteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checklists.db")

	database, err := Open(ctx, path)
	require.NoError(t, err)
	store := NewStore(database, &telemetry.Recorder{})
	require.NoError(t, store.Save(ctx, testChecklists()[0]))
	require.NoError(t, database.Close())

	// tables are only created once
	database, err = Open(ctx, path)
	require.NoError(t, err)
	defer database.Close()

	got, err := NewStore(database, &telemetry.Recorder{}).Get(ctx, "S38429565")
	require.NoError(t, err)
	require.Equal(t, "Stationary", got.Protocol.Name)
}

func TestOpenWithoutDsn(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestLibsqlStore(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a libsql server container")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
	defer cancel()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "ghcr.io/tursodatabase/libsql-server:latest",
			ExposedPorts: []string{"8080/tcp"},
			WaitingFor:   wait.ForListeningPort("8080/tcp"),
		},
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, server.Terminate(context.Background()))
	}()

	host, err := server.Host(ctx)
	require.NoError(t, err)
	port, err := server.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	database, err := Open(ctx, fmt.Sprintf("http://%s:%s", host, port.Port()))
	require.NoError(t, err)
	defer database.Close()

	testStore(t, ctx, NewStore(database, &telemetry.Recorder{}))
}
