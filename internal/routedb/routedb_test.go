package routedb

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "routes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRoute() *nav.Route {
	crumbs := testutil.TurnTrail(0, math.Pi/2, 3, 0.5)
	return &nav.Route{
		ID:         uuid.New(),
		Name:       "platform 2 to exit",
		RecordedAt: time.Unix(1700000000, 123456789),
		Crumbs:     crumbs,
		Begin: nav.RouteLandmark{
			Pose:            testutil.PoseAt(0, 0, 0, 0, 1),
			IsSoftAlignment: true,
			AnnotationRef:   "note-begin",
		},
		End: nav.RouteLandmark{
			Pose:            testutil.PoseAt(-math.Pi/2, 3, 3, 0, 2),
			IsSoftAlignment: false,
		},
	}
}

func TestSaveAndLoadRoute(t *testing.T) {
	db := openTestDB(t)
	want := sampleRoute()
	require.NoError(t, db.SaveRoute(want))

	got, err := db.LoadRoute(want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.RecordedAt.Equal(got.RecordedAt))
	if diff := cmp.Diff(want.Crumbs, got.Crumbs); diff != "" {
		t.Errorf("crumbs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Begin, got.Begin); diff != "" {
		t.Errorf("begin landmark mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.End, got.End); diff != "" {
		t.Errorf("end landmark mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRouteUnknownID(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadRoute(uuid.New())
	assert.Error(t, err)
}

func TestListRoutesNewestFirst(t *testing.T) {
	db := openTestDB(t)

	older := sampleRoute()
	older.Name = "older"
	older.RecordedAt = time.Unix(1700000000, 0)
	newer := sampleRoute()
	newer.ID = uuid.New()
	newer.Name = "newer"
	newer.RecordedAt = time.Unix(1700009999, 0)

	require.NoError(t, db.SaveRoute(older))
	require.NoError(t, db.SaveRoute(newer))

	infos, err := db.ListRoutes()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].Name)
	assert.Equal(t, "older", infos[1].Name)
	assert.Equal(t, len(older.Crumbs), infos[1].CrumbCount)
	assert.Equal(t, older.ID, infos[1].ID)
}

func TestListRoutesEmpty(t *testing.T) {
	db := openTestDB(t)
	infos, err := db.ListRoutes()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.db")
	db1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db1.SaveRoute(sampleRoute()))
	require.NoError(t, db1.Close())

	// Reopening an existing database must not disturb stored routes.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	infos, err := db2.ListRoutes()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}
