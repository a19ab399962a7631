//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
	"github.com/couchcryptid/storm-port-monitor/internal/state"
)

func exerciseStore(ctx context.Context, t *testing.T, store *state.Store) {
	t.Helper()

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "fresh store has no snapshot")

	want := domain.BulletinSnapshot{
		BulletinTime: "11:00 AM, 22 October 2024",
		SystemName:   "Kristine",
		Position:     domain.Coordinate{Lat: 12.6, Lon: 123.9},
		Installations: map[string]domain.ThreatStatus{
			"MICT": {DistanceKM: 350.2, InProximity: true, IsThreatened: true},
		},
	}
	require.NoError(t, store.SaveSnapshot(ctx, want))
	got, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.BulletinTime, got.BulletinTime)
	assert.Equal(t, want.Installations, got.Installations)

	at := time.Date(2024, time.October, 22, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		entry := domain.ArchiveEntry{ArchivedAt: at.Add(time.Duration(i) * time.Hour), Snapshot: want}
		require.NoError(t, store.AppendArchive(ctx, entry, 2))
	}
	archive, err := store.LoadArchive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 2)
	assert.True(t, archive[0].ArchivedAt.Equal(at.Add(time.Hour)))

	require.NoError(t, store.SaveThreatFlag(ctx, true, at))
	flag, err := store.LoadThreatFlag(ctx)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, store.SaveStatusMark(ctx, at))
	mark, err := store.LoadStatusMark(ctx)
	require.NoError(t, err)
	require.NotNil(t, mark)
	assert.True(t, mark.Equal(at))
}

func TestRedisBackend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	addr := startRedis(ctx, t)
	store, err := state.Open(ctx, state.Options{
		Kind:            state.KindRedis,
		Redis:           state.RedisOptions{Addr: addr, KeyPrefix: "test:"},
		CompressArchive: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(ctx, t, store)
}

func TestPostgresBackend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	store, err := state.Open(ctx, state.Options{Kind: state.KindPostgres, PostgresDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(ctx, t, store)
}
