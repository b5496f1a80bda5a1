package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bikeiot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Bootstrap(ctx))
	return db
}

func activeProfile(t *testing.T, db *DB) int64 {
	t.Helper()
	cfg, err := db.ActiveConfig(context.Background())
	require.NoError(t, err)
	return cfg.ProfileID()
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestBootstrapCreatesDefaults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	needed, err := db.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, needed)

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())
	assert.NotNil(t, cfg.Location())

	// A second bootstrap must not add a profile.
	require.NoError(t, db.Bootstrap(ctx))
	profiles, err := db.Profiles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestProfiles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.Profiles()

	p := &Profile{Name: "bench", Timezone: "Europe/Moscow"}
	require.NoError(t, store.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := store.GetByName(ctx, "bench")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.False(t, got.IsActive)

	require.NoError(t, store.SetActive(ctx, p.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bench", active.Name)

	assert.ErrorIs(t, store.SetActive(ctx, 999), ErrProfileNotFound)
	assert.ErrorIs(t, store.Delete(ctx, 999), ErrProfileNotFound)
	_, err = store.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAPIServers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profileID := activeProfile(t, db)

	a, err := db.APIServers().Get(ctx, profileID)
	require.NoError(t, err)
	a.Host = "127.0.0.1"
	a.Port = 9090
	require.NoError(t, db.APIServers().Update(ctx, a))

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.APIAddress())

	a.Port = 0
	assert.Error(t, db.APIServers().Update(ctx, a))
}

func TestDevices(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profileID := activeProfile(t, db)
	store := db.Devices()

	d := &Device{
		ID:           "are5bqbflp8k9bn6e2la",
		ProfileID:    profileID,
		Model:        "lock-v2",
		ParamsSchema: json.RawMessage(`{"type":"object"}`),
	}
	require.NoError(t, store.Create(ctx, d))
	assert.Equal(t, d.ID, d.Name, "name defaults to id")
	assert.ErrorIs(t, store.Create(ctx, d), ErrDeviceExists)

	require.NoError(t, store.Ensure(ctx, profileID, d.ID))
	require.NoError(t, store.Ensure(ctx, profileID, "bike-2"))

	devices, err := store.List(ctx, profileID)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	d.Name = "Bike 1"
	require.NoError(t, store.Update(ctx, d))

	seen := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, d.ID, seen))
	require.NoError(t, store.MergeParams(ctx, d.ID, map[string]string{"vehicle_lock": "locked", "mode": "eco"}))
	require.NoError(t, store.MergeParams(ctx, d.ID, map[string]string{"vehicle_lock": "unlocked"}))

	got, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bike 1", got.Name)
	assert.Equal(t, "lock-v2", got.Model)
	assert.JSONEq(t, `{"type":"object"}`, string(got.ParamsSchema))
	assert.Equal(t, map[string]string{"vehicle_lock": "unlocked", "mode": "eco"}, got.Params)
	require.NotNil(t, got.LastSeen)
	assert.True(t, seen.Equal(*got.LastSeen))

	assert.ErrorIs(t, store.Touch(ctx, "missing", seen), ErrDeviceNotFound)
	assert.ErrorIs(t, store.MergeParams(ctx, "missing", map[string]string{"a": "b"}), ErrDeviceNotFound)

	require.NoError(t, store.Delete(ctx, d.ID))
	_, err = store.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.ErrorIs(t, store.Delete(ctx, d.ID), ErrDeviceNotFound)
}

func TestCommandJournal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profileID := activeProfile(t, db)
	require.NoError(t, db.Devices().Ensure(ctx, profileID, "bike-1"))
	store := db.Commands()

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	until := sent.Add(5 * time.Minute)
	c := &Command{
		ChainID:    "856ccfc0-8c02-4f6b-a6f6-376b4871f246",
		DeviceID:   "bike-1",
		Kind:       "setParams",
		Packet:     `{"version":65536}`,
		SentAt:     sent,
		ValidUntil: &until,
	}
	require.NoError(t, store.Create(ctx, c))
	assert.Error(t, store.Create(ctx, c), "chain ids are unique")

	got, err := store.Get(ctx, c.ChainID)
	require.NoError(t, err)
	assert.Equal(t, CommandPending, got.Status)
	assert.True(t, until.Equal(*got.ValidUntil))
	assert.Nil(t, got.CompletedAt)

	done := sent.Add(3 * time.Second)
	require.NoError(t, store.Complete(ctx, c.ChainID, CommandOutcome{
		Status:          CommandFailed,
		Result:          "RESULT_FAILED",
		ErrorStatus:     "STATUS_BUSY",
		ErrorMessage:    "motor busy",
		DeliveryTimeS:   1,
		ExecutionTimeMs: 250,
		CompletedAt:     done,
	}))
	assert.ErrorIs(t, store.Complete(ctx, c.ChainID, CommandOutcome{Status: CommandSucceeded}), ErrCommandSettled)
	assert.ErrorIs(t, store.Complete(ctx, "missing", CommandOutcome{Status: CommandSucceeded}), ErrCommandNotFound)
	assert.Error(t, store.Complete(ctx, c.ChainID, CommandOutcome{Status: CommandPending}))

	got, err = store.Get(ctx, c.ChainID)
	require.NoError(t, err)
	assert.Equal(t, CommandFailed, got.Status)
	assert.Equal(t, "STATUS_BUSY", got.ErrorStatus)
	assert.Equal(t, "motor busy", got.ErrorMessage)
	assert.Equal(t, int32(250), got.ExecutionTimeMs)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))

	list, err := store.ListByDevice(ctx, "bike-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExpirePending(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Devices().Ensure(ctx, activeProfile(t, db), "bike-1"))
	store := db.Commands()

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	short := sent.Add(time.Minute)
	long := sent.Add(time.Hour)
	require.NoError(t, store.Create(ctx, &Command{ChainID: "a", DeviceID: "bike-1", Kind: "ping", Packet: "{}", SentAt: sent, ValidUntil: &short}))
	require.NoError(t, store.Create(ctx, &Command{ChainID: "b", DeviceID: "bike-1", Kind: "ping", Packet: "{}", SentAt: sent, ValidUntil: &long}))

	n, err := store.ExpirePending(ctx, sent.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, CommandExpired, a.Status)

	b, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, CommandPending, b.Status)
}

func TestTelemetryHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Devices().Ensure(ctx, activeProfile(t, db), "bike-1"))
	store := db.Telemetry()

	_, err := store.Latest(ctx, "bike-1")
	assert.ErrorIs(t, err, ErrNoTelemetry)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// Out of order arrival: latest is decided by device timestamp.
	for i, offset := range []int{2, 0, 1} {
		r := &TelemetryRecord{
			DeviceID:  "bike-1",
			Timestamp: base.Add(time.Duration(offset) * time.Minute),
			Data:      json.RawMessage(`{"batteryLevel":` + string(rune('0'+i)) + `}`),
		}
		require.NoError(t, store.Append(ctx, r))
		assert.NotZero(t, r.ID)
	}

	latest, err := store.Latest(ctx, "bike-1")
	require.NoError(t, err)
	assert.True(t, base.Add(2*time.Minute).Equal(latest.Timestamp))
	assert.JSONEq(t, `{"batteryLevel":0}`, string(latest.Data))

	assert.Error(t, store.Append(ctx, &TelemetryRecord{DeviceID: "bike-1", Timestamp: base, Data: json.RawMessage(`{`)}))

	removed, err := store.Prune(ctx, "bike-1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	records, err := store.List(ctx, "bike-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, base.Add(2*time.Minute).Equal(records[0].Timestamp))
	assert.True(t, base.Add(time.Minute).Equal(records[1].Timestamp))
}

func TestDeletingDeviceCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Devices().Ensure(ctx, activeProfile(t, db), "bike-1"))

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Commands().Create(ctx, &Command{ChainID: "a", DeviceID: "bike-1", Kind: "ping", Packet: "{}", SentAt: now}))
	require.NoError(t, db.Telemetry().Append(ctx, &TelemetryRecord{DeviceID: "bike-1", Timestamp: now, Data: json.RawMessage(`{}`)}))

	require.NoError(t, db.Devices().Delete(ctx, "bike-1"))

	_, err := db.Commands().Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCommandNotFound)
	_, err = db.Telemetry().Latest(ctx, "bike-1")
	assert.ErrorIs(t, err, ErrNoTelemetry)
}
