package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/skalola/3kathletez/internal"
	"github.com/skalola/3kathletez/internal/vitals"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T, dir string) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(
		filepath.Join(dir, "vitals.json"),
		filepath.Join(dir, "alarms.json"),
		filepath.Join(dir, "profiles.json"),
		internal.NewZapLogger(zap.NewNop().Sugar()),
	)
	assert.NoError(t, err)
	return s
}

func TestFileStorageStartsEmpty(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	rec, err := s.LoadVitals(ctx, "u1")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	p, err := s.LoadProfile(ctx, "u1")
	assert.NoError(t, err)
	assert.Nil(t, p)

	alarms, err := s.ListAlarms(ctx, "u1")
	assert.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestFileStorageSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)

	s := newTestStorage(t, dir)
	assert.NoError(t, s.SaveVitals(ctx, &internal.VitalsRecord{
		UserID:    "u1",
		Snapshot:  vitals.Snapshot{Energy: 0.4, Hydration: 0.6, Mindfulness: 0.5, Fitness: 0.3},
		LastDecay: now,
	}))
	assert.NoError(t, s.SaveProfile(ctx, &internal.UserProfile{
		UserID: "u1", UserName: "Demo", WeightInLbs: 180, TargetSleepHours: 8,
	}))
	assert.NoError(t, s.SaveAlarms(ctx, "u1", []internal.Alarm{{
		ID: "a1", UserID: "u1", WakeUpTime: now, Enabled: true, Repeat: internal.RepeatDaily,
		Bedtimes:        []time.Time{now.Add(-9 * time.Hour)},
		ReminderHandles: []string{"h1", "h2"},
	}}))
	assert.NoError(t, s.Close())

	s2 := newTestStorage(t, dir)
	defer s2.Close()

	rec, err := s2.LoadVitals(ctx, "u1")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 0.4, rec.Snapshot.Energy)
	assert.True(t, rec.LastDecay.Equal(now))

	p, err := s2.LoadProfile(ctx, "u1")
	assert.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, 180.0, p.WeightInLbs)

	alarms, err := s2.ListAlarms(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, alarms, 1)
	assert.Equal(t, []string{"h1", "h2"}, alarms[0].ReminderHandles)
}

func TestFileStorageReturnsCopies(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	rec := &internal.VitalsRecord{UserID: "u1", Snapshot: vitals.DefaultSnapshot()}
	assert.NoError(t, s.SaveVitals(ctx, rec))

	loaded, err := s.LoadVitals(ctx, "u1")
	assert.NoError(t, err)
	loaded.Snapshot.Energy = 0.0

	again, err := s.LoadVitals(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 0.7, again.Snapshot.Energy)
}

func TestFileStorageSaveAlarmsReplacesWholesale(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	defer s.Close()
	ctx := context.Background()

	assert.NoError(t, s.SaveAlarms(ctx, "u1", []internal.Alarm{{ID: "a1", UserID: "u1"}, {ID: "a2", UserID: "u1"}}))
	assert.NoError(t, s.SaveAlarms(ctx, "u1", []internal.Alarm{{ID: "a2", UserID: "u1"}}))

	alarms, err := s.ListAlarms(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, alarms, 1)
	assert.Equal(t, "a2", alarms[0].ID)
}
