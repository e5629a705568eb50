package storage

import (
	"context"

	"github.com/skalola/3kathletez/internal"
)

// Load calls are best-effort: a missing entry comes back as (nil, nil) and
// the engine falls back to defaults.

type VitalsRepository interface {
	LoadVitals(ctx context.Context, userID string) (*internal.VitalsRecord, error)
	SaveVitals(ctx context.Context, rec *internal.VitalsRecord) error
}

type AlarmRepository interface {
	ListAlarms(ctx context.Context, userID string) ([]internal.Alarm, error)
	SaveAlarms(ctx context.Context, userID string, alarms []internal.Alarm) error
}

type ProfileRepository interface {
	LoadProfile(ctx context.Context, userID string) (*internal.UserProfile, error)
	SaveProfile(ctx context.Context, profile *internal.UserProfile) error
}
