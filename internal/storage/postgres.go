package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skalola/3kathletez/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- VitalsRepository ---

func (p *PostgresStorage) LoadVitals(ctx context.Context, userID string) (*internal.VitalsRecord, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, snapshot, last_decay FROM vitals WHERE user_id = $1`, userID)
	var rec internal.VitalsRecord
	var snapshot []byte
	if err := row.Scan(&rec.UserID, &snapshot, &rec.LastDecay); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to load vitals: %v", err)
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
		p.logger.Errorf("failed to decode vitals snapshot: %v", err)
		return nil, err
	}
	return &rec, nil
}

func (p *PostgresStorage) SaveVitals(ctx context.Context, rec *internal.VitalsRecord) error {
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO vitals (user_id, snapshot, last_decay) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET snapshot = $2, last_decay = $3`,
		rec.UserID, snapshot, rec.LastDecay)
	if err != nil {
		p.logger.Errorf("failed to save vitals: %v", err)
		return err
	}
	return nil
}

// --- AlarmRepository ---

func (p *PostgresStorage) ListAlarms(ctx context.Context, userID string) ([]internal.Alarm, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, wake_up_time, bedtimes, enabled, repeat_rule, sound_id, reminder_handles, created_at
		FROM alarms WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		p.logger.Errorf("failed to query alarms: %v", err)
		return nil, err
	}
	defer rows.Close()

	var alarms []internal.Alarm
	for rows.Next() {
		var a internal.Alarm
		if err := rows.Scan(&a.ID, &a.UserID, &a.WakeUpTime, &a.Bedtimes, &a.Enabled, &a.Repeat, &a.SoundID, &a.ReminderHandles, &a.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan alarm: %v", err)
			return nil, err
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// SaveAlarms replaces the user's alarm set wholesale inside one transaction,
// matching the engine's replace-not-mutate lifecycle.
func (p *PostgresStorage) SaveAlarms(ctx context.Context, userID string, alarms []internal.Alarm) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM alarms WHERE user_id = $1`, userID); err != nil {
		p.logger.Errorf("failed to clear alarms: %v", err)
		return err
	}
	for _, a := range alarms {
		_, err := tx.Exec(ctx, `INSERT INTO alarms (id, user_id, wake_up_time, bedtimes, enabled, repeat_rule, sound_id, reminder_handles, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.UserID, a.WakeUpTime, a.Bedtimes, a.Enabled, a.Repeat, a.SoundID, a.ReminderHandles, a.CreatedAt)
		if err != nil {
			p.logger.Errorf("failed to insert alarm: %v", err)
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- ProfileRepository ---

func (p *PostgresStorage) LoadProfile(ctx context.Context, userID string) (*internal.UserProfile, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, user_name, weight_lbs, target_sleep_hours, current_water_oz, last_water_evaluation
		FROM profiles WHERE user_id = $1`, userID)
	var pr internal.UserProfile
	if err := row.Scan(&pr.UserID, &pr.UserName, &pr.WeightInLbs, &pr.TargetSleepHours, &pr.CurrentWaterOunces, &pr.LastWaterEvaluation); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to load profile: %v", err)
		return nil, err
	}
	return &pr, nil
}

func (p *PostgresStorage) SaveProfile(ctx context.Context, profile *internal.UserProfile) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO profiles (user_id, user_name, weight_lbs, target_sleep_hours, current_water_oz, last_water_evaluation)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET user_name = $2, weight_lbs = $3, target_sleep_hours = $4, current_water_oz = $5, last_water_evaluation = $6`,
		profile.UserID, profile.UserName, profile.WeightInLbs, profile.TargetSleepHours, profile.CurrentWaterOunces, profile.LastWaterEvaluation)
	if err != nil {
		p.logger.Errorf("failed to save profile: %v", err)
		return err
	}
	return nil
}

// --- Compile-time assertions ---
var _ VitalsRepository = (*PostgresStorage)(nil)
var _ AlarmRepository = (*PostgresStorage)(nil)
var _ ProfileRepository = (*PostgresStorage)(nil)
