package storage

import "github.com/skalola/3kathletez/internal"

// Repositories bundles the three stores a single backend provides.
type Repositories struct {
	Vitals   VitalsRepository
	Alarms   AlarmRepository
	Profiles ProfileRepository
	closer   interface{ Close() error }
}

func (r Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func NewFileRepositories(vitalsFile, alarmsFile, profileFile string, logger internal.Logger) (Repositories, error) {
	s, err := NewFileStorage(vitalsFile, alarmsFile, profileFile, logger)
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{Vitals: s, Alarms: s, Profiles: s, closer: s}, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (Repositories, error) {
	s, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{Vitals: s, Alarms: s, Profiles: s, closer: s}, nil
}
