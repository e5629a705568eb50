package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/skalola/3kathletez/internal"
)

// FileStorage keeps everything in memory and flushes JSON files through
// debounced save workers, one per file, so bursts of writes collapse into a
// single disk write.
type FileStorage struct {
	vitals   map[string]*internal.VitalsRecord // userID -> record
	alarms   map[string][]internal.Alarm       // userID -> alarms
	profiles map[string]*internal.UserProfile  // userID -> profile
	mu       sync.RWMutex

	vitalsFile  string
	alarmsFile  string
	profileFile string

	saveVitalsChan  chan struct{}
	saveAlarmsChan  chan struct{}
	saveProfileChan chan struct{}
	shutdownChan    chan struct{}
	saveDelay       time.Duration
	logger          internal.Logger
}

func NewFileStorage(vitalsFile, alarmsFile, profileFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		vitals:          make(map[string]*internal.VitalsRecord),
		alarms:          make(map[string][]internal.Alarm),
		profiles:        make(map[string]*internal.UserProfile),
		vitalsFile:      vitalsFile,
		alarmsFile:      alarmsFile,
		profileFile:     profileFile,
		saveVitalsChan:  make(chan struct{}, 1),
		saveAlarmsChan:  make(chan struct{}, 1),
		saveProfileChan: make(chan struct{}, 1),
		shutdownChan:    make(chan struct{}),
		saveDelay:       500 * time.Millisecond,
		logger:          logger,
	}

	if err := s.loadVitalsFile(); err != nil {
		logger.Errorf("storage: failed to load vitals: %v", err)
		return nil, err
	}
	if err := s.loadAlarmsFile(); err != nil {
		logger.Errorf("storage: failed to load alarms: %v", err)
		return nil, err
	}
	if err := s.loadProfileFile(); err != nil {
		logger.Errorf("storage: failed to load profiles: %v", err)
		return nil, err
	}

	go s.saveWorker("vitals", s.saveVitalsChan, s.saveVitalsFile)
	go s.saveWorker("alarms", s.saveAlarmsChan, s.saveAlarmsFile)
	go s.saveWorker("profiles", s.saveProfileChan, s.saveProfileFile)

	return s, nil
}

func decodeJSONFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadVitalsFile() error {
	var records []*internal.VitalsRecord
	if err := decodeJSONFile(s.vitalsFile, &records); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.vitals[r.UserID] = r
	}
	return nil
}

func (s *FileStorage) loadAlarmsFile() error {
	var alarms []internal.Alarm
	if err := decodeJSONFile(s.alarmsFile, &alarms); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range alarms {
		s.alarms[a.UserID] = append(s.alarms[a.UserID], a)
	}
	return nil
}

func (s *FileStorage) loadProfileFile() error {
	var profiles []*internal.UserProfile
	if err := decodeJSONFile(s.profileFile, &profiles); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveVitalsFile() error {
	s.mu.RLock()
	records := make([]*internal.VitalsRecord, 0, len(s.vitals))
	for _, r := range s.vitals {
		records = append(records, r)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.vitalsFile, records)
}

func (s *FileStorage) saveAlarmsFile() error {
	s.mu.RLock()
	alarms := make([]internal.Alarm, 0)
	for _, list := range s.alarms {
		alarms = append(alarms, list...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.alarmsFile, alarms)
}

func (s *FileStorage) saveProfileFile() error {
	s.mu.RLock()
	profiles := make([]*internal.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.profileFile, profiles)
}

// saveWorker batches save signals so frequent mutations do not hammer disk.
func (s *FileStorage) saveWorker(name string, signal chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", name, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func nudge(signal chan struct{}) {
	select {
	case signal <- struct{}{}:
	default:
	}
}

// Close stops the workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	if err := s.saveVitalsFile(); err != nil {
		return err
	}
	if err := s.saveAlarmsFile(); err != nil {
		return err
	}
	return s.saveProfileFile()
}

// --- VitalsRepository ---

func (s *FileStorage) LoadVitals(ctx context.Context, userID string) (*internal.VitalsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.vitals[userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *FileStorage) SaveVitals(ctx context.Context, rec *internal.VitalsRecord) error {
	s.mu.Lock()
	cp := *rec
	s.vitals[rec.UserID] = &cp
	s.mu.Unlock()
	nudge(s.saveVitalsChan)
	return nil
}

// --- AlarmRepository ---

func (s *FileStorage) ListAlarms(ctx context.Context, userID string) ([]internal.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.alarms[userID]
	out := make([]internal.Alarm, len(list))
	copy(out, list)
	return out, nil
}

func (s *FileStorage) SaveAlarms(ctx context.Context, userID string, alarms []internal.Alarm) error {
	s.mu.Lock()
	cp := make([]internal.Alarm, len(alarms))
	copy(cp, alarms)
	s.alarms[userID] = cp
	s.mu.Unlock()
	nudge(s.saveAlarmsChan)
	return nil
}

// --- ProfileRepository ---

func (s *FileStorage) LoadProfile(ctx context.Context, userID string) (*internal.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *FileStorage) SaveProfile(ctx context.Context, profile *internal.UserProfile) error {
	s.mu.Lock()
	cp := *profile
	s.profiles[profile.UserID] = &cp
	s.mu.Unlock()
	nudge(s.saveProfileChan)
	return nil
}

// --- Compile-time assertions ---
var _ VitalsRepository = (*FileStorage)(nil)
var _ AlarmRepository = (*FileStorage)(nil)
var _ ProfileRepository = (*FileStorage)(nil)
