package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBType      string
	DBDSN       string
	VitalsFile  string
	AlarmsFile  string
	ProfileFile string

	AuthToken      string
	AuthServiceURL string

	// Engine tuning. Every gameplay magnitude is configuration, not a literal.
	DecayTick     time.Duration
	DecayPhysical float64
	DecayMental   float64
	ExerciseMode  string // "split" or "flat", see DESIGN.md
	FlagTTL       time.Duration

	EliteFitness   float64
	EliteEnergy    float64
	LowEnergy      float64
	Dehydrated     float64
	ThirstyPortion float64
}

func Load() (*Config, error) {
	_ = loadDotEnv()
	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8088"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBType:      getEnv("STORAGE_BACKEND", "file"),
		DBDSN:       getEnv("POSTGRES_DSN", ""),
		VitalsFile:  getEnv("VITALS_FILE", "data/vitals.json"),
		AlarmsFile:  getEnv("ALARMS_FILE", "data/alarms.json"),
		ProfileFile: getEnv("PROFILE_FILE", "data/profiles.json"),

		AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),

		DecayTick:     getEnvDuration("DECAY_TICK", time.Minute),
		DecayPhysical: getEnvFloat("DECAY_PHYSICAL", 0.01),
		DecayMental:   getEnvFloat("DECAY_MENTAL", 0.005),
		ExerciseMode:  getEnv("EXERCISE_MODE", "split"),
		FlagTTL:       getEnvDuration("ACTION_FLAG_TTL", 3*time.Second),

		EliteFitness:   getEnvFloat("MOOD_ELITE_FITNESS", 0.9),
		EliteEnergy:    getEnvFloat("MOOD_ELITE_ENERGY", 0.8),
		LowEnergy:      getEnvFloat("MOOD_LOW_ENERGY", 0.2),
		Dehydrated:     getEnvFloat("MOOD_DEHYDRATED", 0.2),
		ThirstyPortion: getEnvFloat("MOOD_THIRSTY_PORTION", 0.5),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.VitalsFile == "" || c.AlarmsFile == "" || c.ProfileFile == "") {
		return errors.New("file storage requires VITALS_FILE, ALARMS_FILE and PROFILE_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.ExerciseMode != "split" && c.ExerciseMode != "flat" {
		return errors.New("EXERCISE_MODE must be one of: split, flat")
	}
	if c.Env != "development" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	if c.DecayTick <= 0 {
		return errors.New("DECAY_TICK must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		f, err := os.Open(".env")
		if err != nil {
			return err
		}
		defer f.Close()
		var lines []string
		buf := make([]byte, 4096)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				lines = append(lines, string(buf[:n]))
			}
			if err != nil {
				break
			}
		}
		for _, line := range lines {
			for _, l := range splitLines(line) {
				if len(l) == 0 || l[0] == '#' {
					continue
				}
				kv := splitKV(l)
				if len(kv) == 2 {
					os.Setenv(kv[0], kv[1])
				}
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}
