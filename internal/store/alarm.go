package store

import (
	"database/sql"
	"fmt"
)

// AlarmConfig holds the alert sound settings for the audio escalation stage
type AlarmConfig struct {
	Sound         string `json:"sound"`
	VolumePercent int    `json:"volume_percent"`
}

// validAlarmSounds is the closed set of alarm sounds the player knows
var validAlarmSounds = map[string]bool{
	"beep":  true,
	"chime": true,
}

// GetAlarmConfig returns the alarm configuration, creating the default row
// (beep at 12%) on first read.
func (s *Store) GetAlarmConfig() (*AlarmConfig, error) {
	var cfg AlarmConfig
	err := s.db.QueryRow(`SELECT sound, volume_percent FROM alarm_config LIMIT 1`).
		Scan(&cfg.Sound, &cfg.VolumePercent)
	if err == sql.ErrNoRows {
		cfg = AlarmConfig{Sound: "beep", VolumePercent: 12}
		if _, err := s.db.Exec(`INSERT INTO alarm_config (sound, volume_percent) VALUES (?, ?)`,
			cfg.Sound, cfg.VolumePercent); err != nil {
			return nil, fmt.Errorf("failed to create alarm config: %w", err)
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alarm config: %w", err)
	}
	return &cfg, nil
}

// UpdateAlarmConfig applies partial updates to the alarm configuration.
// Unknown sounds are rejected; volume is clamped to [0, 100].
func (s *Store) UpdateAlarmConfig(sound *string, volume *int) (*AlarmConfig, error) {
	cfg, err := s.GetAlarmConfig()
	if err != nil {
		return nil, err
	}

	if sound != nil {
		if !validAlarmSounds[*sound] {
			return nil, fmt.Errorf("invalid alarm sound %q", *sound)
		}
		cfg.Sound = *sound
	}
	if volume != nil {
		v := *volume
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		cfg.VolumePercent = v
	}

	if _, err := s.db.Exec(`UPDATE alarm_config SET sound = ?, volume_percent = ?`,
		cfg.Sound, cfg.VolumePercent); err != nil {
		return nil, fmt.Errorf("failed to update alarm config: %w", err)
	}
	return cfg, nil
}
