package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Setting value types.
const (
	SettingString  = "string"
	SettingInteger = "integer"
	SettingBoolean = "boolean"
	SettingJSON    = "json"
)

// Automation setting keys. Values are read at the start of each job run and
// never cached beyond it.
const (
	KeyReminderEnabled        = "fee_reminder_enabled"
	KeyReminderDaysBefore     = "fee_reminder_days_before"
	KeyReminderOverdueDays    = "fee_reminder_overdue_days"
	KeyMaxRemindersPerStudent = "max_reminders_per_student"
	KeyAttendanceAlertEnabled = "attendance_alert_enabled"
	KeyAttendanceThreshold    = "attendance_alert_threshold"
	KeyAlertWindowDays        = "attendance_alert_window_days"
	KeyMaxBatchSize           = "max_batch_size"
	KeyBatchStrategy          = "batch_assignment_strategy"
	KeyAutoAssignSections     = "auto_assign_sections"
	KeyReorganizeAnnually     = "reorganize_annually"
	KeyLastReorganization     = "last_reorganization_date"
)

type AutomationConfig struct {
	AutomationConfigID int       `gorm:"primaryKey;autoIncrement" json:"automation_config_id"`
	ConfigKey          string    `gorm:"type:varchar(100);not null;unique" json:"config_key"`
	ConfigValue        string    `gorm:"type:varchar(500);not null" json:"config_value"`
	ConfigType         string    `gorm:"type:varchar(20);not null" json:"config_type"`
	Description        string    `gorm:"type:text" json:"description"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SettingValue is a typed setting decoded from its stored string form.
// Malformed values surface as errors so a misconfigured job run fails loudly
// instead of silently defaulting.
type SettingValue struct {
	Key  string
	Type string
	Raw  string
}

func (v SettingValue) Bool() (bool, error) {
	switch strings.ToLower(v.Raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("setting %s: %q is not a boolean", v.Key, v.Raw)
}

func (v SettingValue) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.Raw))
	if err != nil {
		return 0, fmt.Errorf("setting %s: %q is not an integer", v.Key, v.Raw)
	}
	return n, nil
}

// IntList parses a comma-separated integer list, e.g. "3,7,15".
func (v SettingValue) IntList() ([]int, error) {
	parts := strings.Split(v.Raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("setting %s: %q is not an integer list", v.Key, v.Raw)
		}
		out = append(out, n)
	}
	return out, nil
}

func (v SettingValue) JSON(target any) error {
	if err := json.Unmarshal([]byte(v.Raw), target); err != nil {
		return fmt.Errorf("setting %s: invalid json: %v", v.Key, err)
	}
	return nil
}

// Settings is the snapshot of all automation settings loaded once at the
// start of a job run.
type Settings map[string]SettingValue

func (s Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	return v.Bool()
}

func (s Settings) Int(key string, def int) (int, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	return v.Int()
}

func (s Settings) IntList(key string, def []int) ([]int, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	return v.IntList()
}

func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok {
		return def
	}
	return v.Raw
}

type SettingsRepo interface {
	Load(ctx context.Context) (Settings, error)
	Set(ctx context.Context, key, value, configType string) error
}
