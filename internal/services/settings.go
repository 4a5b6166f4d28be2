package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Shop setting keys. Only these keys can be stored.
const (
	SettingEmailSender         = "email.sender"
	SettingSMTPHost            = "email.smtp_host"
	SettingBackupDirectory     = "backup.directory"
	SettingBackupRetentionDays = "backup.retention_days"
	SettingShopLocale          = "shop.locale"
)

var (
	// ErrUnknownSetting is returned for keys outside the allowlist.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSetting is returned when a value fails its key's validation.
	ErrInvalidSetting = errors.New("invalid setting value")
)

// SettingDefinition describes one editable shop setting. Normalize validates
// a raw value and returns the form that is stored.
type SettingDefinition struct {
	Key         string
	Description string
	Default     string
	normalize   func(value string) (string, error)
}

var settingDefinitions = map[string]SettingDefinition{
	SettingEmailSender: {
		Description: "From address for shop notifications",
		normalize:   normalizeEmail,
	},
	SettingSMTPHost: {
		Description: "SMTP relay host, optionally host:port",
		normalize:   normalizeHost,
	},
	SettingBackupDirectory: {
		Description: "Directory backups are written to",
		Default:     ".",
		normalize:   requireNonEmpty,
	},
	SettingBackupRetentionDays: {
		Description: "Days to keep backup archives (1-365)",
		Default:     "30",
		normalize:   normalizeRetention,
	},
	SettingShopLocale: {
		Description: "BCP 47 language tag used for sorting and display",
		Default:     "en",
		normalize:   normalizeLocale,
	},
}

// SettingKeys returns the allowed setting keys in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingDefinitions))
	for k := range settingDefinitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LookupSetting returns the definition of key.
func LookupSetting(key string) (SettingDefinition, bool) {
	def, ok := settingDefinitions[key]
	def.Key = key
	return def, ok
}

// NormalizeSetting validates value for key and returns the value to store.
// Errors wrap ErrUnknownSetting or ErrInvalidSetting.
func NormalizeSetting(key, value string) (string, error) {
	def, ok := settingDefinitions[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	v, err := def.normalize(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
	}
	return v, nil
}

// Setting is the effective value of one shop setting. Default is true when
// nothing is stored and Value is the definition's default; UpdatedAt is zero
// in that case.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	Default     bool      `json:"default"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// BackupPolicy is the backup configuration held in shop settings.
type BackupPolicy struct {
	Directory string
	Retention time.Duration
}

// SettingsRepository stores shop settings. Every method rejects keys outside
// the allowlist with ErrUnknownSetting.
type SettingsRepository interface {
	// Get returns the effective value of key.
	Get(ctx context.Context, key string) (*Setting, error)

	// List returns every known setting, stored or defaulted, in key order.
	List(ctx context.Context) ([]Setting, error)

	// Set validates and stores value, returning the stored setting.
	Set(ctx context.Context, key, value string) (*Setting, error)

	// Reset drops a stored value so the default applies again.
	Reset(ctx context.Context, key string) error

	// Locale returns the shop locale.
	Locale(ctx context.Context) (language.Tag, error)

	// BackupPolicy returns the backup directory and retention.
	BackupPolicy(ctx context.Context) (BackupPolicy, error)
}

// Compile-time interface guard.
var _ SettingsRepository = (*SQLiteSettingsRepository)(nil)

// SQLiteSettingsRepository implements SettingsRepository on the
// shop_settings table.
type SQLiteSettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSettingsRepository creates a SettingsRepository and runs the
// shop_settings migrations.
func NewSQLiteSettingsRepository(ctx context.Context, store plugin.Store) (*SQLiteSettingsRepository, error) {
	if err := store.Migrate(ctx, "settings", settingsMigrations); err != nil {
		return nil, fmt.Errorf("settings migrations: %w", err)
	}
	return &SQLiteSettingsRepository{db: store.DB(), now: time.Now}, nil
}

// WithClock replaces the time source used for updated_at. Intended for tests.
func (r *SQLiteSettingsRepository) WithClock(now func() time.Time) *SQLiteSettingsRepository {
	r.now = now
	return r
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (*Setting, error) {
	def, ok := LookupSetting(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}

	s := Setting{Key: key, Description: def.Description}
	err := r.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM shop_settings WHERE key = ?`, key,
	).Scan(&s.Value, &s.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.Value, s.Default = def.Default, true
	case err != nil:
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &s, nil
}

func (r *SQLiteSettingsRepository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM shop_settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]Setting)
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		stored[s.Key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keys := SettingKeys()
	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		def := settingDefinitions[k]
		if s, ok := stored[k]; ok {
			s.Description = def.Description
			out = append(out, s)
			continue
		}
		out = append(out, Setting{Key: k, Value: def.Default, Description: def.Description, Default: true})
	}
	return out, nil
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) (*Setting, error) {
	v, err := NormalizeSetting(key, value)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shop_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, v, now,
	)
	if err != nil {
		return nil, fmt.Errorf("set setting %q: %w", key, err)
	}
	return &Setting{Key: key, Value: v, Description: settingDefinitions[key].Description, UpdatedAt: now}, nil
}

func (r *SQLiteSettingsRepository) Reset(ctx context.Context, key string) error {
	if _, ok := settingDefinitions[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shop_settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("reset setting %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingsRepository) Locale(ctx context.Context) (language.Tag, error) {
	s, err := r.Get(ctx, SettingShopLocale)
	if err != nil {
		return language.Und, err
	}
	return language.Parse(s.Value)
}

func (r *SQLiteSettingsRepository) BackupPolicy(ctx context.Context) (BackupPolicy, error) {
	dir, err := r.Get(ctx, SettingBackupDirectory)
	if err != nil {
		return BackupPolicy{}, err
	}
	days, err := r.Get(ctx, SettingBackupRetentionDays)
	if err != nil {
		return BackupPolicy{}, err
	}
	n, err := strconv.Atoi(days.Value)
	if err != nil {
		return BackupPolicy{}, fmt.Errorf("%w: %s: %q", ErrInvalidSetting, SettingBackupRetentionDays, days.Value)
	}
	return BackupPolicy{Directory: dir.Value, Retention: time.Duration(n) * 24 * time.Hour}, nil
}

func requireNonEmpty(v string) (string, error) {
	if v == "" {
		return "", errors.New("value must not be empty")
	}
	return v, nil
}

func normalizeEmail(v string) (string, error) {
	addr, err := mail.ParseAddress(v)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q", v)
	}
	return addr.String(), nil
}

func normalizeHost(v string) (string, error) {
	if v == "" {
		return "", errors.New("host must not be empty")
	}
	if strings.ContainsAny(v, " /\t") {
		return "", fmt.Errorf("invalid host %q", v)
	}
	return strings.ToLower(v), nil
}

func normalizeRetention(v string) (string, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", fmt.Errorf("retention must be a whole number of days, got %q", v)
	}
	if n < 1 || n > 365 {
		return "", fmt.Errorf("retention must be between 1 and 365 days, got %d", n)
	}
	return strconv.Itoa(n), nil
}

func normalizeLocale(v string) (string, error) {
	tag, err := language.Parse(v)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q", v)
	}
	return tag.String(), nil
}

var settingsMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create shop_settings table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE shop_settings (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`)
			return err
		},
	},
}
