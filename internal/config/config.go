// Package config loads and validates the run configuration for bookfill.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
)

// Provider identifiers accepted in the providers list. The order of the list
// is the merge priority order.
const (
	ProviderGoogleBooks = "google_books"
	ProviderOpenLibrary = "open_library"
)

// Config is the full run configuration. Delay-style values are expressed in
// seconds to keep the file surface friendly to hand editing.
type Config struct {
	RetryAttempts  int     `yaml:"retry_attempts"`
	BackoffFactor  float64 `yaml:"backoff_factor"`
	RateLimitDelay float64 `yaml:"rate_limit_delay"`
	MaxWorkers     int     `yaml:"max_workers"`
	BatchSize      int     `yaml:"batch_size"`
	BatchPause     float64 `yaml:"batch_pause"`
	MatchThreshold float64 `yaml:"match_threshold"`

	Providers []string `yaml:"providers"`

	// Store selects the row store backend: "sheets" for a Google Sheet,
	// "xlsx" for a local workbook at StorePath.
	Store           string `yaml:"store"`
	StorePath       string `yaml:"store_path"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsFile string `yaml:"credentials_file"`

	BackupEnabled bool   `yaml:"backup_enabled"`
	BackupDir     string `yaml:"backup_dir"`

	LogLevel string `yaml:"log_level"`
	DryRun   bool   `yaml:"dry_run"`

	// FieldMapping maps sheet column headers to internal field names.
	// Unmapped columns are ignored.
	FieldMapping map[string]string `yaml:"field_mapping"`
}

// Default returns the configuration used when no file overrides anything.
// Values mirror the defaults the tool has always shipped with.
func Default() Config {
	return Config{
		RetryAttempts:   5,
		BackoffFactor:   1.0,
		RateLimitDelay:  1.0,
		MaxWorkers:      3,
		BatchSize:       10,
		BatchPause:      0,
		MatchThreshold:  0.75,
		Providers:       []string{ProviderGoogleBooks, ProviderOpenLibrary},
		Store:           "sheets",
		SheetName:       "Books",
		CredentialsFile: "credentials.json",
		BackupEnabled:   true,
		BackupDir:       "backups",
		LogLevel:        "info",
		FieldMapping: map[string]string{
			"Title":            metadata.FieldTitle,
			"Author":           metadata.FieldAuthors,
			"Genre":            metadata.FieldCategories,
			"Publisher":        metadata.FieldPublisher,
			"Publication Year": metadata.FieldPublishedDate,
			"ISBN":             metadata.FieldISBN,
			"Pages":            metadata.FieldPageCount,
			"Language":         metadata.FieldLanguage,
			"Description":      metadata.FieldDescription,
		},
	}
}

// Load reads the YAML configuration at path, applying it on top of the
// defaults. A missing file is not an error: the defaults are written to path
// so the operator has something to edit next time.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path, cfg); writeErr != nil {
			slog.Warn("Could not write default config file", "path", path, "err", writeErr)
		} else {
			slog.Info("Created default config file", "path", path)
		}
		return cfg, cfg.Validate()
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

func writeDefault(path string, cfg Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// Validate checks the configuration before any item is processed. Every
// problem it reports is fatal at startup.
func (c Config) Validate() error {
	if c.RetryAttempts < 1 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "retry_attempts must be at least 1"}
	}
	if c.BackoffFactor <= 0 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "backoff_factor must be positive"}
	}
	if c.RateLimitDelay < 0 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "rate_limit_delay must not be negative"}
	}
	if c.MaxWorkers < 1 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "max_workers must be at least 1"}
	}
	if c.BatchSize < 1 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "batch_size must be at least 1"}
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "match_threshold must be within [0, 1]"}
	}
	if len(c.Providers) == 0 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "providers list must not be empty"}
	}
	for _, p := range c.Providers {
		if p != ProviderGoogleBooks && p != ProviderOpenLibrary {
			return &Error{Kind: ErrInvalidMapping, Detail: fmt.Sprintf("unknown provider %q", p)}
		}
	}
	switch c.Store {
	case "sheets", "xlsx":
	default:
		return &Error{Kind: ErrInvalidMapping, Detail: fmt.Sprintf("unknown store %q (want sheets or xlsx)", c.Store)}
	}
	if c.Store == "xlsx" && c.StorePath == "" {
		return &Error{Kind: ErrMissingRequiredField, Detail: "store_path is required for the xlsx store"}
	}
	if c.SheetName == "" {
		return &Error{Kind: ErrMissingRequiredField, Detail: "sheet_name must not be empty"}
	}
	if len(c.FieldMapping) == 0 {
		return &Error{Kind: ErrMissingRequiredField, Detail: "field_mapping must not be empty"}
	}
	for column, field := range c.FieldMapping {
		if column == "" {
			return &Error{Kind: ErrInvalidMapping, Detail: "field_mapping contains an empty column name"}
		}
		if !metadata.IsKnownField(field) {
			return &Error{Kind: ErrInvalidMapping, Detail: fmt.Sprintf("column %q maps to unknown field %q", column, field)}
		}
	}
	if c.TitleColumn() == "" {
		return &Error{Kind: ErrMissingRequiredField, Detail: "field_mapping must map a column to the title field"}
	}
	return nil
}

// Backoff returns the exponential backoff base delay.
func (c Config) Backoff() time.Duration {
	return time.Duration(c.BackoffFactor * float64(time.Second))
}

// RateDelay returns the minimum spacing between calls to the same provider.
func (c Config) RateDelay() time.Duration {
	return time.Duration(c.RateLimitDelay * float64(time.Second))
}

// Pause returns the courtesy delay inserted between batches.
func (c Config) Pause() time.Duration {
	return time.Duration(c.BatchPause * float64(time.Second))
}

// TitleColumn returns the sheet column mapped to the title field, or "" when
// the mapping does not cover it. If several columns map to title, the
// lexicographically first wins so the choice is deterministic.
func (c Config) TitleColumn() string {
	chosen := ""
	for column, field := range c.FieldMapping {
		if field != metadata.FieldTitle {
			continue
		}
		if chosen == "" || column < chosen {
			chosen = column
		}
	}
	return chosen
}
