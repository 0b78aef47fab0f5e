package config

import (
	"fmt"

	"github.com/dmitrijs2005/mineralog/internal/logging"
)

// Minimum PBKDF2 work factor accepted for new archives.
const MinKDFIterations = 10_000

// Config holds runtime settings shared by every command.
//
// Fields:
//   - AppName, SchemaVersion: identity written to archive manifests.
//   - KDFIterations: PBKDF2 iterations for new encrypted archives.
//   - CompressionLevel: deflate level, -2 (Huffman only) to 9; -1 is default.
//   - LogLevel: debug, info, warn or error.
//   - MaxArchiveBytes, MaxDecompressedBytes, MaxCompressionRatio: limits
//     applied when reading archives back.
//   - ReferenceNameField: merge key of reference database entries.
type Config struct {
	AppName              string
	SchemaVersion        string
	KDFIterations        int
	CompressionLevel     int
	LogLevel             string
	MaxArchiveBytes      int64
	MaxDecompressedBytes int64
	MaxCompressionRatio  int
	ReferenceNameField   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AppName = "MineraLog"
	c.SchemaVersion = "1.0.0"
	c.KDFIterations = 100_000
	c.CompressionLevel = -1
	c.LogLevel = "info"
	c.MaxArchiveBytes = 100 << 20
	c.MaxDecompressedBytes = 500 << 20
	c.MaxCompressionRatio = 100
	c.ReferenceNameField = "nameFr"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the JSON file at path when path is non-empty.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate rejects settings that would produce weak or unreadable archives.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app name must not be empty")
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("schema version must not be empty")
	}
	if c.KDFIterations < MinKDFIterations {
		return fmt.Errorf("kdf iterations must be at least %d, got %d", MinKDFIterations, c.KDFIterations)
	}
	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be between -2 and 9, got %d", c.CompressionLevel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxArchiveBytes <= 0 || c.MaxDecompressedBytes <= 0 || c.MaxCompressionRatio <= 0 {
		return fmt.Errorf("archive limits must be positive")
	}
	if c.ReferenceNameField == "" {
		return fmt.Errorf("reference name field must not be empty")
	}
	return nil
}
