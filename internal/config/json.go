package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// distinguish "absent" from a zero value so absent keys keep their default.
type JsonConfig struct {
	AppName              *string `json:"app_name"`
	SchemaVersion        *string `json:"schema_version"`
	KDFIterations        *int    `json:"kdf_iterations"`
	CompressionLevel     *int    `json:"compression_level"`
	LogLevel             *string `json:"log_level"`
	MaxArchiveBytes      *int64  `json:"max_archive_bytes"`
	MaxDecompressedBytes *int64  `json:"max_decompressed_bytes"`
	MaxCompressionRatio  *int    `json:"max_compression_ratio"`
	ReferenceNameField   *string `json:"reference_name_field"`
}

// parseJSON overlays cfg with the keys present in the JSON file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&cfg.AppName, jc.AppName)
	set(&cfg.SchemaVersion, jc.SchemaVersion)
	set(&cfg.KDFIterations, jc.KDFIterations)
	set(&cfg.CompressionLevel, jc.CompressionLevel)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.MaxArchiveBytes, jc.MaxArchiveBytes)
	set(&cfg.MaxDecompressedBytes, jc.MaxDecompressedBytes)
	set(&cfg.MaxCompressionRatio, jc.MaxCompressionRatio)
	set(&cfg.ReferenceNameField, jc.ReferenceNameField)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
