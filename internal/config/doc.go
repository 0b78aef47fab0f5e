// Package config loads runtime configuration for the mineralog tools.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config (see LoadConfig).
//  3. Command-line flags, applied by the cli package, which override earlier
//     values.
//
// # JSON schema
//
//	{
//	  "app_name": "MineraLog",
//	  "schema_version": "1.0.0",
//	  "kdf_iterations": 100000,
//	  "compression_level": -1,
//	  "log_level": "info",
//	  "max_archive_bytes": 104857600,
//	  "max_decompressed_bytes": 524288000,
//	  "max_compression_ratio": 100,
//	  "reference_name_field": "nameFr"
//	}
//
// Keys missing from the file keep their default. Environment variables are
// not consulted.
package config
