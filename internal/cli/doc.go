// Package cli implements the mineralog command tree.
//
// Commands:
//   - export: build a MineraLog archive from a CSV catalog
//   - verify: check an archive's limits, schema, checksums and payload
//   - dedupe: merge duplicate entries of a reference database
//   - enrich: upsert seed minerals into a reference database
//
// Global flags select a JSON config file, the log level and colour output.
// Passwords are never logged; when encryption is requested without
// --password the user is prompted on the terminal without echo.
package cli
