package common

// Archive member names.
const (
	ManifestMember  = "manifest.json"
	ChecksumsMember = "checksums.sha256"
	PayloadMember   = "minerals.json"
	MediaPrefix     = "media/"
)

// DefaultStatus is assigned to records whose status column is blank.
const DefaultStatus = "incomplete"

// QRScheme prefixes the deterministic storage reference of a record.
const QRScheme = "mineralapp://mineral/"

// TimestampLayout renders generated timestamps. Values are always UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
