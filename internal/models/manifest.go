package models

// Cipher and KDF identifiers written to encrypted manifests.
const (
	KDFPBKDF2SHA256 = "PBKDF2-SHA256"
	CipherAES256GCM = "AES-256-GCM"
)

// Manifest describes an export archive. The encryption fields are present
// only when Encrypted is true.
type Manifest struct {
	App           string     `json:"app"`
	SchemaVersion string     `json:"schemaVersion"`
	ExportedAt    string     `json:"exportedAt"`
	Counts        Counts     `json:"counts"`
	Encrypted     bool       `json:"encrypted"`
	KDF           string     `json:"kdf,omitempty"`
	KDFParams     *KDFParams `json:"kdfParams,omitempty"`
	Cipher        string     `json:"cipher,omitempty"`
	IVHex         string     `json:"ivHex,omitempty"`
}

// Counts holds the number of records and media files in an archive.
type Counts struct {
	Minerals int `json:"minerals"`
	Photos   int `json:"photos"`
}

// KDFParams are the key-derivation inputs needed to decrypt the payload.
type KDFParams struct {
	Iterations int    `json:"iterations"`
	SaltHex    string `json:"saltHex"`
}
