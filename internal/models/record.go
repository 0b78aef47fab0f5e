// Package models defines the catalog record and archive manifest types.
//
// Optional scalar fields are pointers: a nil pointer is the "unset" marker and
// serializes as JSON null, distinct from zero or the empty string.
package models

// Record is one catalog item.
type Record struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Group           *string     `json:"group"`
	Formula         *string     `json:"formula"`
	CrystalSystem   *string     `json:"crystalSystem"`
	MohsMin         *float64    `json:"mohsMin"`
	MohsMax         *float64    `json:"mohsMax"`
	Cleavage        *string     `json:"cleavage"`
	Fracture        *string     `json:"fracture"`
	Luster          *string     `json:"luster"`
	Streak          *string     `json:"streak"`
	Diaphaneity     *string     `json:"diaphaneity"`
	Habit           *string     `json:"habit"`
	SpecificGravity *float64    `json:"specificGravity"`
	Fluorescence    *string     `json:"fluorescence"`
	Magnetic        bool        `json:"magnetic"`
	Radioactive     bool        `json:"radioactive"`
	DimensionsMm    *string     `json:"dimensionsMm"`
	WeightGr        *float64    `json:"weightGr"`
	Notes           *string     `json:"notes"`
	Tags            []string    `json:"tags"`
	Status          string      `json:"status"`
	CreatedAt       string      `json:"createdAt"`
	UpdatedAt       string      `json:"updatedAt"`
	Provenance      *Provenance `json:"provenance"`
	Storage         *Storage    `json:"storage"`
	Photos          []Photo     `json:"photos"`
}

// Provenance is the acquisition history of a record.
type Provenance struct {
	ID             string   `json:"id"`
	MineralID      string   `json:"mineralId"`
	Site           *string  `json:"site"`
	Locality       *string  `json:"locality"`
	Country        *string  `json:"country"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AcquiredAt     *string  `json:"acquiredAt"`
	Source         *string  `json:"source"`
	Price          *float64 `json:"price"`
	EstimatedValue *float64 `json:"estimatedValue"`
}

// Storage is the physical placement of a record. ID is the generated lookup
// token; QRContent is derived from the owning record's ID.
type Storage struct {
	ID        string  `json:"id"`
	MineralID string  `json:"mineralId"`
	Place     *string `json:"place"`
	Container *string `json:"container"`
	Box       *string `json:"box"`
	Slot      *string `json:"slot"`
	NFCTagID  *string `json:"nfcTagId"`
	QRContent string  `json:"qrContent"`
}

// Photo references a media member of the archive.
type Photo struct {
	ID       string  `json:"id"`
	FileName string  `json:"fileName"`
	Caption  *string `json:"caption"`
}
