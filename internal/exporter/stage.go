package exporter

// Stage is a step of an export run. A run only moves forward; any failure
// ends it in StageFailed.
type Stage int

const (
	StageIdle Stage = iota
	StageParsing
	StageBuilding
	StageEncryptionPending
	StageEncrypted
	StagePackaging
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageParsing:
		return "parsing"
	case StageBuilding:
		return "building"
	case StageEncryptionPending:
		return "encryption-pending"
	case StageEncrypted:
		return "encrypted"
	case StagePackaging:
		return "packaging"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}
