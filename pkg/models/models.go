package models

// ChangeStatus describes how a file changed within a submission.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusRemoved  ChangeStatus = "removed"
	StatusRenamed  ChangeStatus = "renamed"
)

// RawChange is one file record as returned by the change-set source.
// Any field may be missing or empty; normalization decides what is reviewable.
type RawChange struct {
	Path      string
	Patch     string
	Status    string
	Additions int
	Deletions int
	Changes   int
}

// ChangeUnit is one file's change in canonical form. Units are constructed
// once during normalization and never mutated afterwards.
type ChangeUnit struct {
	Path      string
	PatchText string
	Status    ChangeStatus
	Additions int
	Deletions int
	Changes   int
}

// ParseStatus maps a raw status string onto a ChangeStatus, defaulting to
// modified for anything unrecognized.
func ParseStatus(s string) ChangeStatus {
	switch ChangeStatus(s) {
	case StatusAdded, StatusRemoved, StatusRenamed:
		return ChangeStatus(s)
	default:
		return StatusModified
	}
}
