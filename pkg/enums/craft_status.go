package enums

import "slices"

// CraftStatus is the moderation state of a listed craft.
type CraftStatus string

const (
	CraftStatusPending  CraftStatus = "pending"
	CraftStatusApproved CraftStatus = "approved"
	CraftStatusRejected CraftStatus = "rejected"
)

var validCraftStatuses = []CraftStatus{
	CraftStatusPending,
	CraftStatusApproved,
	CraftStatusRejected,
}

func (v CraftStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CraftStatus.
func (v CraftStatus) IsValid() bool {
	return slices.Contains(validCraftStatuses, v)
}

// ParseCraftStatus converts raw input into a CraftStatus.
func ParseCraftStatus(value string) (CraftStatus, error) {
	return parse(validCraftStatuses, "craft status", value)
}
