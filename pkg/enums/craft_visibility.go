package enums

import "slices"

// CraftVisibility controls whether an approved craft is shown in the catalog.
type CraftVisibility string

const (
	CraftVisibilityPublic CraftVisibility = "public"
	CraftVisibilityHidden CraftVisibility = "hidden"
)

var validCraftVisibilities = []CraftVisibility{
	CraftVisibilityPublic,
	CraftVisibilityHidden,
}

func (v CraftVisibility) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CraftVisibility.
func (v CraftVisibility) IsValid() bool {
	return slices.Contains(validCraftVisibilities, v)
}

// ParseCraftVisibility converts raw input into a CraftVisibility.
func ParseCraftVisibility(value string) (CraftVisibility, error) {
	return parse(validCraftVisibilities, "craft visibility", value)
}
