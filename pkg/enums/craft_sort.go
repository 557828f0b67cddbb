package enums

import "slices"

// CraftSort selects the ordering for public catalog listings.
type CraftSort string

const (
	CraftSortNewest    CraftSort = "newest"
	CraftSortPriceAsc  CraftSort = "price_asc"
	CraftSortPriceDesc CraftSort = "price_desc"
	CraftSortRating    CraftSort = "rating"
)

var validCraftSorts = []CraftSort{
	CraftSortNewest,
	CraftSortPriceAsc,
	CraftSortPriceDesc,
	CraftSortRating,
}

func (v CraftSort) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CraftSort.
func (v CraftSort) IsValid() bool {
	return slices.Contains(validCraftSorts, v)
}

// ParseCraftSort converts raw input into a CraftSort.
func ParseCraftSort(value string) (CraftSort, error) {
	return parse(validCraftSorts, "craft sort", value)
}
