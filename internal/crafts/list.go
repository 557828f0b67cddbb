package crafts

import (
	"github.com/shopspring/decimal"

	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the public catalog.
type ListFilters struct {
	Category string           `json:"category,omitempty"`
	Query    string           `json:"q,omitempty"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
	Sort     enums.CraftSort  `json:"sort,omitempty"`
}

// ListInput bundles filters with paging. Newest-first listings page by
// cursor; the other sorts page by Page number.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
	Page       int
}

// ListResult is one page of the public catalog.
type ListResult struct {
	Crafts     []CraftDTO `json:"crafts"`
	Total      int64      `json:"total"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Page       int        `json:"page,omitempty"`
}

type listQuery struct {
	Category      string
	Query         string
	MinPriceCents *int64
	MaxPriceCents *int64
	Sort          enums.CraftSort
	Cursor        *pagination.Cursor
	Limit         int
	Offset        int
}
