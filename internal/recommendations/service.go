package recommendations

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

const (
	weightOrdered    = 3
	weightWishlisted = 2
	weightInCart     = 1

	// candidatePool bounds how many ranked crafts are read before the
	// category weighting is applied.
	candidatePool = 500
)

const (
	SourcePersonalized = "personalized"
	SourceTrending     = "trending"
)

type wishlistCategories interface {
	CategoryCounts(ctx context.Context, buyerID uuid.UUID) (map[string]int, error)
}

// Result is a recommendation list and how it was produced.
type Result struct {
	Crafts  []crafts.CraftDTO `json:"crafts"`
	Source  string            `json:"source"`
	Weights map[string]int    `json:"category_weights,omitempty"`
}

type Service interface {
	Trending(ctx context.Context, limit int) (*Result, error)
	ForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) (*Result, error)
}

type service struct {
	repo     *Repository
	wishlist wishlistCategories
	logg     *logger.Logger
}

func NewService(repo *Repository, wishlist wishlistCategories, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recommendations repository required")
	}
	if wishlist == nil {
		return nil, fmt.Errorf("wishlist category source required")
	}
	return &service{repo: repo, wishlist: wishlist, logg: logg}, nil
}

func (s *service) Trending(ctx context.Context, limit int) (*Result, error) {
	rows, err := s.repo.RankedCrafts(ctx, CraftQuery{Limit: pagination.NormalizeLimit(limit)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load trending crafts")
	}
	return &Result{Crafts: crafts.FromModels(rows), Source: SourceTrending}, nil
}

// ForBuyer ranks crafts from the buyer's weighted categories, skipping
// anything already ordered. Buyers without history get trending crafts.
func (s *service) ForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) (*Result, error) {
	limit = pagination.NormalizeLimit(limit)

	weights, err := s.categoryWeights(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer history")
	}
	if len(weights) == 0 {
		return s.Trending(ctx, limit)
	}

	ordered, err := s.repo.OrderedCraftIDs(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ordered crafts")
	}

	categories := make([]string, 0, len(weights))
	for category := range weights {
		categories = append(categories, category)
	}
	candidates, err := s.repo.RankedCrafts(ctx, CraftQuery{Categories: categories, Exclude: ordered, Limit: candidatePool})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load candidate crafts")
	}

	// candidates arrive in trending order; a stable sort keeps it within a weight
	sort.SliceStable(candidates, func(i, j int) bool {
		return weights[candidates[i].Category] > weights[candidates[j].Category]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if len(candidates) < limit {
		exclude := append([]uuid.UUID{}, ordered...)
		for _, c := range candidates {
			exclude = append(exclude, c.ID)
		}
		filler, err := s.repo.RankedCrafts(ctx, CraftQuery{Exclude: exclude, Limit: limit - len(candidates)})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load trending filler")
		}
		candidates = append(candidates, filler...)
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"buyer_id": buyerID.String(), "categories": len(weights)})
		s.logg.Debug(logCtx, "personalized recommendations built")
	}
	return &Result{Crafts: crafts.FromModels(candidates), Source: SourcePersonalized, Weights: weights}, nil
}

func (s *service) categoryWeights(ctx context.Context, buyerID uuid.UUID) (map[string]int, error) {
	weights := map[string]int{}

	ordered, err := s.repo.OrderedCategories(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	saved, err := s.wishlist.CategoryCounts(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	inCart, err := s.repo.CartCategories(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	for category, n := range ordered {
		weights[category] += n * weightOrdered
	}
	for category, n := range saved {
		weights[category] += n * weightWishlisted
	}
	for category, n := range inCart {
		weights[category] += n * weightInCart
	}
	return weights, nil
}
