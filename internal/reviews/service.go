package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// Service exposes review writes and reads. Every write recomputes the craft
// rating in the same transaction.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateReviewInput) (*ReviewResult, error)
	Update(ctx context.Context, buyerID, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewResult, error)
	Delete(ctx context.Context, userID uuid.UUID, role enums.UserRole, reviewID uuid.UUID) (*CraftRating, error)
	ListForCraft(ctx context.Context, craftID uuid.UUID, params pagination.Params) (*ListResult, error)
	MarkHelpful(ctx context.Context, userID, reviewID uuid.UUID) (*ReviewDTO, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Repo       *Repository
	Crafts     *crafts.Repository
	Aggregator *Aggregator
	Tx         txRunner
	Outbox     outboxPublisher
	Logger     *logger.Logger
}

type service struct {
	repo   *Repository
	crafts *crafts.Repository
	agg    *Aggregator
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.Crafts == nil {
		return nil, fmt.Errorf("craft repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	agg := params.Aggregator
	if agg == nil {
		agg = NewAggregator(params.Repo, params.Crafts)
	}
	return &service{
		repo:   params.Repo,
		crafts: params.Crafts,
		agg:    agg,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateReviewInput) (*ReviewResult, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.CraftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft_id is required")
	}

	var result *ReviewResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		craft, err := s.crafts.WithTx(tx).FindByID(ctx, input.CraftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load craft")
		}

		exists, err := repo.ExistsForBuyer(ctx, buyerID, craft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this craft")
		}

		orderID, err := repo.DeliveredOrderFor(ctx, buyerID, craft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check purchase")
		}
		if orderID == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "you can only review crafts from delivered orders")
		}

		review := &models.Review{
			BuyerID:    buyerID,
			CraftID:    craft.ID,
			OrderID:    orderID,
			Rating:     input.Rating,
			ReviewText: trimmedOrNil(input.ReviewText),
			Images:     input.Images,
		}
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolationOn(err, "reviews_buyer_craft_key", "reviews.buyer_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this craft")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		rating, total, err := s.agg.Recompute(ctx, tx, craft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute rating")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.UserRoleBuyer},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:  review.ID,
				CraftID:   craft.ID,
				CraftName: craft.Name,
				BuyerID:   buyerID,
				ArtisanID: craft.ArtisanID,
				Rating:    review.Rating,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit review submitted")
		}

		result = &ReviewResult{Review: FromModel(*review), Craft: CraftRating{Rating: rating, ReviewCount: total}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": result.Review.ID.String(), "craft_id": input.CraftID.String()})
		s.logg.Info(logCtx, "review created")
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, buyerID, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewResult, error) {
	if input.Rating == nil && input.ReviewText == nil && input.Images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var result *ReviewResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := loadReview(ctx, repo, reviewID)
		if err != nil {
			return err
		}
		if review.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can edit this review")
		}

		if input.Rating != nil {
			review.Rating = *input.Rating
		}
		if input.ReviewText != nil {
			review.ReviewText = trimmedOrNil(input.ReviewText)
		}
		if input.Images != nil {
			review.Images = *input.Images
		}
		if err := repo.Save(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review")
		}

		rating, total, err := s.agg.Recompute(ctx, tx, review.CraftID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute rating")
		}
		result = &ReviewResult{Review: FromModel(*review), Craft: CraftRating{Rating: rating, ReviewCount: total}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a review. Authors may delete their own; admins any.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, role enums.UserRole, reviewID uuid.UUID) (*CraftRating, error) {
	var out *CraftRating
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := loadReview(ctx, repo, reviewID)
		if err != nil {
			return err
		}
		if review.BuyerID != userID && role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can delete this review")
		}
		if err := repo.Delete(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
		}
		rating, total, err := s.agg.Recompute(ctx, tx, review.CraftID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recompute rating")
		}
		out = &CraftRating{Rating: rating, ReviewCount: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListForCraft(ctx context.Context, craftID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListForCraft(ctx, craftID, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}

	rows, next := pagination.Page(rows, limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	result := &ListResult{Reviews: make([]ReviewDTO, 0, len(rows))}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}

	buyerIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		buyerIDs = append(buyerIDs, row.BuyerID)
	}
	names, err := s.repo.BuyerNames(ctx, buyerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reviewers")
	}
	for _, row := range rows {
		dto := FromModel(row)
		dto.BuyerName = names[row.BuyerID]
		result.Reviews = append(result.Reviews, dto)
	}
	return result, nil
}

// MarkHelpful counts one vote per user. A repeat vote is a conflict.
func (s *service) MarkHelpful(ctx context.Context, userID, reviewID uuid.UUID) (*ReviewDTO, error) {
	var out *ReviewDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadReview(ctx, repo, reviewID); err != nil {
			return err
		}
		if err := repo.AddHelpful(ctx, reviewID, userID); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "you already marked this review as helpful")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark helpful")
		}
		review, err := loadReview(ctx, repo, reviewID)
		if err != nil {
			return err
		}
		dto := FromModel(*review)
		out = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadReview(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Review, error) {
	review, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	return review, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
