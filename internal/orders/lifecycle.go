package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
)

var (
	errOrderNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	errOrderNotEligible = pkgerrors.New(pkgerrors.CodeNotEligible, "order not eligible")
)

// UpdateStatus moves an order along the fulfillment path. Any linear status
// may be set directly, including skipping steps. Cancelled and returned
// orders are closed. A foreign or closed order reports not found.
func (s *service) UpdateStatus(ctx context.Context, artisanID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsFulfillmentStep() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of placed, confirmed, processing, shipped, out_for_delivery, delivered")
	}
	tracking := trimmedOrNil(input.TrackingNumber)

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadForTransition(ctx, repo, orderID, errOrderNotFound)
		if err != nil {
			return err
		}
		if order.ArtisanID != artisanID || isClosed(order.Status) {
			return errOrderNotFound
		}

		now := s.now().UTC()
		updates := map[string]any{"status": input.Status}
		if input.Status == enums.OrderStatusDelivered {
			updates["delivered_at"] = now
		}
		if tracking != nil {
			updates["tracking_number"] = *tracking
		}
		if input.EstimatedDelivery != nil {
			updates["estimated_delivery"] = input.EstimatedDelivery.UTC()
		}

		if err := applyTransition(ctx, repo, order, updates, errOrderNotFound); err != nil {
			return err
		}
		previous := order.Status
		if previous != input.Status {
			if err := s.emitStatusChanged(ctx, tx, order, previous, input.Status, enums.UserRoleArtisan, "", tracking, now); err != nil {
				return err
			}
		}

		updated, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, wrapPlaceError(err)
	}

	s.logTransition(ctx, updated)
	dto := FromModel(*updated)
	return &dto, nil
}

// Cancel is allowed for the buyer while the order is placed or confirmed.
func (s *service) Cancel(ctx context.Context, buyerID, orderID uuid.UUID, input ReasonInput) (*OrderDTO, error) {
	return s.buyerTransition(ctx, buyerID, orderID, input.Reason, enums.OrderStatusCancelled)
}

// Return is allowed for the buyer once the order is delivered.
func (s *service) Return(ctx context.Context, buyerID, orderID uuid.UUID, input ReasonInput) (*OrderDTO, error) {
	return s.buyerTransition(ctx, buyerID, orderID, input.Reason, enums.OrderStatusReturned)
}

func (s *service) buyerTransition(ctx context.Context, buyerID, orderID uuid.UUID, rawReason string, target enums.OrderStatus) (*OrderDTO, error) {
	reason := strings.TrimSpace(rawReason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadForTransition(ctx, repo, orderID, errOrderNotEligible)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID || !allowsBuyerTransition(order.Status, target) {
			return errOrderNotEligible
		}

		now := s.now().UTC()
		updates := map[string]any{"status": target}
		if target == enums.OrderStatusCancelled {
			updates["cancelled_at"] = now
			updates["cancellation_reason"] = reason
		} else {
			updates["returned_at"] = now
			updates["return_reason"] = reason
		}

		if err := applyTransition(ctx, repo, order, updates, errOrderNotEligible); err != nil {
			return err
		}
		if err := s.emitStatusChanged(ctx, tx, order, order.Status, target, enums.UserRoleBuyer, reason, nil, now); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, wrapPlaceError(err)
	}

	s.logTransition(ctx, updated)
	dto := FromModel(*updated)
	return &dto, nil
}

func allowsBuyerTransition(current, target enums.OrderStatus) bool {
	switch target {
	case enums.OrderStatusCancelled:
		return current.IsCancellable()
	case enums.OrderStatusReturned:
		return current.IsReturnable()
	}
	return false
}

func isClosed(status enums.OrderStatus) bool {
	return status == enums.OrderStatusCancelled || status == enums.OrderStatusReturned
}

func loadForTransition(ctx context.Context, repo Repository, orderID uuid.UUID, missing error) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, missing
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// applyTransition guards the write with the status that was read, so a
// concurrent change loses the race instead of overwriting it.
func applyTransition(ctx context.Context, repo Repository, order *models.Order, updates map[string]any, lost error) error {
	affected, err := repo.UpdateFields(ctx, order.ID, order.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}
	if affected == 0 {
		return lost
	}
	return nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, previous, next enums.OrderStatus, by enums.UserRole, reason string, tracking *string, at time.Time) error {
	actorID := order.ArtisanID
	if by == enums.UserRoleBuyer {
		actorID = order.BuyerID
	}
	data := payloads.OrderStatusChangedEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		BuyerID:        order.BuyerID,
		ArtisanID:      order.ArtisanID,
		PreviousStatus: previous,
		Status:         next,
		ChangedBy:      by,
		Reason:         reason,
		ChangedAt:      at,
	}
	if tracking != nil {
		data.TrackingNumber = *tracking
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: by},
		Data:          data,
		OccurredAt:    at,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status changed")
	}
	return nil
}

func (s *service) logTransition(ctx context.Context, order *models.Order) {
	if s.logg == nil || order == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "status", string(order.Status)), "order status changed")
}
