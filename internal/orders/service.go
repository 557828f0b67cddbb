package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/money"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
)

const (
	orderNumberConstraint = "orders_order_number_key"
	orderNumberColumn     = "orders.order_number"
	defaultNumberAttempts = 5
)

// Service exposes order placement, listing and lifecycle operations.
type Service interface {
	Place(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, role enums.UserRole, input ListInput) (*ListResult, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, artisanID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, buyerID, orderID uuid.UUID, input ReasonInput) (*OrderDTO, error)
	Return(ctx context.Context, buyerID, orderID uuid.UUID, input ReasonInput) (*OrderDTO, error)
}

// ServiceParams collects the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Cart      cartClearer
	Crafts    *crafts.Repository
	Config    config.OrdersConfig
	Logger    *logger.Logger
	Clock     func() time.Time
	NewNumber numberGenerator
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	cart      cartClearer
	crafts    *crafts.Repository
	attempts  int
	logg      *logger.Logger
	now       func() time.Time
	newNumber numberGenerator
}

// NewService constructs an orders service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Crafts == nil {
		return nil, fmt.Errorf("craft repository required")
	}
	attempts := params.Config.NumberRetryAttempts
	if attempts <= 0 {
		attempts = defaultNumberAttempts
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	gen := params.NewNumber
	if gen == nil {
		gen = NewOrderNumber
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		cart:      params.Cart,
		crafts:    params.Crafts,
		attempts:  attempts,
		logg:      params.Logger,
		now:       clock,
		newNumber: gen,
	}, nil
}

// Place writes the order header, its items, the optional cart clear, the
// craft order counters and the order_created event in one transaction. An
// order number collision reruns the whole transaction with a fresh number.
func (s *service) Place(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	order, lines, err := s.buildOrder(buyerID, input)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		number, err := s.newNumber(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		candidate := *order
		candidate.ID = uuid.Nil
		candidate.OrderNumber = number

		var placed *models.Order
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			placed, txErr = s.placeTx(ctx, tx, &candidate, lines, input.ClearCart)
			return txErr
		})
		if err == nil {
			if s.logg != nil {
				logCtx := s.logg.WithOrderID(ctx, placed.ID.String())
				s.logg.Info(s.logg.WithField(logCtx, "order_number", placed.OrderNumber), "order placed")
			}
			dto := FromModel(*placed)
			return &dto, nil
		}
		if !db.IsUniqueViolationOn(err, orderNumberConstraint, orderNumberColumn) {
			return nil, wrapPlaceError(err)
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number collision, retrying")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order number")
}

func (s *service) placeTx(ctx context.Context, tx *gorm.DB, order *models.Order, lines []pricedLine, clearCart bool) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	// returned unwrapped so the caller can detect an order number collision
	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.toModel(order.ID))
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
	}

	if clearCart {
		if _, err := s.cart.WithTx(tx).Clear(ctx, order.BuyerID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
	}

	if err := s.crafts.WithTx(tx).IncrementOrderCount(ctx, distinctCraftIDs(lines)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment craft order counts")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: enums.UserRoleBuyer},
		Data: payloads.OrderCreatedEvent{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			BuyerID:          order.BuyerID,
			ArtisanID:        order.ArtisanID,
			TotalAmountCents: order.TotalAmountCents,
			ItemCount:        len(items),
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}

	order.Items = items
	return order, nil
}

func (s *service) buildOrder(buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, []pricedLine, error) {
	if buyerID == uuid.Nil || input.ArtisanID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and artisan are required")
	}
	if buyerID == input.ArtisanID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer cannot order from themselves")
	}
	address := strings.TrimSpace(input.ShippingAddress)
	phone := strings.TrimSpace(input.BuyerPhone)
	if address == "" || phone == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping_address and buyer_phone are required")
	}
	if input.TotalAmount == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "total_amount is required")
	}
	totalCents, err := money.NonNegativeCents(*input.TotalAmount)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid total_amount")
	}

	method := enums.PaymentMethodCOD
	if input.PaymentMethod != nil && *input.PaymentMethod != "" {
		if !input.PaymentMethod.IsValid() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_method")
		}
		method = *input.PaymentMethod
	}

	lines, err := priceLines(input.Items)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	order := &models.Order{
		BuyerID:          buyerID,
		ArtisanID:        input.ArtisanID,
		TotalAmountCents: totalCents,
		Status:           enums.OrderStatusPlaced,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    method,
		ShippingAddress:  address,
		BuyerPhone:       phone,
		Notes:            trimmedOrNil(input.Notes),
	}
	return order, lines, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, role enums.UserRole, input ListInput) (*ListResult, error) {
	var scope ListScope
	switch role {
	case enums.UserRoleBuyer:
		scope.BuyerID = &userID
	case enums.UserRoleArtisan:
		scope.ArtisanID = &userID
	case enums.UserRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list orders")
	}

	filters := ListFilters{Status: input.Status, FromDate: input.FromDate}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if input.ToDate != nil {
		end := endOfRange(*input.ToDate)
		filters.ToDate = &end
	}
	if filters.FromDate != nil && filters.ToDate != nil && !filters.FromDate.Before(*filters.ToDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from_date must be before to_date")
	}

	rows, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return &ListResult{Orders: out, Count: len(out)}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if role != enums.UserRoleAdmin && order.BuyerID != userID && order.ArtisanID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := FromModel(*order)
	return &dto, nil
}

// endOfRange makes a date-only upper bound inclusive of that whole day.
func endOfRange(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(time.Nanosecond)
}

func wrapPlaceError(err error) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
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
