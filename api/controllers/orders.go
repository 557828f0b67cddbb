package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/api/responses"
	"github.com/logiccrafts/connect-backend/api/validators"
	"github.com/logiccrafts/connect-backend/internal/orders"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
)

// orderBody nests a single order under "order" in the success envelope.
func orderBody(order *orders.OrderDTO) map[string]any {
	return map[string]any{"order": order}
}

// OrderPlace creates an order for the authenticated buyer.
func OrderPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var body orders.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), actor.UserID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orderBody(order))
	}
}

// OrdersList returns the orders visible to the caller, newest first.
// Supports status, from_date and to_date query filters.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var input orders.ListInput
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			input.Status = &status
		}
		from, err := validators.ParseQueryDate(r, "from_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.FromDate = from
		input.ToDate = to

		result, err := svc.List(r.Context(), actor.UserID, actor.Role, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, map[string]any{"orders": result.Orders}, result.Count)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actor.UserID, actor.Role, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderBody(order))
	}
}

// OrderUpdateStatus moves an artisan's order through fulfillment.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), actor.UserID, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderBody(order))
	}
}

// OrderCancel cancels a placed or confirmed order on behalf of its buyer.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return buyerTransition(svc, logg, func(ctx context.Context, buyerID, orderID uuid.UUID, input orders.ReasonInput) (*orders.OrderDTO, error) {
		return svc.Cancel(ctx, buyerID, orderID, input)
	})
}

// OrderReturn records a buyer return for a delivered order.
func OrderReturn(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return buyerTransition(svc, logg, func(ctx context.Context, buyerID, orderID uuid.UUID, input orders.ReasonInput) (*orders.OrderDTO, error) {
		return svc.Return(ctx, buyerID, orderID, input)
	})
}

type buyerTransitionFunc func(ctx context.Context, buyerID, orderID uuid.UUID, input orders.ReasonInput) (*orders.OrderDTO, error)

func buyerTransition(svc orders.Service, logg *logger.Logger, apply buyerTransitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.ReasonInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := apply(r.Context(), actor.UserID, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderBody(order))
	}
}
