package enums

import "slices"

// OrderStatus tracks where an order is in its fulfillment lifecycle.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	return slices.Contains(validOrderStatuses, v)
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse(validOrderStatuses, "order status", value)
}

// IsFulfillmentStep reports whether the status belongs to the artisan-driven
// linear progression (placed through delivered).
func (v OrderStatus) IsFulfillmentStep() bool {
	switch v {
	case OrderStatusPlaced, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// IsCancellable reports whether a buyer may still cancel from this status.
func (v OrderStatus) IsCancellable() bool {
	return v == OrderStatusPlaced || v == OrderStatusConfirmed
}

// IsReturnable reports whether a buyer may request a return from this status.
func (v OrderStatus) IsReturnable() bool {
	return v == OrderStatusDelivered
}
