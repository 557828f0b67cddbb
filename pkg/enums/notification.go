package enums

import "slices"

// NotificationType maps to notifications.type.
type NotificationType string

const (
	NotificationTypeOrderPlaced    NotificationType = "order_placed"
	NotificationTypeOrderStatus    NotificationType = "order_status"
	NotificationTypeOrderCancelled NotificationType = "order_cancelled"
	NotificationTypeOrderReturned  NotificationType = "order_returned"
	NotificationTypeReviewReceived NotificationType = "review_received"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderStatus,
	NotificationTypeOrderCancelled,
	NotificationTypeOrderReturned,
	NotificationTypeReviewReceived,
}

func (v NotificationType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationType.
func (v NotificationType) IsValid() bool {
	return slices.Contains(validNotificationTypes, v)
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parse(validNotificationTypes, "notification type", value)
}
