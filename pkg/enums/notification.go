package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderUpdate     NotificationType = "order_update"
	NotificationTypeQuoteSent       NotificationType = "quote_sent"
	NotificationTypeQuoteResponse   NotificationType = "quote_response"
	NotificationTypePaymentReceived NotificationType = "payment_received"
	NotificationTypeDeliveryUpdate  NotificationType = "delivery_update"
	NotificationTypeSystem          NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderUpdate,
	NotificationTypeQuoteSent,
	NotificationTypeQuoteResponse,
	NotificationTypePaymentReceived,
	NotificationTypeDeliveryUpdate,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// Category tags the outbound push payload. It carries no transition logic.
func (n NotificationType) Category() string {
	switch n {
	case NotificationTypeOrderUpdate, NotificationTypeDeliveryUpdate:
		return "orders"
	case NotificationTypeQuoteSent, NotificationTypeQuoteResponse:
		return "quotes"
	case NotificationTypePaymentReceived:
		return "payments"
	default:
		return "general"
	}
}
