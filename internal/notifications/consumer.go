package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/outbox/idempotency"
	"github.com/agrimarket/inventory-engine/pkg/outbox/payloads"
)

const alertNotificationConsumer = "alert-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns stock alerts and reservation
// expiries into seller notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an alert notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case enums.EventAlertRaised, enums.EventAlertRefreshed, enums.EventReservationExpired:
	default:
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, alertNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, alertNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventAlertRaised:
		var payload payloads.AlertRaisedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.createAlertNotification(ctx, payload, logCtx)
	case enums.EventAlertRefreshed:
		var payload payloads.AlertRefreshedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.createEscalationNotification(ctx, payload, logCtx)
	case enums.EventReservationExpired:
		var payload payloads.ReservationExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.createExpiryNotification(ctx, payload, logCtx)
	}
	return nil
}

func notificationTypeForAlert(alertType enums.AlertType) enums.NotificationType {
	switch alertType {
	case enums.AlertTypeOutOfStock:
		return enums.NotificationOutOfStock
	case enums.AlertTypeCritical:
		return enums.NotificationCriticalStock
	default:
		return enums.NotificationLowStock
	}
}

func (c *Consumer) createAlertNotification(ctx context.Context, payload payloads.AlertRaisedEvent, logCtx context.Context) error {
	if payload.SellerID == uuid.Nil {
		return fmt.Errorf("seller id missing")
	}
	link := fmt.Sprintf("/sellers/%s/products/%s/stock", payload.SellerID, payload.ProductID)
	title := "Low stock"
	message := fmt.Sprintf("Product %s is down to %d available units (threshold %d).",
		payload.ProductID, payload.AvailableStock, payload.Threshold)
	switch payload.AlertType {
	case enums.AlertTypeOutOfStock:
		title = "Out of stock"
		message = fmt.Sprintf("Product %s has no available stock left.", payload.ProductID)
	case enums.AlertTypeCritical:
		title = "Critically low stock"
	}
	if payload.ReorderQuantity > 0 {
		message = fmt.Sprintf("%s Suggested reorder: %d units.", message, payload.ReorderQuantity)
	}

	notification := &models.Notification{
		SellerID: payload.SellerID,
		Type:     notificationTypeForAlert(payload.AlertType),
		Title:    title,
		Message:  message,
		Link:     stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "seller notified of stock alert")
	return nil
}

func (c *Consumer) createEscalationNotification(ctx context.Context, payload payloads.AlertRefreshedEvent, logCtx context.Context) error {
	if payload.SellerID == uuid.Nil {
		return fmt.Errorf("seller id missing")
	}
	link := fmt.Sprintf("/sellers/%s/products/%s/stock", payload.SellerID, payload.ProductID)
	notification := &models.Notification{
		SellerID: payload.SellerID,
		Type:     notificationTypeForAlert(payload.AlertType),
		Title:    "Stock alert escalated",
		Message: fmt.Sprintf("Product %s worsened from %s to %s with %d units available.",
			payload.ProductID, payload.PreviousType, payload.AlertType, payload.AvailableStock),
		Link: stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "seller notified of alert escalation")
	return nil
}

func (c *Consumer) createExpiryNotification(ctx context.Context, payload payloads.ReservationExpiredEvent, logCtx context.Context) error {
	if payload.SellerID == uuid.Nil {
		// Ledger entry was retired before the sweep ran; nobody to notify.
		c.logg.Info(logCtx, "expired reservation has no seller")
		return nil
	}
	notification := &models.Notification{
		SellerID: payload.SellerID,
		Type:     enums.NotificationReservationExpired,
		Title:    "Reservation expired",
		Message: fmt.Sprintf("A hold of %d units on product %s for order %s lapsed and was returned to stock.",
			payload.Quantity, payload.ProductID, payload.OrderID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "seller notified of expired reservation")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
