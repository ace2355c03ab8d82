package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

// WebhookUsecase ingests provider notifications of terminal payment state.
// Once the signature verifies, the provider always gets a 200: processing
// failures land in the dead-letter store and are reconciled out of band.
type WebhookUsecase struct {
	paymentRepo     repositories.PaymentRepository
	idempotencyRepo repositories.IdempotencyRepository
	deadLetterRepo  repositories.DeadLetterRepository
	settlement      *SettlementUsecase
	secrets         map[entities.Rail]string
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(
	paymentRepo repositories.PaymentRepository,
	idempotencyRepo repositories.IdempotencyRepository,
	deadLetterRepo repositories.DeadLetterRepository,
	settlement *SettlementUsecase,
	secrets map[entities.Rail]string,
) *WebhookUsecase {
	return &WebhookUsecase{
		paymentRepo:     paymentRepo,
		idempotencyRepo: idempotencyRepo,
		deadLetterRepo:  deadLetterRepo,
		settlement:      settlement,
		secrets:         secrets,
	}
}

// webhookEvent is the provider payload shape both rails share.
type webhookEvent struct {
	EventType string `json:"event_type"`
	OrderID   string `json:"order_id"`
	EventTime string `json:"event_time"`
}

func (e *webhookEvent) id() string { return e.OrderID + ":" + e.EventTime }

// Process verifies, dedups and applies one webhook delivery.
func (u *WebhookUsecase) Process(ctx context.Context, rail entities.Rail, signatureHeader string, body []byte) (*entities.WebhookAck, error) {
	secret, ok := u.secrets[rail]
	if !ok {
		return nil, domainerrors.NotFound(domainerrors.CodeInvalidRequest, "unknown rail")
	}
	if err := crypto.VerifyWebhookSignature(secret, signatureHeader, body, time.Now()); err != nil {
		logger.Warn(ctx, "webhook signature rejected",
			zap.String("rail", string(rail)), zap.Error(err))
		return nil, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "invalid webhook signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.OrderID == "" || event.EventTime == "" {
		u.deadLetter(ctx, rail, "", "", body, "unparseable webhook payload")
		return &entities.WebhookAck{Received: true, Processed: false}, nil
	}

	route := "webhook:" + string(rail)
	record := &entities.IdempotencyRecord{
		Route:              route,
		Key:                event.id(),
		RequestFingerprint: crypto.Fingerprint(body),
	}
	if err := u.idempotencyRepo.InsertInFlight(ctx, record); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return u.replay(ctx, route, event.id())
		}
		u.deadLetter(ctx, rail, event.id(), event.EventType, body, err.Error())
		return &entities.WebhookAck{Received: true, Processed: false}, nil
	}

	ack := u.apply(ctx, rail, &event, body)

	ackBody, _ := json.Marshal(ack)
	if err := u.idempotencyRepo.Complete(ctx, route, event.id(), 200, string(ackBody)); err != nil {
		logger.Error(ctx, "failed to capture webhook ack",
			zap.String("route", route), zap.Error(err))
	}
	return ack, nil
}

// replay returns the stored ack for a duplicate delivery. A concurrent
// in-flight delivery is acknowledged without processing.
func (u *WebhookUsecase) replay(ctx context.Context, route, key string) (*entities.WebhookAck, error) {
	record, err := u.idempotencyRepo.Get(ctx, route, key)
	if err != nil || record.Status != entities.IdempotencyStatusCompleted {
		return &entities.WebhookAck{Received: true, Processed: false}, nil
	}
	var ack entities.WebhookAck
	if err := json.Unmarshal([]byte(record.ResponseBody), &ack); err != nil {
		return &entities.WebhookAck{Received: true, Processed: false}, nil
	}
	return &ack, nil
}

func (u *WebhookUsecase) apply(ctx context.Context, rail entities.Rail, event *webhookEvent, body []byte) *entities.WebhookAck {
	switch event.EventType {
	case entities.WebhookEventPaymentSucceeded,
		entities.WebhookEventPaymentFailed,
		entities.WebhookEventPaymentCancelled:
	default:
		// Unknown event types are acknowledged and ignored.
		return &entities.WebhookAck{Received: true, Processed: false}
	}

	payment, err := u.paymentRepo.GetByProviderRef(ctx, rail, event.OrderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "webhook for unknown order",
				zap.String("rail", string(rail)),
				zap.String("order_id", event.OrderID))
			return &entities.WebhookAck{Received: true, Processed: false}
		}
		u.deadLetter(ctx, rail, event.id(), event.EventType, body, err.Error())
		return &entities.WebhookAck{Received: true, Processed: false}
	}
	if payment.Status.IsTerminal() {
		return &entities.WebhookAck{Received: true, Processed: false}
	}

	switch event.EventType {
	case entities.WebhookEventPaymentSucceeded:
		err = u.settlement.Settle(ctx, payment.ID, time.Now())
	case entities.WebhookEventPaymentFailed:
		err = u.settlement.Finish(ctx, payment.ID, entities.PaymentStatusFailed)
	case entities.WebhookEventPaymentCancelled:
		err = u.settlement.Finish(ctx, payment.ID, entities.PaymentStatusCancelled)
	}
	if err != nil {
		u.deadLetter(ctx, rail, event.id(), event.EventType, body, err.Error())
		return &entities.WebhookAck{Received: true, Processed: false}
	}

	return &entities.WebhookAck{Received: true, Processed: true}
}

func (u *WebhookUsecase) deadLetter(ctx context.Context, rail entities.Rail, eventID, eventType string, payload []byte, cause string) {
	letter := &entities.WebhookDeadLetter{
		Rail:      rail,
		EventID:   eventID,
		EventType: eventType,
		Payload:   string(payload),
		Error:     cause,
		CreatedAt: time.Now(),
	}
	if err := u.deadLetterRepo.Create(ctx, letter); err != nil {
		logger.Error(ctx, "failed to dead-letter webhook",
			zap.String("rail", string(rail)),
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
