package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/pkg/idgen"
	"github.com/you/trip-booking/services/payment-service/internal/domain"
	"github.com/you/trip-booking/services/payment-service/internal/gateway"
)

type PaymentStore interface {
	CreatePending(ctx context.Context, p *domain.Payment) error
	ByRef(ctx context.Context, ref string) (*domain.Payment, error)
	ByRequestID(ctx context.Context, requestID string) (*domain.Payment, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Payment, error)
	Finish(ctx context.Context, id string, fields map[string]any, routingKey string, evt any) error
}

type Processor interface {
	Charge(ctx context.Context, method string, amount int64) gateway.Outcome
	Refund(ctx context.Context, method string, amount int64) gateway.Outcome
}

type PaymentSvc struct {
	repo PaymentStore
	proc Processor
}

func NewPaymentSvc(repo PaymentStore, proc Processor) *PaymentSvc {
	return &PaymentSvc{repo: repo, proc: proc}
}

type ChargeInput struct {
	RequestID string
	BookingID string
	AccountID string
	Amount    int64 // cents, copied from the booking total, not re-derived
	Method    string
}

type ChargeResult struct {
	Success       bool   `json:"success"`
	PaymentRef    string `json:"payment_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message"`
}

// Charge validates, persists a pending record, runs the simulated
// gateway once and applies its outcome. Outcome events go through the
// outbox; their delivery can never change the result returned here.
func (s *PaymentSvc) Charge(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	// method check happens before anything is persisted
	if !gateway.Supported(in.Method) {
		return nil, domain.ErrUnsupportedMethod
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	if in.RequestID != "" {
		if existing, err := s.repo.ByRequestID(ctx, in.RequestID); err == nil {
			return resultOf(existing), nil
		} else if !errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, err
		}
	}

	p := &domain.Payment{
		Ref:       idgen.PaymentRef(),
		RequestID: in.RequestID,
		BookingID: in.BookingID,
		AccountID: in.AccountID,
		Amount:    in.Amount,
		Method:    in.Method,
	}
	if err := s.repo.CreatePending(ctx, p); err != nil {
		// a concurrent submission with the same request id won the
		// insert; hand back its record instead of charging twice
		if errors.Is(err, domain.ErrDuplicateRequest) && in.RequestID != "" {
			existing, lookupErr := s.repo.ByRequestID(ctx, in.RequestID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return resultOf(existing), nil
		}
		return nil, fmt.Errorf("persist pending payment: %w", err)
	}

	outcome := s.proc.Charge(ctx, in.Method, in.Amount)
	if outcome.Success {
		err := s.repo.Finish(ctx, p.ID,
			map[string]any{"status": domain.StatusCompleted, "transaction_id": outcome.TransactionID},
			events.RKPaymentCompleted,
			events.PaymentCompleted{
				PaymentID:     p.Ref,
				BookingID:     p.BookingID,
				AccountID:     p.AccountID,
				Amount:        p.Amount,
				Method:        p.Method,
				TransactionID: outcome.TransactionID,
			})
		if err != nil {
			return nil, fmt.Errorf("record charge outcome: %w", err)
		}
		return &ChargeResult{Success: true, PaymentRef: p.Ref, TransactionID: outcome.TransactionID, Message: "payment completed"}, nil
	}

	err := s.repo.Finish(ctx, p.ID,
		map[string]any{"status": domain.StatusFailed, "failure_reason": outcome.Reason},
		events.RKPaymentFailed,
		events.PaymentFailed{
			PaymentID: p.Ref,
			BookingID: p.BookingID,
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Method:    p.Method,
			Reason:    outcome.Reason,
		})
	if err != nil {
		return nil, fmt.Errorf("record charge outcome: %w", err)
	}
	return &ChargeResult{Success: false, PaymentRef: p.Ref, Message: outcome.Reason}, nil
}

type RefundResult struct {
	Success    bool   `json:"success"`
	PaymentRef string `json:"payment_id"`
	RefundRef  string `json:"refund_id,omitempty"`
	Message    string `json:"message"`
}

// Refund is only eligible while the stored status is exactly completed,
// so a second refund of the same payment fails. A rejected refund
// leaves the record untouched and is not retried.
func (s *PaymentSvc) Refund(ctx context.Context, ref, reason string) (*RefundResult, error) {
	p, err := s.repo.ByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusCompleted {
		return nil, domain.ErrNotRefundable
	}

	outcome := s.proc.Refund(ctx, p.Method, p.Amount)
	if !outcome.Success {
		log.Printf("[payment] refund rejected ref=%s: %s", p.Ref, outcome.Reason)
		return &RefundResult{Success: false, PaymentRef: p.Ref, Message: outcome.Reason}, nil
	}

	refundRef := idgen.RefundRef()
	err = s.repo.Finish(ctx, p.ID,
		map[string]any{"status": domain.StatusRefunded, "refund_ref": refundRef, "refund_reason": reason},
		events.RKPaymentRefunded,
		events.PaymentRefunded{
			PaymentID: p.Ref,
			BookingID: p.BookingID,
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Reason:    reason,
		})
	if err != nil {
		return nil, fmt.Errorf("record refund outcome: %w", err)
	}
	return &RefundResult{Success: true, PaymentRef: p.Ref, RefundRef: refundRef, Message: "refund processed"}, nil
}

func (s *PaymentSvc) Get(ctx context.Context, ref string) (*domain.Payment, error) {
	return s.repo.ByRef(ctx, ref)
}

func (s *PaymentSvc) ListByAccount(ctx context.Context, accountID string) ([]domain.Payment, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func resultOf(p *domain.Payment) *ChargeResult {
	switch p.Status {
	case domain.StatusCompleted, domain.StatusRefunded:
		return &ChargeResult{Success: true, PaymentRef: p.Ref, TransactionID: p.TransactionID, Message: "payment already processed"}
	case domain.StatusFailed:
		return &ChargeResult{Success: false, PaymentRef: p.Ref, Message: p.FailureReason}
	default:
		return &ChargeResult{Success: false, PaymentRef: p.Ref, Message: "payment is still pending"}
	}
}
