package requests

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

// Repository exposes persistence helpers for order requests. The quote
// transitions are conditional updates on pricing_status: zero rows affected
// means the request moved on before we got there, never silent success.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.OrderRequest) error
	Find(ctx context.Context, requestID uuid.UUID) (*models.OrderRequest, error)
	ListCustomerRequests(ctx context.Context, customerID uuid.UUID) ([]models.OrderRequest, error)
	MarkQuoted(ctx context.Context, params markQuotedParams) (bool, error)
	MarkResponded(ctx context.Context, params markRespondedParams) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a requests repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type markQuotedParams struct {
	RequestID      uuid.UUID
	ServiceCharges types.ServiceCharges
	AdminTotal     *decimal.Decimal
	SentAt         time.Time
}

type markRespondedParams struct {
	RequestID       uuid.UUID
	PricingStatus   enums.PricingStatus
	Status          enums.RequestStatus
	RejectionReason *string
	RespondedAt     time.Time
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, request *models.OrderRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repositoryImpl) Find(ctx context.Context, requestID uuid.UUID) (*models.OrderRequest, error) {
	var request models.OrderRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) ListCustomerRequests(ctx context.Context, customerID uuid.UUID) ([]models.OrderRequest, error) {
	var requests []models.OrderRequest
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// MarkQuoted moves a request into quoted, guarded on the current
// pricing_status still accepting a quote.
func (r *repositoryImpl) MarkQuoted(ctx context.Context, params markQuotedParams) (bool, error) {
	charges, err := marshalJSONColumn(params.ServiceCharges)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderRequest{}).
		Where("id = ? AND pricing_status IN ?", params.RequestID, []enums.PricingStatus{
			enums.PricingStatusPending,
			enums.PricingStatusPendingApproval,
		}).
		Updates(map[string]any{
			"pricing_status":     enums.PricingStatusQuoted,
			"status":             enums.RequestStatusQuoted,
			"service_charges":    charges,
			"admin_total_amount": params.AdminTotal,
			"quote_sent_at":      params.SentAt,
			"updated_at":         params.SentAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// marshalJSONColumn serializes by hand because map-based Updates bypass the
// model serializer.
func marshalJSONColumn(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// MarkResponded records the customer's decision, guarded on the request still
// being quoted. Exactly one of two concurrent responses can win.
func (r *repositoryImpl) MarkResponded(ctx context.Context, params markRespondedParams) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderRequest{}).
		Where("id = ? AND pricing_status = ?", params.RequestID, enums.PricingStatusQuoted).
		Updates(map[string]any{
			"pricing_status":    params.PricingStatus,
			"status":            params.Status,
			"rejection_reason":  params.RejectionReason,
			"quote_response_at": params.RespondedAt,
			"updated_at":        params.RespondedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
