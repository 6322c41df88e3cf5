package requests

import (
	"github.com/shopspring/decimal"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
)

// PricingSummary is the quote breakdown shown alongside a request. All
// figures are recomputed from the stored row on every read, never cached.
type PricingSummary struct {
	OriginalAmount      decimal.Decimal `json:"original_amount"`
	TotalServiceCharges decimal.Decimal `json:"total_service_charges"`
	FinalAmount         decimal.Decimal `json:"final_amount"`
	BalanceDue          decimal.Decimal `json:"balance_due"`
}

// SummarizePricing computes the quote breakdown for a request.
//
// The admin total is an independent override, not a derived figure: when set
// it becomes the final amount even when it disagrees with original plus
// charges. The breakdown lines stay as entered so the customer sees both the
// itemization and the price that actually applies.
func SummarizePricing(request *models.OrderRequest) PricingSummary {
	summary := PricingSummary{
		OriginalAmount:      request.RequestData.TotalAmount,
		TotalServiceCharges: request.ServiceCharges.Total(),
	}
	if request.AdminTotalAmount != nil {
		summary.FinalAmount = *request.AdminTotalAmount
	} else {
		summary.FinalAmount = summary.OriginalAmount
	}
	summary.BalanceDue = summary.FinalAmount
	return summary
}
