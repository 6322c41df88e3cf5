package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestData is the structured form of a customer's order request payload.
// The payload arrives as loosely-shaped JSON; it is parsed into this struct at
// the boundary and never accessed via untyped key lookup downstream.
type RequestData struct {
	OrderType    string          `json:"orderType"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// rawRequestData mirrors the loose wire shape: numbers may arrive as strings,
// the delivery date as a bare date, and most fields may be absent.
type rawRequestData struct {
	OrderType    string          `json:"orderType"`
	Quantity     json.RawMessage `json:"quantity"`
	TotalAmount  json.RawMessage `json:"totalAmount"`
	DeliveryDate string          `json:"deliveryDate"`
	Notes        string          `json:"notes"`
}

// ParseRequestData decodes raw request payload JSON, applying defaults for
// absent optional fields. OrderType is the only required field.
func ParseRequestData(raw json.RawMessage) (RequestData, error) {
	var parsed rawRequestData
	if len(raw) == 0 {
		return RequestData{}, fmt.Errorf("request data is empty")
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return RequestData{}, fmt.Errorf("decoding request data: %w", err)
	}

	data := RequestData{
		OrderType: strings.TrimSpace(parsed.OrderType),
		Notes:     strings.TrimSpace(parsed.Notes),
	}
	if data.OrderType == "" {
		return RequestData{}, fmt.Errorf("orderType is required")
	}

	qty, err := looseInt(parsed.Quantity)
	if err != nil {
		return RequestData{}, fmt.Errorf("invalid quantity: %w", err)
	}
	if qty < 0 {
		return RequestData{}, fmt.Errorf("quantity cannot be negative")
	}
	data.Quantity = qty

	amount, err := looseDecimal(parsed.TotalAmount)
	if err != nil {
		return RequestData{}, fmt.Errorf("invalid totalAmount: %w", err)
	}
	data.TotalAmount = amount

	if trimmed := strings.TrimSpace(parsed.DeliveryDate); trimmed != "" {
		parsedDate, err := parseLooseDate(trimmed)
		if err != nil {
			return RequestData{}, fmt.Errorf("invalid deliveryDate: %w", err)
		}
		data.DeliveryDate = &parsedDate
	}

	return data, nil
}

func looseInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected number or numeric string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

func looseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err == nil {
		return d, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero, fmt.Errorf("expected number or numeric string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseLooseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
