package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormState holds the ASP.NET hidden fields that must be echoed back on the
// next form post of the same page.
type FormState struct {
	ViewState          string
	ViewStateGenerator string
	EventValidation    string
}

// Complete reports whether every token is present.
func (f FormState) Complete() bool {
	return f.ViewState != "" && f.ViewStateGenerator != "" && f.EventValidation != ""
}

// Period is the date window a page accepts, formatted DD/MM/YYYY as shown by the site.
type Period struct {
	Start string
	End   string
}

type Broker struct {
	Value    string
	Name     string
	Period   Period
	Form     FormState
	Accounts []BrokerAccount
}

type BrokerAccount struct {
	ID   string
	Form FormState
}

// AssetExtract is one row of the trade history table.
type AssetExtract struct {
	OperationDate      time.Time
	Action             AssetAction
	MarketType         MarketType
	RawNegotiationCode string
	AssetSpecification string
	UnitAmount         int64
	UnitPrice          decimal.Decimal
	TotalPrice         decimal.Decimal
	QuotationFactor    int64
}

func (a AssetExtract) Map() map[string]any {
	return map[string]any{
		"operation_date":       a.OperationDate.Format(time.DateOnly),
		"action":               string(a.Action),
		"market_type":          string(a.MarketType),
		"raw_negotiation_code": a.RawNegotiationCode,
		"asset_specification":  a.AssetSpecification,
		"unit_amount":          a.UnitAmount,
		"unit_price":           a.UnitPrice.StringFixed(2),
		"total_price":          a.TotalPrice.StringFixed(2),
		"quotation_factor":     a.QuotationFactor,
	}
}

// PassiveIncome is one dividend-like event, either provisioned or credited.
type PassiveIncome struct {
	RawNegotiationName string
	AssetSpecification string
	RawNegotiationCode string
	OperationDate      time.Time
	EventType          IncomeEventType
	UnitAmount         int64
	QuotationFactor    int64
	GrossValue         decimal.Decimal
	NetValue           decimal.Decimal
	IncomeType         IncomeType
}

func (p PassiveIncome) Map() map[string]any {
	return map[string]any{
		"raw_negotiation_name": p.RawNegotiationName,
		"asset_specification":  p.AssetSpecification,
		"raw_negotiation_code": p.RawNegotiationCode,
		"operation_date":       p.OperationDate.Format(time.DateOnly),
		"event_type":           string(p.EventType),
		"unit_amount":          p.UnitAmount,
		"quotation_factor":     p.QuotationFactor,
		"gross_value":          p.GrossValue.StringFixed(2),
		"net_value":            p.NetValue.StringFixed(2),
		"income_type":          string(p.IncomeType),
	}
}

// Mappable is implemented by records that can be flattened into plain key-value maps.
type Mappable interface {
	Map() map[string]any
}

// ToMaps flattens a slice of records.
func ToMaps[T Mappable](records []T) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.Map())
	}
	return out
}
