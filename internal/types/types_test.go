package types

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestAssetExtractMap(t *testing.T) {
	a := AssetExtract{
		OperationDate:      time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC),
		Action:             ActionBuy,
		MarketType:         MarketFractional,
		RawNegotiationCode: "AZUL4F",
		AssetSpecification: "AZUL PN N2",
		UnitAmount:         2,
		UnitPrice:          decimal.RequireFromString("21.09"),
		TotalPrice:         decimal.RequireFromString("42.18"),
		QuotationFactor:    1,
	}

	want := map[string]any{
		"operation_date":       "2020-06-05",
		"action":               "buy",
		"market_type":          "fractional_share",
		"raw_negotiation_code": "AZUL4F",
		"asset_specification":  "AZUL PN N2",
		"unit_amount":          int64(2),
		"unit_price":           "21.09",
		"total_price":          "42.18",
		"quotation_factor":     int64(1),
	}
	if diff := cmp.Diff(want, a.Map()); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}

func TestToMaps(t *testing.T) {
	incomes := []PassiveIncome{
		{RawNegotiationCode: "ALUP11", IncomeType: IncomeDividend, GrossValue: decimal.RequireFromString("35.7")},
		{RawNegotiationCode: "KNRI11", IncomeType: IncomeYield},
	}

	maps := ToMaps(incomes)
	if len(maps) != 2 {
		t.Fatalf("Expected 2 maps, got %d", len(maps))
	}
	if maps[0]["gross_value"] != "35.70" {
		t.Errorf("Expected gross_value 35.70, got %v", maps[0]["gross_value"])
	}
	if maps[1]["income_type"] != "FII yield" {
		t.Errorf("Expected income_type FII yield, got %v", maps[1]["income_type"])
	}
}

func TestFormStateComplete(t *testing.T) {
	if (FormState{ViewState: "a", ViewStateGenerator: "b"}).Complete() {
		t.Error("Expected incomplete form state")
	}
	if !(FormState{ViewState: "a", ViewStateGenerator: "b", EventValidation: "c"}).Complete() {
		t.Error("Expected complete form state")
	}
}
