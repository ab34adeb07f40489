package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type AssetAction string

const (
	ActionBuy  AssetAction = "buy"
	ActionSell AssetAction = "sell"
)

type MarketType string

const (
	MarketFractional MarketType = "fractional_share"
	MarketUnit       MarketType = "unit"
	MarketOptions    MarketType = "options"
)

type IncomeType string

const (
	IncomeDividend IncomeType = "dividend"
	IncomeJCP      IncomeType = "jcp"
	IncomeYield    IncomeType = "FII yield"
)

type IncomeEventType string

const (
	EventProvisioned IncomeEventType = "provisioned"
	EventCredited    IncomeEventType = "credited"
)

// Code tables keyed by the literal text the site prints in each column.
var (
	AssetActionCodes = map[string]AssetAction{
		"C": ActionBuy,
		"V": ActionSell,
	}

	MarketTypeCodes = map[string]MarketType{
		"Merc. Fracionário":   MarketFractional,
		"Mercado a Vista":     MarketUnit,
		"Opção de Compra":     MarketOptions,
		"Opção de Venda":      MarketOptions,
		"Exercicio de Opções": MarketOptions,
	}

	IncomeTypeCodes = map[string]IncomeType{
		"DIVIDENDO":                   IncomeDividend,
		"JUROS SOBRE CAPITAL PRÓPRIO": IncomeJCP,
		"RENDIMENTO":                  IncomeYield,
	}

	IncomeEventTypeCodes = map[string]IncomeEventType{
		"Provisionado": EventProvisioned,
		"Creditado":    EventCredited,
	}
)

// normalizeCode trims the cell text and folds it to NFC so that accented
// labels match whatever composition the page was served with.
func normalizeCode(code string) string {
	return norm.NFC.String(strings.TrimSpace(code))
}

func ParseAssetAction(code string) (AssetAction, error) {
	if v, ok := AssetActionCodes[normalizeCode(code)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown asset action code %q", code)
}

func ParseMarketType(code string) (MarketType, error) {
	if v, ok := MarketTypeCodes[normalizeCode(code)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown market type %q", code)
}

// ParseIncomeType returns the empty IncomeType for labels it does not know.
func ParseIncomeType(code string) IncomeType {
	return IncomeTypeCodes[normalizeCode(code)]
}

// ParseIncomeEventType returns the empty IncomeEventType for labels it does not know.
func ParseIncomeEventType(code string) IncomeEventType {
	return IncomeEventTypeCodes[normalizeCode(code)]
}
