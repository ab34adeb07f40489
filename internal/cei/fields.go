package cei

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cei-crawler/internal/types"
)

const dateLayout = "02/01/2006"

var extraSpaces = regexp.MustCompile(` +`)

// ParseAmount reads a money cell. Every '.' and ',' is dropped and the last two
// digits become the cents, so "1.485,12" and "1.485.12" both give 1485.12.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	neg := strings.HasPrefix(raw, "-")
	digits := strings.NewReplacer(".", "", ",", "").Replace(strings.TrimPrefix(raw, "-"))
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}

	value, err := decimal.NewFromString(digits[:len(digits)-2] + "." + digits[len(digits)-2:])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if neg {
		value = value.Neg()
	}
	return value, nil
}

// ParseAssetQuantity reads an integer cell with '.' thousands separators.
func ParseAssetQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ".", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return n, nil
}

// ParseIncomeQuantity reads a quantity printed with a decimal part ("1.100,00");
// the fraction is discarded.
func ParseIncomeQuantity(s string) (int64, error) {
	whole, _, _ := strings.Cut(strings.TrimSpace(s), ",")
	return ParseAssetQuantity(whole)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func CollapseSpaces(s string) string {
	return extraSpaces.ReplaceAllString(s, " ")
}

func parseFactor(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quotation factor %q", s)
	}
	return n, nil
}

// AssetExtractFields are the cell texts of one trade row.
type AssetExtractFields struct {
	OperationDate      string
	Action             string
	MarketType         string
	RawNegotiationCode string
	AssetSpecification string
	UnitAmount         string
	UnitPrice          string
	TotalPrice         string
	QuotationFactor    string
}

func NewAssetExtract(f AssetExtractFields) (types.AssetExtract, error) {
	var (
		a   types.AssetExtract
		err error
	)
	if a.Action, err = types.ParseAssetAction(f.Action); err != nil {
		return a, err
	}
	if a.MarketType, err = types.ParseMarketType(f.MarketType); err != nil {
		return a, err
	}
	if a.OperationDate, err = ParseDate(f.OperationDate); err != nil {
		return a, err
	}
	if a.UnitAmount, err = ParseAssetQuantity(f.UnitAmount); err != nil {
		return a, err
	}
	if a.UnitPrice, err = ParseAmount(f.UnitPrice); err != nil {
		return a, err
	}
	if a.TotalPrice, err = ParseAmount(f.TotalPrice); err != nil {
		return a, err
	}
	if a.QuotationFactor, err = parseFactor(f.QuotationFactor); err != nil {
		return a, err
	}
	a.RawNegotiationCode = f.RawNegotiationCode
	a.AssetSpecification = CollapseSpaces(f.AssetSpecification)
	return a, nil
}

// PassiveIncomeFields are the cell texts of one income row plus the event
// type taken from its section title.
type PassiveIncomeFields struct {
	RawNegotiationName string
	AssetSpecification string
	RawNegotiationCode string
	OperationDate      string
	IncomeType         string
	UnitAmount         string
	QuotationFactor    string
	GrossValue         string
	NetValue           string
	EventType          string
}

func NewPassiveIncome(f PassiveIncomeFields) (types.PassiveIncome, error) {
	var (
		p   types.PassiveIncome
		err error
	)
	if p.OperationDate, err = ParseDate(f.OperationDate); err != nil {
		return p, err
	}
	if p.UnitAmount, err = ParseIncomeQuantity(f.UnitAmount); err != nil {
		return p, err
	}
	if p.QuotationFactor, err = parseFactor(f.QuotationFactor); err != nil {
		return p, err
	}
	if p.GrossValue, err = ParseAmount(f.GrossValue); err != nil {
		return p, err
	}
	if p.NetValue, err = ParseAmount(f.NetValue); err != nil {
		return p, err
	}
	p.RawNegotiationName = f.RawNegotiationName
	p.AssetSpecification = CollapseSpaces(f.AssetSpecification)
	p.RawNegotiationCode = f.RawNegotiationCode
	p.EventType = types.ParseIncomeEventType(f.EventType)
	p.IncomeType = types.ParseIncomeType(f.IncomeType)
	return p, nil
}
