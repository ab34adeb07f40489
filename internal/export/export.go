package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/jedib0t/go-pretty/v6/table"

	"cei-crawler/internal/types"
)

// Format specifies how an extract is written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

func (f Format) extension() string {
	if f == FormatTable {
		return "txt"
	}
	return string(f)
}

// Extract is a list of records ready to be written in any Format.
// Records are the plain key-value maps of the records; Columns orders them.
type Extract struct {
	Name    string
	Columns []string
	Records []map[string]any

	// rows holds the csv-tagged structs gocsv marshals
	rows any
}

type assetRow struct {
	OperationDate      string `csv:"operation_date"`
	Action             string `csv:"action"`
	MarketType         string `csv:"market_type"`
	RawNegotiationCode string `csv:"raw_negotiation_code"`
	AssetSpecification string `csv:"asset_specification"`
	UnitAmount         int64  `csv:"unit_amount"`
	UnitPrice          string `csv:"unit_price"`
	TotalPrice         string `csv:"total_price"`
	QuotationFactor    int64  `csv:"quotation_factor"`
}

type incomeRow struct {
	RawNegotiationName string `csv:"raw_negotiation_name"`
	AssetSpecification string `csv:"asset_specification"`
	RawNegotiationCode string `csv:"raw_negotiation_code"`
	OperationDate      string `csv:"operation_date"`
	EventType          string `csv:"event_type"`
	IncomeType         string `csv:"income_type"`
	UnitAmount         int64  `csv:"unit_amount"`
	QuotationFactor    int64  `csv:"quotation_factor"`
	GrossValue         string `csv:"gross_value"`
	NetValue           string `csv:"net_value"`
}

type brokerRow struct {
	Value       string `csv:"value"`
	Name        string `csv:"name"`
	PeriodStart string `csv:"period_start"`
	PeriodEnd   string `csv:"period_end"`
	Accounts    string `csv:"accounts"`
}

func Assets(extracts []types.AssetExtract) Extract {
	rows := make([]*assetRow, 0, len(extracts))
	for _, a := range extracts {
		rows = append(rows, &assetRow{
			OperationDate:      a.OperationDate.Format(time.DateOnly),
			Action:             string(a.Action),
			MarketType:         string(a.MarketType),
			RawNegotiationCode: a.RawNegotiationCode,
			AssetSpecification: a.AssetSpecification,
			UnitAmount:         a.UnitAmount,
			UnitPrice:          a.UnitPrice.StringFixed(2),
			TotalPrice:         a.TotalPrice.StringFixed(2),
			QuotationFactor:    a.QuotationFactor,
		})
	}
	return Extract{
		Name: "assets",
		Columns: []string{
			"operation_date", "action", "market_type", "raw_negotiation_code", "asset_specification",
			"unit_amount", "unit_price", "total_price", "quotation_factor",
		},
		Records: types.ToMaps(extracts),
		rows:    rows,
	}
}

func PassiveIncomes(incomes []types.PassiveIncome) Extract {
	rows := make([]*incomeRow, 0, len(incomes))
	for _, p := range incomes {
		rows = append(rows, &incomeRow{
			RawNegotiationName: p.RawNegotiationName,
			AssetSpecification: p.AssetSpecification,
			RawNegotiationCode: p.RawNegotiationCode,
			OperationDate:      p.OperationDate.Format(time.DateOnly),
			EventType:          string(p.EventType),
			IncomeType:         string(p.IncomeType),
			UnitAmount:         p.UnitAmount,
			QuotationFactor:    p.QuotationFactor,
			GrossValue:         p.GrossValue.StringFixed(2),
			NetValue:           p.NetValue.StringFixed(2),
		})
	}
	return Extract{
		Name: "passive_incomes",
		Columns: []string{
			"raw_negotiation_name", "asset_specification", "raw_negotiation_code", "operation_date",
			"event_type", "income_type", "unit_amount", "quotation_factor", "gross_value", "net_value",
		},
		Records: types.ToMaps(incomes),
		rows:    rows,
	}
}

func Brokers(brokers []types.Broker) Extract {
	rows := make([]*brokerRow, 0, len(brokers))
	records := make([]map[string]any, 0, len(brokers))
	for _, b := range brokers {
		ids := make([]string, 0, len(b.Accounts))
		for _, a := range b.Accounts {
			ids = append(ids, a.ID)
		}
		rows = append(rows, &brokerRow{
			Value:       b.Value,
			Name:        b.Name,
			PeriodStart: b.Period.Start,
			PeriodEnd:   b.Period.End,
			Accounts:    strings.Join(ids, " "),
		})
		records = append(records, map[string]any{
			"value":        b.Value,
			"name":         b.Name,
			"period_start": b.Period.Start,
			"period_end":   b.Period.End,
			"accounts":     ids,
		})
	}
	return Extract{
		Name:    "brokers",
		Columns: []string{"value", "name", "period_start", "period_end", "accounts"},
		Records: records,
		rows:    rows,
	}
}

// Render writes e to w in the given format
func Render(w io.Writer, e Extract, format Format) error {
	switch format {
	case FormatTable:
		return renderTable(w, e)
	case FormatJSON:
		return renderJSON(w, e)
	case FormatCSV:
		return gocsv.Marshal(e.rows, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func renderJSON(w io.Writer, e Extract) error {
	data, err := json.MarshalIndent(e.Records, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderTable(w io.Writer, e Extract) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(e.Columns))
	for _, c := range e.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for _, rec := range e.Records {
		row := make(table.Row, 0, len(e.Columns))
		for _, c := range e.Columns {
			v := rec[c]
			if list, ok := v.([]string); ok {
				v = strings.Join(list, " ")
			}
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d records", len(e.Records))})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Exporter writes extracts into an output directory
type Exporter struct {
	outputDir string
	now       func() time.Time
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// SaveExtract writes e to a timestamped file and returns its path
func (x *Exporter) SaveExtract(e Extract, format Format) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, e, format); err != nil {
		return "", err
	}

	if err := os.MkdirAll(x.outputDir, 0755); err != nil {
		return "", err
	}

	timestamp := x.now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.%s", e.Name, timestamp, format.extension())
	path := filepath.Join(x.outputDir, filename)

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}
