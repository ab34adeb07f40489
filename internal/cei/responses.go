package cei

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"cei-crawler/internal/types"
)

const (
	brokersSelectID     = "ctl00_ContentPlaceHolder1_ddlAgentes"
	accountsSelectID    = "ctl00_ContentPlaceHolder1_ddlContas"
	invalidBrokerValue  = "-1"
	assetsTableID       = "ctl00_ContentPlaceHolder1_rptAgenteBolsa_ctl00_rptContaBolsa_ctl00_pnAtivosNegociados"
	incomesDocumentID   = "ctl00_ContentPlaceHolder1_updFiltro"
	unsupportedIncomeEv = "Eventos em Ativos Creditado"

	assetRowCells  = 10
	incomeRowCells = 9
)

var incomesBrokerTitleID = regexp.MustCompile(`ctl00_ContentPlaceHolder1_rptAgenteProventos.*lblAgenteProventos`)

func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func hiddenInputs(doc *goquery.Document) (types.FormState, bool) {
	f := types.FormState{
		ViewState:          doc.Find("#" + fieldViewState).AttrOr("value", ""),
		ViewStateGenerator: doc.Find("#" + fieldViewStateGenerator).AttrOr("value", ""),
		EventValidation:    doc.Find("#" + fieldEventValidation).AttrOr("value", ""),
	}
	return f, f.Complete()
}

// deltaHiddenFields reads the hiddenField entries of an ASP.NET partial
// postback answer, a sequence of "length|type|id|content|" records where
// length counts characters of content.
func deltaHiddenFields(body string) map[string]string {
	fields := map[string]string{}
	rest := []rune(body)

	next := func() (string, bool) {
		for i, r := range rest {
			if r == '|' {
				tok := string(rest[:i])
				rest = rest[i+1:]
				return tok, true
			}
		}
		return "", false
	}

	for len(rest) > 0 {
		lenTok, ok := next()
		if !ok {
			break
		}
		n, err := strconv.Atoi(lenTok)
		if err != nil || n < 0 {
			break
		}
		kind, ok := next()
		if !ok {
			break
		}
		id, ok := next()
		if !ok {
			break
		}
		if len(rest) < n+1 || rest[n] != '|' {
			break
		}
		content := string(rest[:n])
		rest = rest[n+1:]
		if kind == "hiddenField" {
			fields[id] = content
		}
	}
	return fields
}

// readFormState finds the page tokens either as hidden inputs of a full page
// or as hiddenField records of a partial postback.
func readFormState(doc *goquery.Document, body []byte) (types.FormState, error) {
	if f, ok := hiddenInputs(doc); ok {
		return f, nil
	}
	delta := deltaHiddenFields(string(body))
	f := types.FormState{
		ViewState:          delta[fieldViewState],
		ViewStateGenerator: delta[fieldViewStateGenerator],
		EventValidation:    delta[fieldEventValidation],
	}
	if !f.Complete() {
		return f, fmt.Errorf("%w: form tokens not found", ErrPageLayout)
	}
	return f, nil
}

func parseBrokers(body []byte, p page) ([]types.Broker, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	sel := doc.Find("select#" + brokersSelectID)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: brokers select not found on %s page", ErrPageLayout, p.name)
	}
	form, err := readFormState(doc, body)
	if err != nil {
		return nil, err
	}
	period := types.Period{
		Start: cellText(doc.Find("#" + p.startLabelID)),
		End:   cellText(doc.Find("#" + p.endLabelID)),
	}

	var brokers []types.Broker
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		value := opt.AttrOr("value", "")
		if value == invalidBrokerValue {
			return
		}
		brokers = append(brokers, types.Broker{
			Value:  value,
			Name:   cellText(opt),
			Period: period,
			Form:   form,
		})
	})
	return brokers, nil
}

// parseAccounts returns no accounts, and no error, when the broker has none.
func parseAccounts(body []byte) ([]types.BrokerAccount, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	sel := doc.Find("select#" + accountsSelectID)
	if sel.Length() == 0 {
		return nil, nil
	}
	form, err := readFormState(doc, body)
	if err != nil {
		return nil, err
	}

	var accounts []types.BrokerAccount
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		accounts = append(accounts, types.BrokerAccount{
			ID:   opt.AttrOr("value", ""),
			Form: form,
		})
	})
	return accounts, nil
}

func parseAssetsExtract(body []byte) ([]types.AssetExtract, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	var (
		extracts []types.AssetExtract
		rowErr   error
	)
	doc.Find("#" + assetsTableID + " tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() != assetRowCells {
			rowErr = fmt.Errorf("%w: asset row %d has %d cells", ErrPageLayout, i, cells.Length())
			return false
		}
		cell := func(n int) string { return cellText(cells.Eq(n)) }

		// cell 3 is the option expiry, not part of the record
		a, err := NewAssetExtract(AssetExtractFields{
			OperationDate:      cell(0),
			Action:             cell(1),
			MarketType:         cell(2),
			RawNegotiationCode: cell(4),
			AssetSpecification: cell(5),
			UnitAmount:         cell(6),
			UnitPrice:          cell(7),
			TotalPrice:         cell(8),
			QuotationFactor:    cell(9),
		})
		if err != nil {
			rowErr = fmt.Errorf("asset row %d: %w", i, err)
			return false
		}
		extracts = append(extracts, a)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return extracts, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func isSectionTitle(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "p" && hasClass(n, "title")
}

// nextTbody returns the first tbody after n in document order, or nil when
// another section title comes first.
func nextTbody(n *html.Node) *html.Node {
	cur := n
	for {
		if cur.FirstChild != nil {
			cur = cur.FirstChild
		} else {
			for cur != nil && cur.NextSibling == nil {
				cur = cur.Parent
			}
			if cur == nil {
				return nil
			}
			cur = cur.NextSibling
		}
		if cur.Type != html.ElementNode {
			continue
		}
		if cur.Data == "tbody" {
			return cur
		}
		if isSectionTitle(cur) {
			return nil
		}
	}
}

// parsePassiveIncomes reads every event section that follows a broker header.
// The section title ends with the event type ("... Provisionado").
func parsePassiveIncomes(body []byte) ([]types.PassiveIncome, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	root := doc.Find("#" + incomesDocumentID)
	if root.Length() == 0 {
		// partial postbacks carry the panel's inner html without its wrapper
		root = doc.Selection
	}

	var (
		incomes   []types.PassiveIncome
		parseErr  error
		inBrokers bool
	)
	root.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if incomesBrokerTitleID.MatchString(s.AttrOr("id", "")) {
			inBrokers = true
			return true
		}
		if !inBrokers || !isSectionTitle(s.Nodes[0]) {
			return true
		}

		title := cellText(s)
		if title == unsupportedIncomeEv {
			return true
		}
		words := strings.Fields(title)
		if len(words) == 0 {
			return true
		}
		eventType := words[len(words)-1]

		tbody := nextTbody(s.Nodes[0])
		if tbody == nil {
			return true
		}
		doc.FindNodes(tbody).Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() != incomeRowCells {
				parseErr = fmt.Errorf("%w: %q row %d has %d cells", ErrPageLayout, title, i, cells.Length())
				return false
			}
			cell := func(n int) string { return cellText(cells.Eq(n)) }

			p, err := NewPassiveIncome(PassiveIncomeFields{
				RawNegotiationName: cell(0),
				AssetSpecification: cell(1),
				RawNegotiationCode: cell(2),
				OperationDate:      cell(3),
				IncomeType:         cell(4),
				UnitAmount:         cell(5),
				QuotationFactor:    cell(6),
				GrossValue:         cell(7),
				NetValue:           cell(8),
				EventType:          eventType,
			})
			if err != nil {
				parseErr = fmt.Errorf("%q row %d: %w", title, i, err)
				return false
			}
			incomes = append(incomes, p)
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return incomes, nil
}
