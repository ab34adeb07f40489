package cei

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cei-crawler/internal/logger"
	"cei-crawler/internal/types"
)

// page describes one of the two authenticated CEI pages a crawler drives.
type page struct {
	name         string
	startLabelID string
	endLabelID   string
	// setPeriod writes the page's date inputs for the broker drop-down postback
	setPeriod func(v url.Values, start, end string)
}

var assetsPage = page{
	name:         "assets",
	startLabelID: "ctl00_ContentPlaceHolder1_lblPeriodoInicialBolsa",
	endLabelID:   "ctl00_ContentPlaceHolder1_lblPeriodoFinalBolsa",
	setPeriod: func(v url.Values, start, end string) {
		v.Set(fieldAssetsStartDate, start)
		v.Set(fieldAssetsEndDate, end)
	},
}

var passiveIncomesPage = page{
	name:         "passive incomes",
	startLabelID: "ctl00_ContentPlaceHolder1_lblPeriodoInicial",
	endLabelID:   "ctl00_ContentPlaceHolder1_lblPeriodoFinal",
	setPeriod: func(v url.Values, _, end string) {
		v.Set(fieldIncomesDate, end)
	},
}

type baseCrawler struct {
	session *Session
	page    page
}

func (c *baseCrawler) Brokers(ctx context.Context) ([]types.Broker, error) {
	body, err := c.session.Get(ctx)
	if err != nil {
		return nil, err
	}
	return parseBrokers(body, c.page)
}

// BrokerAccounts returns a copy of b with its accounts filled in.
func (c *baseCrawler) BrokerAccounts(ctx context.Context, b types.Broker) (types.Broker, error) {
	body, err := c.session.Post(ctx, brokerAccountsPayload(c.page, b))
	if err != nil {
		return b, err
	}
	accounts, err := parseAccounts(body)
	if err != nil {
		return b, fmt.Errorf("broker %s accounts: %w", b.Value, err)
	}
	b.Accounts = accounts
	return b, nil
}

func (c *baseCrawler) BrokersWithAccounts(ctx context.Context) ([]types.Broker, error) {
	brokers, err := c.Brokers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range brokers {
		if brokers[i], err = c.BrokerAccounts(ctx, brokers[i]); err != nil {
			return nil, err
		}
		logger.Debug(ctx, "Broker accounts loaded", "page", c.page.name, "broker", brokers[i].Value, "accounts", len(brokers[i].Accounts))
	}
	return brokers, nil
}

type AssetsCrawler struct {
	baseCrawler
}

func NewAssetsCrawler(s *Session) *AssetsCrawler {
	return &AssetsCrawler{baseCrawler{session: s, page: assetsPage}}
}

// AssetsExtract queries the trades of one account. Zero start or end fall back
// to the broker's period.
func (c *AssetsCrawler) AssetsExtract(ctx context.Context, b types.Broker, a types.BrokerAccount, start, end time.Time) ([]types.AssetExtract, error) {
	startStr, endStr := b.Period.Start, b.Period.End
	if !start.IsZero() {
		startStr = FormatDate(start)
	}
	if !end.IsZero() {
		endStr = FormatDate(end)
	}

	body, err := c.session.Post(ctx, assetsExtractPayload(b, a, startStr, endStr))
	if err != nil {
		return nil, err
	}
	extracts, err := parseAssetsExtract(body)
	if err != nil {
		return nil, fmt.Errorf("broker %s account %s: %w", b.Value, a.ID, err)
	}
	return extracts, nil
}

// BrokersAssetsExtract concatenates the trades of the first account of every
// broker that has one, in broker order.
func (c *AssetsCrawler) BrokersAssetsExtract(ctx context.Context, brokers []types.Broker, start, end time.Time) ([]types.AssetExtract, error) {
	var all []types.AssetExtract
	for _, b := range brokers {
		if len(b.Accounts) == 0 {
			continue
		}
		extracts, err := c.AssetsExtract(ctx, b, b.Accounts[0], start, end)
		if err != nil {
			return nil, err
		}
		all = append(all, extracts...)
	}
	return all, nil
}

type PassiveIncomesCrawler struct {
	baseCrawler
}

func NewPassiveIncomesCrawler(s *Session) *PassiveIncomesCrawler {
	return &PassiveIncomesCrawler{baseCrawler{session: s, page: passiveIncomesPage}}
}

// incomesDate picks the date to query. The site answers nonsense for dates
// outside the broker's period, so those fall back to the period end.
func incomesDate(b types.Broker, date time.Time) string {
	if date.IsZero() {
		return b.Period.End
	}
	start, errStart := ParseDate(b.Period.Start)
	end, errEnd := ParseDate(b.Period.End)
	if errStart != nil || errEnd != nil {
		return b.Period.End
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) || day.After(end) {
		return b.Period.End
	}
	return FormatDate(day)
}

// PassiveIncomesExtract queries the first broker entry, which on this page
// stands for all brokers, through its first account (all accounts).
func (c *PassiveIncomesCrawler) PassiveIncomesExtract(ctx context.Context, date time.Time) ([]types.PassiveIncome, error) {
	brokers, err := c.BrokersWithAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	b := brokers[0]
	if len(b.Accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAccounts, b.Name)
	}

	body, err := c.session.Post(ctx, passiveIncomesPayload(b, b.Accounts[0], incomesDate(b, date)))
	if err != nil {
		return nil, err
	}
	return parsePassiveIncomes(body)
}
