package cei

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"cei-crawler/internal/interfaces"
	"cei-crawler/internal/store"
	"cei-crawler/internal/types"
)

// Crawler is the entry point to a CEI login. The assets and passive incomes
// pages each get their own session, created on first use. It is safe for
// concurrent use; requests to the same page run one at a time.
type Crawler struct {
	cfg       *store.Config
	username  string
	password  string
	transport *http.Transport

	mu      sync.Mutex
	assets  *AssetsCrawler
	incomes *PassiveIncomesCrawler
}

var _ interfaces.Crawler = (*Crawler)(nil)

func New(cfg *store.Config, username, password string) (*Crawler, error) {
	if username == "" || password == "" {
		return nil, ErrBlankCredentials
	}
	if cfg == nil {
		cfg = store.DefaultConfig()
	}
	return &Crawler{
		cfg:       cfg,
		username:  username,
		password:  password,
		transport: newTransport(cfg),
	}, nil
}

func newTransport(cfg *store.Config) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = cfg.CEI.MaxConnections
	t.MaxIdleConnsPerHost = cfg.CEI.MaxConnections
	if cfg.CEI.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in through config
	}
	return t
}

func (c *Crawler) newSession(pageURL string) (*Session, error) {
	return NewSession(SessionOptions{
		LoginURL:  c.cfg.CEI.LoginURL,
		PageURL:   pageURL,
		Origin:    c.cfg.CEI.Origin,
		UserAgent: c.cfg.CEI.UserAgent,
		Username:  c.username,
		Password:  c.password,
		Timeout:   c.cfg.Timeout(),
		Transport: c.transport,
	})
}

func (c *Crawler) assetsCrawler() (*AssetsCrawler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assets == nil {
		s, err := c.newSession(c.cfg.CEI.AssetsURL)
		if err != nil {
			return nil, err
		}
		c.assets = NewAssetsCrawler(s)
	}
	return c.assets, nil
}

func (c *Crawler) passiveIncomesCrawler() (*PassiveIncomesCrawler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incomes == nil {
		s, err := c.newSession(c.cfg.CEI.PassiveIncomesURL)
		if err != nil {
			return nil, err
		}
		c.incomes = NewPassiveIncomesCrawler(s)
	}
	return c.incomes, nil
}

// Brokers lists the brokers of the assets page with their accounts.
func (c *Crawler) Brokers(ctx context.Context) ([]types.Broker, error) {
	crawler, err := c.assetsCrawler()
	if err != nil {
		return nil, err
	}
	return crawler.BrokersWithAccounts(ctx)
}

func (c *Crawler) AssetsExtract(ctx context.Context, q interfaces.AssetsQuery) ([]types.AssetExtract, error) {
	crawler, err := c.assetsCrawler()
	if err != nil {
		return nil, err
	}

	brokers := q.Brokers
	if brokers == nil {
		if brokers, err = crawler.BrokersWithAccounts(ctx); err != nil {
			return nil, err
		}
	}
	return crawler.BrokersAssetsExtract(ctx, brokers, q.Start, q.End)
}

func (c *Crawler) PassiveIncomesExtract(ctx context.Context, date time.Time) ([]types.PassiveIncome, error) {
	crawler, err := c.passiveIncomesCrawler()
	if err != nil {
		return nil, err
	}
	return crawler.PassiveIncomesExtract(ctx, date)
}

// Close drops the idle pooled connections. The crawler stays usable.
func (c *Crawler) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
