package cei

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"cei-crawler/internal/logger"
)

// Texts the login post answers with when the login did not go through.
var wrongCredentialsTexts = []string{
	"Usuário/Senha/Código de verificação inválido(a)",
	"Sua sessão expirou. Favor efetuar um novo acesso.",
	"não há dados disponíveis para serem consultados.",
}

const serverErrorText = "Desculpe-nos pelo transtorno. Ocorreu um erro inesperado."

const (
	ctxBody   = "body"
	ctxStatus = "status"
)

type SessionOptions struct {
	LoginURL  string
	PageURL   string
	Origin    string
	UserAgent string
	Username  string
	Password  string
	Timeout   time.Duration
	// Transport is shared between sessions so they reuse one connection pool.
	Transport http.RoundTripper
}

// Session is one logged-in browsing session bound to a single CEI page.
// It owns its cookie jar. Calls are serialized: the site keeps one page state
// per session, and the login happens at most once.
type Session struct {
	mu        sync.Mutex
	collector *colly.Collector
	loginURL  string
	pageURL   string
	origin    string
	referer   string
	loginRef  string
	username  string
	password  string
	loggedIn  bool
}

func NewSession(opts SessionOptions) (*Session, error) {
	referer, err := refererFor(opts.Origin, opts.PageURL)
	if err != nil {
		return nil, err
	}
	loginRef, err := refererFor(opts.Origin, opts.LoginURL)
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.UserAgent(opts.UserAgent),
	)
	if opts.Transport != nil {
		c.WithTransport(opts.Transport)
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c.SetCookieJar(jar)

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxBody, r.Body)
		r.Ctx.Put(ctxStatus, r.StatusCode)
	})

	return &Session{
		collector: c,
		loginURL:  opts.LoginURL,
		pageURL:   opts.PageURL,
		origin:    opts.Origin,
		referer:   referer,
		loginRef:  loginRef,
		username:  opts.Username,
		password:  opts.Password,
	}, nil
}

// refererFor puts the page path under the public origin, the way the site's
// own scripts address it.
func refererFor(origin, pageURL string) (string, error) {
	o, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	p, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	return o.ResolveReference(&url.URL{Path: p.Path}).String(), nil
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Session) formHeaders(referer string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	h.Set("Referer", referer)
	h.Set("Origin", s.origin)
	return h
}

func (s *Session) do(ctx context.Context, method, target string, form url.Values, hdr http.Header) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	logger.Debug(ctx, "CEI request", "method", method, "url", target)

	// per-request cancellation; callers hold s.mu
	s.collector.Context = ctx

	rctx := colly.NewContext()
	if err := s.collector.Request(method, target, body, rctx, hdr); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	status, _ := rctx.GetAny(ctxStatus).(int)
	payload, _ := rctx.GetAny(ctxBody).([]byte)
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, target, status)
	}
	return payload, nil
}

// Login walks the login form: fetch the page for its tokens, post the
// credentials, then look for the site's failure messages in the answer.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx)
}

func (s *Session) login(ctx context.Context) error {
	op := logger.StartOperation(ctx, "cei.Login", "page", s.pageURL)
	ctx = op.GetContext()

	if err := s.submitLogin(ctx); err != nil {
		op.EndWithError(err)
		return err
	}

	s.loggedIn = true
	op.End()
	logger.Info(ctx, "Logged in to CEI", "page", s.pageURL)
	return nil
}

func (s *Session) submitLogin(ctx context.Context) error {
	page, err := s.do(ctx, http.MethodGet, s.loginURL, nil, nil)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToLogin, err)
	}
	form, ok := hiddenInputs(doc)
	if !ok {
		return fmt.Errorf("%w: login form tokens not found", ErrUnableToLogin)
	}

	answer, err := s.do(ctx, http.MethodPost, s.loginURL, loginPayload(form, s.username, s.password), s.formHeaders(s.loginRef))
	if err != nil {
		return err
	}
	return checkLoginAnswer(string(answer))
}

func checkLoginAnswer(html string) error {
	for _, text := range wrongCredentialsTexts {
		if strings.Contains(html, text) {
			return fmt.Errorf("%w: Usuário/Senha inválido(a)", ErrUnableToLogin)
		}
	}
	if strings.Contains(html, serverErrorText) {
		return fmt.Errorf("%w: Parece que o site do CEI está fora do ar. Resposta do servidor: %s", ErrUnableToLogin, serverErrorText)
	}
	return nil
}

// ensureLogin must be called with s.mu held.
func (s *Session) ensureLogin(ctx context.Context) error {
	if s.loggedIn {
		return nil
	}
	return s.login(ctx)
}

// Get loads the session's page.
func (s *Session) Get(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLogin(ctx); err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodGet, s.pageURL, nil, nil)
}

// Post submits form to the session's page.
func (s *Session) Post(ctx context.Context, form url.Values) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLogin(ctx); err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodPost, s.pageURL, form, s.formHeaders(s.referer))
}
