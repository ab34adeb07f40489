package cei

import "errors"

var (
	ErrBlankCredentials = errors.New("Username ou password não podem estar em branco!")

	// ErrUnableToLogin covers bad credentials, an expired session, a login page
	// without its form tokens, and the site's generic server error page.
	ErrUnableToLogin = errors.New("unable to login to CEI")

	// ErrPageLayout means a page no longer has the elements the parsers expect.
	ErrPageLayout = errors.New("unexpected CEI page layout")

	ErrNoBrokers  = errors.New("no brokers available")
	ErrNoAccounts = errors.New("broker has no accounts")
)
