package cei

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"cei-crawler/internal/store"
)

const (
	testUser     = "12345678900"
	testPassword = "secret"

	sessionCookie = "ASP.NET_SessionId"

	loginPath   = "/CEI_Responsivo/login.aspx"
	assetsPath  = "/CEI_Responsivo/negociacao-de-ativos.aspx"
	incomesPath = "/CEI_Responsivo/ConsultarProventos.aspx"
)

// delta builds a partial postback answer from kind, id, content triples.
func delta(records ...string) string {
	var b strings.Builder
	for i := 0; i+2 < len(records); i += 3 {
		kind, id, content := records[i], records[i+1], records[i+2]
		fmt.Fprintf(&b, "%d|%s|%s|%s|", utf8.RuneCountInString(content), kind, id, content)
	}
	return b.String()
}

func hiddenInputsHTML(prefix string) string {
	return fmt.Sprintf(`<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="%[1]s_VS" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="%[1]s_GEN" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="%[1]s_EV" />`, prefix)
}

func deltaTokens(prefix string) []string {
	return []string{
		"hiddenField", "__EVENTTARGET", "",
		"hiddenField", "__VIEWSTATE", prefix + "_VS",
		"hiddenField", "__VIEWSTATEGENERATOR", prefix + "_GEN",
		"hiddenField", "__EVENTVALIDATION", prefix + "_EV",
	}
}

var loginPageHTML = `<html><body><form method="post" action="./login.aspx">
` + hiddenInputsHTML("LOGIN") + `
<input name="ctl00$ContentPlaceHolder1$txtLogin" type="text" id="ctl00_ContentPlaceHolder1_txtLogin" />
<input name="ctl00$ContentPlaceHolder1$txtSenha" type="password" id="ctl00_ContentPlaceHolder1_txtSenha" />
</form></body></html>`

func brokersPageHTML(prefix string, p page, options string) string {
	return `<html><body><form>
` + hiddenInputsHTML(prefix) + `
<div id="ctl00_ContentPlaceHolder1_updFiltro">
<select name="ctl00$ContentPlaceHolder1$ddlAgentes" id="ctl00_ContentPlaceHolder1_ddlAgentes">
<option value="-1">Selecione</option>
` + options + `
</select>
<span id="` + p.startLabelID + `">01/11/2019</span>
<span id="` + p.endLabelID + `">14/08/2020</span>
</div>
</form></body></html>`
}

const assetsBrokerOptions = `<option value="386">386 - RICO INVESTIMENTOS - GRUPO XP</option>
<option value="308">308 - CLEAR CORRETORA - GRUPO XP</option>`

const incomesBrokerOptions = `<option value="0">TODOS</option>`

func accountsDelta(prefix, accountID string) string {
	panel := `<select name="ctl00$ContentPlaceHolder1$ddlContas" id="ctl00_ContentPlaceHolder1_ddlContas">
<option value="` + accountID + `">` + accountID + `</option>
</select>`
	return "1|#||4|" + delta(append([]string{"updatePanel", "ctl00_ContentPlaceHolder1_updFiltro", panel}, deltaTokens(prefix)...)...)
}

func noAccountsDelta(prefix string) string {
	panel := `<p>Não há contas para o agente selecionado.</p>`
	return "1|#||4|" + delta(append([]string{"updatePanel", "ctl00_ContentPlaceHolder1_updFiltro", panel}, deltaTokens(prefix)...)...)
}

func assetRowHTML(cells ...string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>" + c + "</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

var assetsExtractHTML = `<html><body>
<div id="ctl00_ContentPlaceHolder1_rptAgenteBolsa_ctl00_rptContaBolsa_ctl00_pnAtivosNegociados">
<table><thead><tr><th>Data do Negócio</th></tr></thead>
<tbody>
` + assetRowHTML("05/06/2020", "C", "Merc. Fracionário", "", "AZUL4F", "AZUL        PN      N2", "2", "21,09", "42,18", "1") + `
` + assetRowHTML("10/06/2020", "V", "Mercado a Vista", "", "ALUP11", "ALUPAR      UNT      N2", "100", "29,00", "2.900,00", "1") + `
</tbody>
<tfoot><tr><td>Total</td></tr></tfoot>
</table>
</div>
</body></html>`

var passiveIncomesHTML = `<html><body>
<div id="ctl00_ContentPlaceHolder1_updFiltro">
<span id="ctl00_ContentPlaceHolder1_rptAgenteProventos_ctl00_lblAgenteProventos">386 - RICO INVESTIMENTOS</span>
<div>
<p class="title">Ações Provisionado</p>
<table><tbody>
` + assetRowHTML("ALUPAR", "UNT      N2", "ALUP11", "15/06/2020", "DIVIDENDO", "2,00", "1", "35,70", "35,70") + `
</tbody></table>
</div>
<div>
<p class="title">Eventos em Ativos Creditado</p>
<table><tbody>
` + assetRowHTML("ALUPAR", "UNT N2", "ALUP11", "DESDOBRAMENTO", "1") + `
</tbody></table>
</div>
<div>
<p class="title">Ações Creditado</p>
<table><tbody>
` + assetRowHTML("ITAUSA", "PN      N1", "ITSA4", "01/07/2020", "JUROS SOBRE CAPITAL PRÓPRIO", "1.100,00", "1", "22,00", "18,70") + `
</tbody></table>
</div>
</div>
</body></html>`

type recordedRequest struct {
	Method string
	Path   string
	Form   url.Values
	Header http.Header
}

// fakeSite serves the login, assets and passive incomes pages the way CEI
// does, recording every request.
type fakeSite struct {
	t      *testing.T
	server *httptest.Server

	// loginAnswer replaces the successful login answer when set
	loginAnswer string
	// dropLoginTokens serves a login page without its hidden inputs
	dropLoginTokens bool

	mu       sync.Mutex
	requests []recordedRequest
	logins   int
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, site.login)
	mux.HandleFunc(assetsPath, site.authenticated(site.assets))
	mux.HandleFunc(incomesPath, site.authenticated(site.incomes))
	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (f *fakeSite) config() *store.Config {
	cfg := store.DefaultConfig()
	cfg.CEI.LoginURL = f.server.URL + loginPath
	cfg.CEI.AssetsURL = f.server.URL + assetsPath
	cfg.CEI.PassiveIncomesURL = f.server.URL + incomesPath
	cfg.CEI.Origin = f.server.URL
	cfg.CEI.TimeoutSeconds = 5
	return cfg
}

func (f *fakeSite) sessionOptions(pagePath string) SessionOptions {
	cfg := f.config()
	return SessionOptions{
		LoginURL:  cfg.CEI.LoginURL,
		PageURL:   f.server.URL + pagePath,
		Origin:    cfg.CEI.Origin,
		UserAgent: cfg.CEI.UserAgent,
		Username:  testUser,
		Password:  testPassword,
		Timeout:   cfg.Timeout(),
	}
}

func (f *fakeSite) record(r *http.Request) url.Values {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parse form: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Form:   r.PostForm,
		Header: r.Header.Clone(),
	})
	return r.PostForm
}

// posts returns the recorded POSTs to path.
func (f *fakeSite) posts(path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == http.MethodPost && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSite) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSite) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func writeDelta(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, body)
}

func (f *fakeSite) login(w http.ResponseWriter, r *http.Request) {
	form := f.record(r)
	if r.Method == http.MethodGet {
		if f.dropLoginTokens {
			writeHTML(w, "<html><body><form></form></body></html>")
			return
		}
		writeHTML(w, loginPageHTML)
		return
	}

	if form.Get(fieldViewState) != "LOGIN_VS" || form.Get(fieldEventValidation) != "LOGIN_EV" {
		writeDelta(w, "Sua sessão expirou. Favor efetuar um novo acesso.")
		return
	}
	if f.loginAnswer != "" {
		writeDelta(w, f.loginAnswer)
		return
	}
	if form.Get(fieldLoginUser) != testUser || form.Get(fieldLoginPassword) != testPassword {
		writeDelta(w, "1|#||4|"+delta("updatePanel", "ctl00_ContentPlaceHolder1_UpdatePanel1", wrongCredentialsTexts[0]))
		return
	}

	f.mu.Lock()
	f.logins++
	n := f.logins
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: fmt.Sprintf("session-%d", n), Path: "/"})
	writeDelta(w, "1|#||4|0|pageRedirect||%2fCEI_Responsivo%2fhome.aspx|")
}

func (f *fakeSite) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(sessionCookie); err != nil {
			f.record(r)
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeSite) assets(w http.ResponseWriter, r *http.Request) {
	form := f.record(r)
	if r.Method == http.MethodGet {
		writeHTML(w, brokersPageHTML("ASSETS", assetsPage, assetsBrokerOptions))
		return
	}

	switch {
	case form.Get(fieldEventTarget) == fieldBroker:
		if form.Get(fieldViewState) != "ASSETS_VS" {
			http.Error(w, "bad view state", http.StatusInternalServerError)
			return
		}
		if form.Get(fieldBroker) == "386" {
			writeDelta(w, accountsDelta("ACC386", "12345"))
			return
		}
		writeDelta(w, noAccountsDelta("ACC"+form.Get(fieldBroker)))
	case form.Get(fieldQueryButton) == "Consultar":
		if form.Get(fieldViewState) != "ACC386_VS" {
			http.Error(w, "bad view state", http.StatusInternalServerError)
			return
		}
		writeHTML(w, assetsExtractHTML)
	default:
		http.Error(w, "unexpected post", http.StatusBadRequest)
	}
}

func (f *fakeSite) incomes(w http.ResponseWriter, r *http.Request) {
	form := f.record(r)
	if r.Method == http.MethodGet {
		writeHTML(w, brokersPageHTML("INCOMES", passiveIncomesPage, incomesBrokerOptions))
		return
	}

	switch {
	case form.Get(fieldEventTarget) == fieldBroker:
		writeDelta(w, accountsDelta("ACC0", "0"))
	case form.Get(fieldQueryButton) == "Consultar":
		if form.Get(fieldViewState) != "ACC0_VS" {
			http.Error(w, "bad view state", http.StatusInternalServerError)
			return
		}
		writeHTML(w, passiveIncomesHTML)
	default:
		http.Error(w, "unexpected post", http.StatusBadRequest)
	}
}
