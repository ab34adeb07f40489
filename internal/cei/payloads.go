package cei

import (
	"net/url"

	"cei-crawler/internal/types"
)

// ASP.NET control names of the CEI forms.
const (
	fieldViewState          = "__VIEWSTATE"
	fieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	fieldEventValidation    = "__EVENTVALIDATION"
	fieldEventTarget        = "__EVENTTARGET"
	fieldEventArgument      = "__EVENTARGUMENT"
	fieldAsyncPost          = "__ASYNCPOST"

	fieldLoginScriptManager = "ctl00$ContentPlaceHolder1$smLoad"
	fieldLoginUser          = "ctl00$ContentPlaceHolder1$txtLogin"
	fieldLoginPassword      = "ctl00$ContentPlaceHolder1$txtSenha"
	fieldLoginButton        = "ctl00$ContentPlaceHolder1$btnLogar"

	fieldScriptManager = "ctl00$ContentPlaceHolder1$ToolkitScriptManager1"
	fieldBroker        = "ctl00$ContentPlaceHolder1$ddlAgentes"
	fieldAccount       = "ctl00$ContentPlaceHolder1$ddlContas"
	fieldQueryButton   = "ctl00$ContentPlaceHolder1$btnConsultar"

	fieldAssetsStartDate = "ctl00$ContentPlaceHolder1$txtDataDeBolsa"
	fieldAssetsEndDate   = "ctl00$ContentPlaceHolder1$txtDataAteBolsa"
	fieldIncomesDate     = "ctl00$ContentPlaceHolder1$txtData"

	loginPanelTrigger   = "ctl00$ContentPlaceHolder1$UpdatePanel1|ctl00$ContentPlaceHolder1$btnLogar"
	brokerFilterTrigger = "ctl00$ContentPlaceHolder1$updFiltro|ctl00$ContentPlaceHolder1$ddlAgentes"
	queryFilterTrigger  = "ctl00$ContentPlaceHolder1$updFiltro|ctl00$ContentPlaceHolder1$btnConsultar"

	// account value the site preselects before a broker is chosen
	defaultAccount = "0"
)

func setFormState(v url.Values, f types.FormState) {
	v.Set(fieldViewState, f.ViewState)
	v.Set(fieldViewStateGenerator, f.ViewStateGenerator)
	v.Set(fieldEventValidation, f.EventValidation)
}

func loginPayload(f types.FormState, username, password string) url.Values {
	v := url.Values{}
	v.Set(fieldLoginScriptManager, loginPanelTrigger)
	v.Set(fieldEventTarget, "")
	v.Set(fieldEventArgument, "")
	setFormState(v, f)
	v.Set(fieldLoginUser, username)
	v.Set(fieldLoginPassword, password)
	v.Set(fieldAsyncPost, "true")
	v.Set(fieldLoginButton, "Entrar")
	return v
}

// brokerAccountsPayload selects a broker in the drop-down, which makes the
// page post back with that broker's accounts.
func brokerAccountsPayload(p page, b types.Broker) url.Values {
	v := url.Values{}
	v.Set(fieldScriptManager, brokerFilterTrigger)
	v.Set(fieldEventTarget, fieldBroker)
	setFormState(v, b.Form)
	v.Set(fieldBroker, b.Value)
	v.Set(fieldAccount, defaultAccount)
	p.setPeriod(v, b.Period.Start, b.Period.End)
	v.Set(fieldAsyncPost, "true")
	return v
}

func queryPayload(b types.Broker, a types.BrokerAccount) url.Values {
	v := url.Values{}
	v.Set(fieldScriptManager, queryFilterTrigger)
	v.Set(fieldEventTarget, "")
	setFormState(v, a.Form)
	v.Set(fieldBroker, b.Value)
	v.Set(fieldAccount, a.ID)
	v.Set(fieldQueryButton, "Consultar")
	v.Set(fieldAsyncPost, "true")
	return v
}

func assetsExtractPayload(b types.Broker, a types.BrokerAccount, start, end string) url.Values {
	v := queryPayload(b, a)
	v.Set(fieldAssetsStartDate, start)
	v.Set(fieldAssetsEndDate, end)
	return v
}

func passiveIncomesPayload(b types.Broker, a types.BrokerAccount, date string) url.Values {
	v := queryPayload(b, a)
	v.Set(fieldIncomesDate, date)
	return v
}
