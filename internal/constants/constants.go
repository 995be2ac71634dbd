package constants

const (
	AuthGate = "authgate"

	QueryParamAuthorizationCode = "code"
	QueryParamRedirectURI       = "redirect_uri"
	QueryParamState             = "state"
	QueryParamToken             = "token"
)
