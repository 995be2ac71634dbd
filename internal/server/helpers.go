package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/constants"
	"github.com/plumeworks/authgate/internal/logging"
	"github.com/plumeworks/authgate/internal/provider"
)

func baseURL(r *http.Request) string {
	return fmt.Sprintf("https://%s", r.Host)
}

func callbackURL(r *http.Request, providerName string) string {
	return fmt.Sprintf("%s/callback/%s", baseURL(r), providerName)
}

func authorizationCode(r *http.Request) string {
	return r.URL.Query().Get(constants.QueryParamAuthorizationCode)
}

func stateParam(r *http.Request) string {
	return r.URL.Query().Get(constants.QueryParamState)
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func oauth2Config(r *http.Request, p provider.Interface, pc *config.ProviderConfig) *oauth2.Config {
	c := p.OAuth2Config()
	c.ClientID = pc.ClientID
	c.ClientSecret = pc.ClientSecret
	c.RedirectURL = callbackURL(r, p.Name())
	return c
}

func respondWWWAuthenticate(w http.ResponseWriter, r *http.Request) {
	wwwAuthenticate := fmt.Sprintf(`Bearer realm="%s"`, constants.AuthGate)
	w.Header().Set("WWW-Authenticate", wwwAuthenticate)
	const status = http.StatusUnauthorized
	http.Error(w, http.StatusText(status), status)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}
