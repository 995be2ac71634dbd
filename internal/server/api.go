package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/constants"
	"github.com/plumeworks/authgate/internal/logging"
	"github.com/plumeworks/authgate/internal/provider"
	"github.com/plumeworks/authgate/internal/state"
	"github.com/plumeworks/authgate/internal/token"
)

const (
	// Authorization-code round-trip endpoints.
	pathLogin    = "/login/{provider}"
	pathCallback = "/callback/{provider}"

	// Bearer-token protected endpoints.
	pathUserInfo = "/userinfo"
	pathUpload   = "/upload"

	// Public signing keys for downstream verification.
	pathJWKS = "/.well-known/jwks.json"
)

// LoginState is the correlation payload bound to each outbound
// authorization redirect. The provider name pins the callback to the flow
// that initiated it; the redirect URL is where the user lands with the
// issued token.
type LoginState struct {
	Provider    string `json:"provider"`
	RedirectURL string `json:"redirectURL"`
}

type contextKeyProfile struct{}

// ProfileFromContext returns the verified user profile stored by the auth
// middleware.
func ProfileFromContext(ctx context.Context) (token.Profile, bool) {
	p, ok := ctx.Value(contextKeyProfile{}).(token.Profile)
	return p, ok
}

func newAPI(ti token.Issuer, providers map[string]provider.Interface, conf *config.Config,
	st state.Store[LoginState], nowFunc func() time.Time) http.Handler {

	mux := http.NewServeMux()

	requireAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			iss := baseURL(r)
			aud := baseURL(r)
			profile, ok := ti.Verify(bearerToken(r), nowFunc(), iss, aud)
			if !ok {
				respondWWWAuthenticate(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyProfile{}, profile)
			next(w, r.WithContext(ctx))
		}
	}

	lookupProvider := func(w http.ResponseWriter, r *http.Request) (provider.Interface, *config.ProviderConfig, bool) {
		name := r.PathValue("provider")
		p, ok := providers[name]
		if !ok {
			http.Error(w, fmt.Sprintf("Unknown provider '%s'", name), http.StatusNotFound)
			return nil, nil, false
		}
		pc, ok := conf.Provider(name)
		if !ok {
			http.Error(w, fmt.Sprintf("Unknown provider '%s'", name), http.StatusNotFound)
			return nil, nil, false
		}
		return p, pc, true
	}

	mux.HandleFunc("GET "+pathLogin, func(w http.ResponseWriter, r *http.Request) {
		l := logging.FromRequest(r)

		p, pc, ok := lookupProvider(w, r)
		if !ok {
			return
		}

		redirectURI := r.URL.Query().Get(constants.QueryParamRedirectURI)
		if !conf.Gateway.ValidateRedirectURL(redirectURI) {
			l.WithField(constants.QueryParamRedirectURI, redirectURI).Error("redirect URL rejected")
			http.Error(w, fmt.Sprintf("Invalid %s", constants.QueryParamRedirectURI), http.StatusBadRequest)
			return
		}

		stateToken, err := st.Create(r.Context(), LoginState{
			Provider:    p.Name(),
			RedirectURL: redirectURI,
		})
		if err != nil {
			l.WithError(err).Error("failed to generate state")
			http.Error(w, "Failed to generate state", http.StatusInternalServerError)
			return
		}

		oauth2Conf := oauth2Config(r, p, pc)
		http.Redirect(w, r, oauth2Conf.AuthCodeURL(stateToken), http.StatusSeeOther)
	})

	mux.HandleFunc("GET "+pathCallback, func(w http.ResponseWriter, r *http.Request) {
		l := logging.FromRequest(r)

		p, pc, ok := lookupProvider(w, r)
		if !ok {
			return
		}

		// Consume the state exactly once. Unknown, already-consumed and
		// expired tokens are indistinguishable on purpose.
		ls, ok := st.GetAndDelete(r.Context(), stateParam(r))
		if !ok || ls.Provider != p.Name() {
			l.Error("state validation failed")
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		// Exchange authorization code for provider tokens.
		oauth2Conf := oauth2Config(r, p, pc)
		oauth2Token, err := oauth2Conf.Exchange(r.Context(), authorizationCode(r))
		if err != nil {
			l.WithError(err).Error("failed to exchange authorization code for tokens")
			http.Error(w, "Failed to exchange authorization code for tokens", http.StatusBadRequest)
			return
		}

		user, err := p.FetchUser(r.Context(), oauth2.StaticTokenSource(oauth2Token))
		if err != nil {
			l.WithError(err).Error("failed to fetch user")
			http.Error(w, "Failed to fetch user", http.StatusBadRequest)
			return
		}

		// Issue an access token in the gateway realm.
		iss := baseURL(r)
		aud := baseURL(r)
		accessToken, _, err := ti.Issue(iss, aud, nowFunc(), token.Profile{
			Login:     user.Login,
			Email:     user.Email,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		})
		if err != nil {
			l.WithError(err).Error("failed to issue access token")
			http.Error(w, "Failed to issue access token", http.StatusInternalServerError)
			return
		}

		redirectParams := url.Values{}
		redirectParams.Set(constants.QueryParamToken, accessToken)
		redirectURL := fmt.Sprintf("%s?%s", ls.RedirectURL, redirectParams.Encode())

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	})

	mux.HandleFunc("GET "+pathUserInfo, requireAuth(func(w http.ResponseWriter, r *http.Request) {
		profile, _ := ProfileFromContext(r.Context())
		respondJSON(w, r, http.StatusOK, profile)
	}))

	mux.HandleFunc("POST "+pathUpload, requireAuth(newUploadHandler(&conf.Upload)))

	mux.HandleFunc("GET "+pathJWKS, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]any{
			"keys": ti.PublicKeys(nowFunc()),
		})
	})

	return mux
}
