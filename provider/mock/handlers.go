package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultAuthorizeHandler redirects back to redirect_uri with a code and the state.
func (p *Provider) defaultAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("client_id") != p.ClientID {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "Missing redirect URI", http.StatusBadRequest)
		return
	}
	redirectURL := fmt.Sprintf("%s?code=%s&state=%s", redirectURI, "test_authorization_code", url.QueryEscape(query.Get("state")))
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// defaultTokenHandler exchanges a code; client credentials are expected as form parameters.
func (p *Provider) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if p.Status != 0 {
		http.Error(w, "upstream failure", p.Status)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	code := r.FormValue("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}
	if r.FormValue("client_id") != p.ClientID || r.FormValue("client_secret") != p.ClientSecret {
		http.Error(w, "Invalid client credentials", http.StatusUnauthorized)
		return
	}
	p.mux.Lock()
	p.codes = append(p.codes, code)
	p.mux.Unlock()

	accessToken := p.AccessToken
	if accessToken == "" {
		var err error
		if accessToken, err = p.createJWT(p.ClientID, time.Hour); err != nil {
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": accessToken,
		"token_type":   "bearer",
		"scope":        r.FormValue("scope"),
	})
}

func (p *Provider) createJWT(clientID string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": p.server.URL,
		"sub": "test_subject",
		"aud": clientID,
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"typ": "access_token",
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.PrivateKey)
}
