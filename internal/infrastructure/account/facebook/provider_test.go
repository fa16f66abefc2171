package facebook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

func newTestServer(t *testing.T, profileStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fb-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "fb-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(profileStatus)
		_, _ = w.Write([]byte(`{"id":"10001","email":"ann@example.com","first_name":"Ann","last_name":"Lee"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(t *testing.T, server *httptest.Server) *Provider {
	t.Helper()

	provider, err := NewProvider(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://pickem.example.com/v1/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   server.URL + "/dialog/oauth",
			TokenURL:  server.URL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		GraphURL: server.URL,
		Logger:   logging.NewNop(),
	})
	require.NoError(t, err)
	return provider
}

func TestProviderAuthCodeURL(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, newTestServer(t, http.StatusOK))
	parsed, err := url.Parse(provider.AuthCodeURL("state-1"))
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "/dialog/oauth", parsed.Path)
	assert.Equal(t, "state-1", query.Get("state"))
	assert.Equal(t, "client", query.Get("client_id"))
	assert.Equal(t, "email", query.Get("scope"))
}

func TestProviderExchange(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, newTestServer(t, http.StatusOK))
	profile, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, usecase.ExternalProfile{
		Provider:    ProviderName,
		ExternalID:  "10001",
		Email:       "ann@example.com",
		FirstName:   "Ann",
		LastName:    "Lee",
		AccessToken: "fb-token",
	}, profile)
}

func TestProviderExchangeFailures(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, newTestServer(t, http.StatusOK))
	_, err := provider.Exchange(context.Background(), "bad-code")
	require.Error(t, err)

	failingProfile := newTestProvider(t, newTestServer(t, http.StatusInternalServerError))
	_, err = failingProfile.Exchange(context.Background(), "good-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestNewProviderValidation(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(Config{ClientID: "client", RedirectURL: "https://x"})
	require.Error(t, err)
	_, err = NewProvider(Config{ClientID: "client", ClientSecret: "secret"})
	require.Error(t, err)
}
