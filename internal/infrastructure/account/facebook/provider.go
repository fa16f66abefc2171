package facebook

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	ProviderName    = "facebook"
	defaultGraphURL = "https://graph.facebook.com"
	defaultTimeout  = 10 * time.Second
	profileFields   = "id,email,first_name,last_name"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// Endpoint and GraphURL default to Facebook's production hosts.
	Endpoint   oauth2.Endpoint
	GraphURL   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Provider runs the Facebook authorization code flow and reads the caller's profile.
type Provider struct {
	oauth      *oauth2.Config
	graphURL   string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, crerr.New("facebook client id and secret are required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, crerr.New("facebook redirect url is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = facebook.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email"}
	}
	graphURL := strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if graphURL == "" {
		graphURL = defaultGraphURL
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		graphURL:   graphURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *Provider) Exchange(ctx context.Context, code string) (usecase.ExternalProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		p.logger.WarnContext(ctx, "facebook code exchange failed", "error", err)
		return usecase.ExternalProfile{}, crerr.Wrap(err, "exchange facebook code")
	}

	profile, err := p.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		p.logger.WarnContext(ctx, "facebook profile fetch failed", "error", err)
		return usecase.ExternalProfile{}, err
	}
	return profile, nil
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (usecase.ExternalProfile, error) {
	query := url.Values{}
	query.Set("fields", profileFields)
	query.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL+"/me?"+query.Encode(), nil)
	if err != nil {
		return usecase.ExternalProfile{}, crerr.Wrap(err, "build facebook profile request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return usecase.ExternalProfile{}, crerr.Wrap(err, "request facebook profile")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return usecase.ExternalProfile{}, crerr.Wrap(err, "read facebook profile")
	}
	if resp.StatusCode != http.StatusOK {
		return usecase.ExternalProfile{}, crerr.Newf("facebook profile status=%d", resp.StatusCode)
	}

	var decoded profileResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return usecase.ExternalProfile{}, crerr.Wrap(err, "decode facebook profile")
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return usecase.ExternalProfile{}, crerr.New("facebook profile has no id")
	}

	return usecase.ExternalProfile{
		Provider:    ProviderName,
		ExternalID:  decoded.ID,
		Email:       decoded.Email,
		FirstName:   decoded.FirstName,
		LastName:    decoded.LastName,
		AccessToken: accessToken,
	}, nil
}

type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
