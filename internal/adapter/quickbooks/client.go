package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/domain"
)

// Scopes requested on every authorization: accounting plus the identity set.
var scopes = []string{
	"com.intuit.quickbooks.accounting",
	"openid",
	"profile",
	"email",
}

// Endpoints groups the provider URLs for one environment.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	RevokeURL    string
	APIBaseURL   string
}

// EndpointsFor returns the endpoint set for the given environment. Anything
// other than "production" selects the sandbox API host; the OAuth endpoints
// are shared.
func EndpointsFor(environment string) Endpoints {
	apiBase := "https://sandbox-quickbooks.api.intuit.com"
	if strings.EqualFold(environment, "production") {
		apiBase = "https://quickbooks.api.intuit.com"
	}
	return Endpoints{
		AuthorizeURL: "https://appcenter.intuit.com/connect/oauth2",
		TokenURL:     "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
		RevokeURL:    "https://developer.api.intuit.com/v2/oauth2/tokens/revoke",
		APIBaseURL:   apiBase,
	}
}

// Client encapsulates outbound calls to the accounting provider. It is plain
// request/response and holds no per-tenant state.
type Client interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenResponse, error)
	Revoke(ctx context.Context, token string) error
	Query(ctx context.Context, accessToken, realmID, query string) (json.RawMessage, error)
	Batch(ctx context.Context, accessToken, realmID string, req BatchRequest) (json.RawMessage, error)
}

// Config carries the OAuth application settings for the provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Environment  string
}

// HTTPClient is the default Client implementation.
type HTTPClient struct {
	cfg        Config
	endpoints  Endpoints
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default provider client. A nil http.Client
// gets a bounded 10s timeout.
func NewHTTPClient(cfg Config, client *http.Client, logger *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &HTTPClient{cfg: cfg, endpoints: EndpointsFor(cfg.Environment), httpClient: client, logger: logger}
}

// AuthorizationURL builds the provider consent URL with the CSRF state
// parameter embedded. No network call happens here.
func (c *HTTPClient) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("state", state)
	return c.endpoints.AuthorizeURL + "?" + params.Encode()
}

// Exchange swaps an authorization code for a token pair.
func (c *HTTPClient) Exchange(ctx context.Context, code string) (*domain.TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	return c.tokenGrant(ctx, "token exchange", data)
}

// Refresh redeems a refresh token for a rotated token pair.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	return c.tokenGrant(ctx, "token refresh", data)
}

func (c *HTTPClient) tokenGrant(ctx context.Context, op string, data url.Values) (*domain.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	token := &domain.TokenResponse{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		TokenType:    stringValue(raw["token_type"]),
		ExpiresIn:    int64Value(raw["expires_in"]),
		Raw:          raw,
	}
	return token, nil
}

// Revoke invalidates a token at the provider.
func (c *HTTPClient) Revoke(ctx context.Context, token string) error {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("encode revoke request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.RevokeURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req, "token revoke")
	return err
}

// Query runs a select statement against the company realm.
func (c *HTTPClient) Query(ctx context.Context, accessToken, realmID, query string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=70",
		c.endpoints.APIBaseURL, url.PathEscape(realmID), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "entity query")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Batch submits one batched write mixing heterogeneous record types and
// returns the provider response verbatim.
func (c *HTTPClient) Batch(ctx context.Context, accessToken, realmID string, batch BatchRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s/batch?minorversion=70", c.endpoints.APIBaseURL, url.PathEscape(realmID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "batch create")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// do executes the request, reading at most 4 MiB of response body. Transport
// failures map to ErrUpstreamUnavailable; provider error statuses are logged
// with the response body and surfaced as plain errors.
func (c *HTTPClient) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %v: %w", op, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %v: %w", op, err, domain.ErrUpstreamUnavailable)
	}
	if resp.StatusCode >= 300 {
		c.logger.Error("provider call failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("%s failed: status=%d", op, resp.StatusCode)
	}
	return body, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case int64:
		return v
	default:
		return 0
	}
}
