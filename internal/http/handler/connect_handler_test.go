package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/books-connect/internal/domain"
	httpHandler "github.com/brightdesk/books-connect/internal/http/handler"
	"github.com/brightdesk/books-connect/internal/service/connect"
)

type stubConnectService struct {
	beginAuthorization    func(ctx context.Context, tenantID, userID string) (string, error)
	completeAuthorization func(ctx context.Context, callbackURL string) error
	checkConnection       func(ctx context.Context, tenantID string) (bool, error)
	fetchEntity           func(ctx context.Context, tenantID, kind string) (json.RawMessage, error)
}

func (s *stubConnectService) BeginAuthorization(ctx context.Context, tenantID, userID string) (string, error) {
	return s.beginAuthorization(ctx, tenantID, userID)
}

func (s *stubConnectService) CompleteAuthorization(ctx context.Context, callbackURL string) error {
	return s.completeAuthorization(ctx, callbackURL)
}

func (s *stubConnectService) ValidAccessToken(context.Context, string) (string, error) {
	return "", domain.ErrNotConnected
}

func (s *stubConnectService) CheckConnection(ctx context.Context, tenantID string) (bool, error) {
	return s.checkConnection(ctx, tenantID)
}

func (s *stubConnectService) Disconnect(context.Context, string) error {
	return nil
}

func (s *stubConnectService) FetchEntity(ctx context.Context, tenantID, kind string) (json.RawMessage, error) {
	return s.fetchEntity(ctx, tenantID, kind)
}

func (s *stubConnectService) CreateBills(context.Context, string, connect.CreateBillsInput) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func postJSON(t *testing.T, h gin.HandlerFunc, target, payload string) *http.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	h(c)
	return w.Result()
}

func TestAuthorizeReturnsConsentURL(t *testing.T) {
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		beginAuthorization: func(_ context.Context, tenantID, _ string) (string, error) {
			require.Equal(t, "tenant-1", tenantID)
			return "https://appcenter.example/connect?state=abc", nil
		},
	}, nil)

	res := postJSON(t, handler.Authorize, "/authorize", `{"tenantId":"tenant-1"}`)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "https://appcenter.example/connect?state=abc")
}

func TestAuthorizeMissingTenant(t *testing.T) {
	handler := httpHandler.NewConnectHandler(&stubConnectService{}, nil)

	res := postJSON(t, handler.Authorize, "/authorize", `{}`)
	_ = res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCallbackClosesWindowOnSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		completeAuthorization: func(_ context.Context, callbackURL string) error {
			require.Contains(t, callbackURL, "code=xyz")
			return nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=xyz&state=abc&realmId=9130", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handler.Callback(c)

	res := w.Result()
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "window.close()")
}

func TestCallbackRejectsInvalidState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		completeAuthorization: func(context.Context, string) error {
			return domain.ErrInvalidState
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=xyz&state=stale", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handler.Callback(c)

	res := w.Result()
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "Callback error", string(body))
}

func TestGetEntityUnknownKind(t *testing.T) {
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		fetchEntity: func(_ context.Context, _, kind string) (json.RawMessage, error) {
			return nil, domain.ErrUnknownEntity
		},
	}, nil)

	res := postJSON(t, handler.GetEntity, "/get-entity", `{"tenantId":"tenant-1","entity":"journal-entries"}`)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "Invalid entity", string(body))
}

func TestGetEntityPassthrough(t *testing.T) {
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		fetchEntity: func(_ context.Context, tenantID, kind string) (json.RawMessage, error) {
			require.Equal(t, "tenant-1", tenantID)
			require.Equal(t, "vendors", kind)
			return json.RawMessage(`{"QueryResponse":{"Vendor":[]}}`), nil
		},
	}, nil)

	res := postJSON(t, handler.GetEntity, "/get-entity", `{"tenantId":"tenant-1","entity":"vendors"}`)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.JSONEq(t, `{"QueryResponse":{"Vendor":[]}}`, string(body))
}

func TestCheckConnectionNotConnected(t *testing.T) {
	handler := httpHandler.NewConnectHandler(&stubConnectService{
		checkConnection: func(context.Context, string) (bool, error) {
			return false, nil
		},
	}, nil)

	res := postJSON(t, handler.CheckConnection, "/check-connection", `{"tenantId":"tenant-1"}`)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"connected":false}`, string(body))
}
