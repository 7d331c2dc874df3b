package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/adapter/quickbooks"
	"github.com/brightdesk/books-connect/internal/domain"
	"github.com/brightdesk/books-connect/internal/repository"
	"github.com/brightdesk/books-connect/internal/state"
)

// Service manages the accounting-API connection lifecycle per tenant:
// authorize, exchange, persist, lazy refresh, revoke. All downstream API
// calls go through it for a valid bearer token.
type Service interface {
	BeginAuthorization(ctx context.Context, tenantID, userID string) (string, error)
	CompleteAuthorization(ctx context.Context, callbackURL string) error
	ValidAccessToken(ctx context.Context, tenantID string) (string, error)
	CheckConnection(ctx context.Context, tenantID string) (bool, error)
	Disconnect(ctx context.Context, tenantID string) error
	FetchEntity(ctx context.Context, tenantID, kind string) (json.RawMessage, error)
	CreateBills(ctx context.Context, tenantID string, input CreateBillsInput) (json.RawMessage, error)
}

// CreateBillsInput carries the heterogeneous record lists for one batched
// provider write. Records are passed through verbatim apart from the
// correlation tags and the purchase payment type.
type CreateBillsInput struct {
	Bills     []json.RawMessage `json:"bills"`
	Checks    []json.RawMessage `json:"checks"`
	Expenses  []json.RawMessage `json:"expenses"`
	CCCharges []json.RawMessage `json:"ccCharges"`
}

type service struct {
	registry    *state.Registry
	credentials repository.CredentialRepository
	provider    quickbooks.Client
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires the lifecycle manager. It validates the entity table so
// a bad mapping surfaces at startup.
func NewService(registry *state.Registry, credentials repository.CredentialRepository, provider quickbooks.Client, logger *zap.Logger) (Service, error) {
	if err := validateEntityTable(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.L()
	}
	return &service{
		registry:    registry,
		credentials: credentials,
		provider:    provider,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// BeginAuthorization creates the CSRF state binding and returns the provider
// consent URL. No provider network call happens at this step.
func (s *service) BeginAuthorization(ctx context.Context, tenantID, userID string) (string, error) {
	stateToken, err := s.registry.Create(ctx, tenantID, userID)
	if err != nil {
		return "", fmt.Errorf("create state: %w", err)
	}
	return s.provider.AuthorizationURL(stateToken), nil
}

// CompleteAuthorization consumes the provider redirect: it redeems the state
// binding, exchanges the code, and persists the credential. Redemption
// failure aborts before anything is written. The exchange-then-persist pair
// has no compensating rollback; a persistence failure after a successful
// exchange orphans the issued token, which is logged and surfaced.
func (s *service) CompleteAuthorization(ctx context.Context, callbackURL string) error {
	code, stateToken, realmID, err := parseCallback(callbackURL)
	if err != nil {
		return err
	}

	record, err := s.registry.Redeem(ctx, stateToken)
	if err != nil {
		s.logger.Warn("state redemption failed", zap.Error(err))
		return domain.ErrInvalidState
	}

	tok, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	credential, err := domain.NewCredentialRecord(record.TenantID, realmID, *tok, s.now())
	if err != nil {
		return fmt.Errorf("map token response: %w", err)
	}

	if err := s.credentials.Save(ctx, credential); err != nil {
		s.logger.Error("credential persist failed after exchange, issued token orphaned",
			zap.String("tenant_id", record.TenantID),
			zap.Error(err),
		)
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// ValidAccessToken returns a usable bearer token for the tenant, refreshing
// lazily when the stored one has expired. The rotated refresh token is
// persisted alongside the new access token.
func (s *service) ValidAccessToken(ctx context.Context, tenantID string) (string, error) {
	credential, err := s.validCredential(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return credential.AccessToken, nil
}

// validCredential loads the tenant's credential and refreshes it when
// expired, returning a record whose access token is usable now.
func (s *service) validCredential(ctx context.Context, tenantID string) (domain.CredentialRecord, error) {
	credential, err := s.credentials.Load(ctx, tenantID)
	if err != nil {
		return domain.CredentialRecord{}, err
	}
	if !credential.IsExpired(s.now()) {
		return credential, nil
	}

	tok, err := s.provider.Refresh(ctx, credential.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return domain.CredentialRecord{}, err
		}
		s.logger.Warn("provider rejected refresh token",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return domain.CredentialRecord{}, fmt.Errorf("refresh: %w", domain.ErrRefreshFailed)
	}
	if tok.RefreshToken == "" {
		// Provider kept the old refresh token.
		tok.RefreshToken = credential.RefreshToken
	}

	refreshed, err := domain.NewCredentialRecord(tenantID, credential.RealmID, *tok, s.now())
	if err != nil {
		return domain.CredentialRecord{}, fmt.Errorf("map refresh response: %w", err)
	}
	if err := s.credentials.Save(ctx, refreshed); err != nil {
		return domain.CredentialRecord{}, fmt.Errorf("persist refreshed credential: %w", err)
	}
	return refreshed, nil
}

// CheckConnection reports whether the tenant holds a usable credential,
// triggering a lazy refresh as a side effect.
func (s *service) CheckConnection(ctx context.Context, tenantID string) (bool, error) {
	_, err := s.ValidAccessToken(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) || errors.Is(err, domain.ErrRefreshFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Disconnect revokes the tenant's token at the provider on a best-effort
// basis, then unconditionally deletes the local record so the tenant never
// stays stuck connected.
func (s *service) Disconnect(ctx context.Context, tenantID string) error {
	credential, err := s.credentials.Load(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return nil
		}
		return err
	}

	if err := s.provider.Revoke(ctx, credential.AccessToken); err != nil {
		s.logger.Warn("remote revoke failed, clearing local credential anyway",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
	if err := s.credentials.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// FetchEntity runs the provider query for a known entity kind. Unknown kinds
// fail before any store or provider call.
func (s *service) FetchEntity(ctx context.Context, tenantID, kind string) (json.RawMessage, error) {
	query, err := entityQuery(kind)
	if err != nil {
		return nil, err
	}

	credential, err := s.validCredential(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.provider.Query(ctx, credential.AccessToken, credential.RealmID, query)
}

// CreateBills builds one batched provider write mixing bills and purchases
// and returns the provider response verbatim.
func (s *service) CreateBills(ctx context.Context, tenantID string, input CreateBillsInput) (json.RawMessage, error) {
	batch, err := buildBatch(input)
	if err != nil {
		return nil, err
	}

	credential, err := s.validCredential(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.provider.Batch(ctx, credential.AccessToken, credential.RealmID, batch)
}

// buildBatch tags every record with a synthetic correlation id: bill1..N for
// bills, purchase1..N sequential across checks, cash expenses, and credit
// card charges. Purchases get their PaymentType stamped when absent.
func buildBatch(input CreateBillsInput) (quickbooks.BatchRequest, error) {
	var items []quickbooks.BatchItem
	for i, bill := range input.Bills {
		items = append(items, quickbooks.BatchItem{
			BID:       fmt.Sprintf("bill%d", i+1),
			Operation: "create",
			Bill:      bill,
		})
	}

	purchaseNo := 0
	addPurchases := func(records []json.RawMessage, paymentType string) error {
		for _, record := range records {
			purchaseNo++
			payload, err := stampPaymentType(record, paymentType)
			if err != nil {
				return err
			}
			items = append(items, quickbooks.BatchItem{
				BID:       fmt.Sprintf("purchase%d", purchaseNo),
				Operation: "create",
				Purchase:  payload,
			})
		}
		return nil
	}
	if err := addPurchases(input.Checks, "Check"); err != nil {
		return quickbooks.BatchRequest{}, err
	}
	if err := addPurchases(input.Expenses, "Cash"); err != nil {
		return quickbooks.BatchRequest{}, err
	}
	if err := addPurchases(input.CCCharges, "CreditCard"); err != nil {
		return quickbooks.BatchRequest{}, err
	}

	return quickbooks.BatchRequest{Items: items}, nil
}

func stampPaymentType(record json.RawMessage, paymentType string) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(record, &payload); err != nil {
		return nil, fmt.Errorf("decode purchase record: %w", err)
	}
	if _, ok := payload["PaymentType"]; !ok {
		payload["PaymentType"] = paymentType
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode purchase record: %w", err)
	}
	return encoded, nil
}

// parseCallback extracts code, state, and the provider realm id from the
// redirect URL.
func parseCallback(callbackURL string) (code, stateToken, realmID string, err error) {
	parsed, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", "", fmt.Errorf("parse callback url: %w", domain.ErrInvalidState)
	}
	params := parsed.Query()
	code = strings.TrimSpace(params.Get("code"))
	stateToken = strings.TrimSpace(params.Get("state"))
	realmID = strings.TrimSpace(params.Get("realmId"))
	if code == "" || stateToken == "" {
		return "", "", "", domain.ErrInvalidState
	}
	return code, stateToken, realmID, nil
}
