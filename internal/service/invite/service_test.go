package invite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightdesk/books-connect/internal/domain"
)

func newTestService(t *testing.T) (*Service, *memoryInvitationRepo, *fakeMailer) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	repo := newMemoryInvitationRepo()
	mailer := &fakeMailer{}
	return NewService(repo, mailer, node, "https://app.example.com/invite", zap.NewNop()), repo, mailer
}

func TestService_Send(t *testing.T) {
	svc, _, mailer := newTestService(t)

	record, err := svc.Send(context.Background(), "w1", "user-1", "new@example.com", "member")
	require.NoError(t, err)
	require.NotEmpty(t, record.Token)
	require.NotZero(t, record.ID)
	require.False(t, record.Used)
	require.Equal(t, TTL, record.ExpiresAt.Sub(record.CreatedAt))

	require.Equal(t, "new@example.com", mailer.lastTo)
	require.Contains(t, mailer.lastBody, record.Token)
}

func TestService_SendSurvivesMailFailure(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	mailer.err = fmt.Errorf("relay down")

	record, err := svc.Send(context.Background(), "w1", "user-1", "new@example.com", "member")
	require.NoError(t, err)

	stored, err := repo.GetByToken(context.Background(), record.Token)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", stored.InviteeEmail)
}

func TestService_ValidateIsReadOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	record, err := svc.Send(ctx, "w1", "user-1", "new@example.com", "member")
	require.NoError(t, err)

	// Repeated validation succeeds until a consumption step runs.
	for range 3 {
		got, err := svc.Validate(ctx, record.Token)
		require.NoError(t, err)
		require.False(t, got.Used)
	}

	require.NoError(t, svc.MarkUsed(ctx, record.Token))
	_, err = svc.Validate(ctx, record.Token)
	require.ErrorIs(t, err, domain.ErrInvitationUsed)

	stored, err := repo.GetByToken(ctx, record.Token)
	require.NoError(t, err)
	require.True(t, stored.Used)
}

func TestService_ValidateMissingAndExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "never-issued")
	require.ErrorIs(t, err, domain.ErrInvitationNotFound)

	issued := time.Now().UTC()
	svc.now = func() time.Time { return issued }
	record, err := svc.Send(ctx, "w1", "user-1", "new@example.com", "member")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(TTL + time.Second) }
	_, err = svc.Validate(ctx, record.Token)
	require.ErrorIs(t, err, domain.ErrInvitationExpired)
}

// ---- Test fakes ----

type memoryInvitationRepo struct {
	mu   sync.Mutex
	data map[string]domain.InvitationRecord
}

func newMemoryInvitationRepo() *memoryInvitationRepo {
	return &memoryInvitationRepo{data: map[string]domain.InvitationRecord{}}
}

func (m *memoryInvitationRepo) Create(_ context.Context, invitation domain.InvitationRecord) (domain.InvitationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[invitation.Token] = invitation
	return invitation, nil
}

func (m *memoryInvitationRepo) GetByToken(_ context.Context, token string) (domain.InvitationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[token]
	if !ok {
		return domain.InvitationRecord{}, domain.ErrInvitationNotFound
	}
	return record, nil
}

func (m *memoryInvitationRepo) MarkUsed(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[token]
	if !ok {
		return domain.ErrInvitationNotFound
	}
	record.Used = true
	m.data[token] = record
	return nil
}

type fakeMailer struct {
	err      error
	lastTo   string
	lastBody string
}

func (f *fakeMailer) Send(to, _, body string) error {
	f.lastTo = to
	f.lastBody = body
	return f.err
}
