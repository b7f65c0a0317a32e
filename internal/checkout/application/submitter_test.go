package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
	"github.com/ambatushop/pos-terminal/pkg/idempotency"
)

type recordingGuard struct {
	keys []string
	seen bool
	err  error
}

func (g *recordingGuard) Seen(_ context.Context, key string) (bool, error) {
	g.keys = append(g.keys, key)
	return g.seen, g.err
}

func newTestSubmitter(api *mockAPI, guard SubmissionGuard) *Submitter {
	return NewSubmitter(slog.New(slog.NewTextHandler(io.Discard, nil)), api, guard)
}

func TestSubmitBuildsRequestFromLines(t *testing.T) {
	api := &mockAPI{}
	s := newTestSubmitter(api, &recordingGuard{})

	lines := testLines()
	tx, err := s.Submit(context.Background(), "key-1", lines, domain.MethodCash, 7, "budi")
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, domain.MethodCash, req.Method)
	assert.Equal(t, int64(30000), req.Total)
	assert.Equal(t, int64(7), req.ActorID)
	assert.Equal(t, "budi", req.CashierName)
	require.Len(t, req.Details, 1)
	assert.Equal(t, domain.LineSnapshot{
		ProductID: 1,
		Quantity:  2,
		UnitPrice: 15000,
		Subtotal:  30000,
	}, req.Details[0])
}

func TestSubmitNamespacesGuardKey(t *testing.T) {
	guard := &recordingGuard{}
	s := newTestSubmitter(&mockAPI{}, guard)

	_, err := s.Submit(context.Background(), "abc", testLines(), domain.MethodCash, 7, "budi")
	require.NoError(t, err)
	require.Len(t, guard.keys, 1)
	assert.Equal(t, idempotency.CheckoutKey("abc"), guard.keys[0])
}

func TestSubmitDuplicateKeyRejected(t *testing.T) {
	api := &mockAPI{}
	s := newTestSubmitter(api, &recordingGuard{seen: true})

	_, err := s.Submit(context.Background(), "dup", testLines(), domain.MethodCash, 7, "budi")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Empty(t, api.created, "no call reaches the backend")
}

func TestSubmitGuardErrorBlocksSubmission(t *testing.T) {
	api := &mockAPI{}
	s := newTestSubmitter(api, &recordingGuard{err: errors.New("redis down")})

	_, err := s.Submit(context.Background(), "k", testLines(), domain.MethodCash, 7, "budi")
	assert.Error(t, err)
	assert.Empty(t, api.created)
}

func TestSubmitEmptyLines(t *testing.T) {
	s := newTestSubmitter(&mockAPI{}, &recordingGuard{})
	_, err := s.Submit(context.Background(), "k", nil, domain.MethodCash, 7, "budi")
	assert.ErrorIs(t, err, ErrEmptyCart)
}
