package ws_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
	"socialhub/internal/presence"
	"socialhub/internal/security"
	"socialhub/internal/ws"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepo) Save(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) Follow(ctx context.Context, followerID, followedID string) error {
	return m.Called(ctx, followerID, followedID).Error(0)
}

type fakeTransport struct {
	mu     sync.Mutex
	frames []ws.Envelope
	closed bool
	full   bool
}

func (f *fakeTransport) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ws.ErrClosed
	}
	if f.full {
		return ws.ErrSlowConsumer
	}
	var env ws.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) Events(name string) []ws.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []ws.Envelope
	for _, env := range f.frames {
		if env.Event == name {
			res = append(res, env)
		}
	}
	return res
}

func (f *fakeTransport) setFull() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = true
}

type testEnv struct {
	hub    *ws.Hub
	tokens *security.TokenService
	users  *MockUserRepo
}

func newTestEnv(t *testing.T, known ...string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := new(MockUserRepo)
	for _, id := range known {
		users.On("GetByID", mock.Anything, id).Return(&domain.User{ID: id, Username: "name-" + id}, nil)
	}
	users.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	tokens := security.NewTokenService("secret", time.Hour)
	hub := ws.NewHub(presence.New(logger), tokens, users, nil, logger)
	return &testEnv{hub: hub, tokens: tokens, users: users}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.CreateForUser(userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) connect(t *testing.T, userID string) (*ws.Conn, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	c, err := e.hub.Connect(context.Background(), e.token(t, userID), tr)
	require.NoError(t, err)
	return c, tr
}

func onlineIDs(t *testing.T, env ws.Envelope) []string {
	t.Helper()
	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	return ids
}
