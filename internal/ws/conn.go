package ws

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"socialhub/internal/domain"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Transport is the write side of one client connection. Send must not block.
type Transport interface {
	Send(frame []byte) error
	Close() error
}

// Conn is one authenticated client connection.
type Conn struct {
	ID     string
	UserID string
	User   *domain.User

	transport Transport

	// guarded by Hub.mu
	rooms  map[string]struct{}
	closed bool

	closeOnce sync.Once

	mu     sync.Mutex
	online bool
	gone   bool
}

func newConn(u *domain.User, t Transport) *Conn {
	return &Conn{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		User:      u,
		transport: t,
		rooms:     make(map[string]struct{}),
	}
}
