// Package redis stores shopping sessions in Redis so they survive restarts
// and can be shared between API replicas.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/session"
)

const keyPrefix = "pizzeria:session:"

// cmdable is the subset of the go-redis client used by the store.
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps sessions as JSON values with a sliding TTL.
type SessionStore struct {
	client cmdable
	ttl    time.Duration
}

// NewSessionStore wraps a go-redis client. Every Save refreshes the TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

type itemRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Prices      catalog.Prices `json:"prices"`
}

type sessionRecord struct {
	ID        string       `json:"id"`
	Menu      []itemRecord `json:"menu"`
	Lines     []cart.Line  `json:"lines"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Get loads and decodes a session.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get session %q", id)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Wrapf(err, "decode session %q", id)
	}
	return decodeSession(rec), nil
}

// Save encodes the session and stores it with a fresh TTL.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	raw, err := json.Marshal(encodeSession(sess))
	if err != nil {
		return errors.Wrapf(err, "encode session %q", sess.ID)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, raw, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set session %q", sess.ID)
	}
	return nil
}

// Delete removes the session key.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrapf(err, "delete session %q", id)
	}
	return nil
}

func encodeSession(sess *session.Session) sessionRecord {
	items := sess.Snapshot.Items()
	menu := make([]itemRecord, len(items))
	for i, item := range items {
		menu[i] = itemRecord{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Prices:      item.Prices,
		}
	}
	return sessionRecord{
		ID:        sess.ID,
		Menu:      menu,
		Lines:     sess.Cart.Lines(),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

func decodeSession(rec sessionRecord) *session.Session {
	items := make([]catalog.Item, len(rec.Menu))
	for i, item := range rec.Menu {
		items[i] = catalog.Item{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Prices:      item.Prices,
		}
	}
	return &session.Session{
		ID:        rec.ID,
		Snapshot:  catalog.NewSnapshot(items),
		Cart:      cart.FromLines(rec.Lines),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
