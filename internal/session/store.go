// Package session owns the persisted authentication state: the token pair,
// the cached user profile, and the resolved role that gates every
// role-prefixed API call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/cleverdining/datahub/internal/models"
)

const redisSessionKey = "datahub:session"

// Store keeps the session in memory, mirrors it to a JSON file (the
// localStorage analog) and, when Redis is configured, to a cache key so a
// restarted daemon on another host can pick it up.
type Store struct {
	mu       sync.RWMutex
	path     string
	sess     models.Session
	role     models.Role
	resolved bool

	rdb    *redis.Client
	logger *log.Logger
}

func NewStore(path string, rdb *redis.Client, logger *log.Logger) *Store {
	return &Store{path: path, rdb: rdb, logger: logger}
}

// Load seeds the store from the session file, falling back to the Redis
// snapshot. A missing file is not an error: it just means "not logged in".
// When the cached profile carries a role it is used immediately, the same
// way the dashboard seeds from localStorage to avoid a loading flash.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) && s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if raw, rerr := s.rdb.Get(ctx, redisSessionKey).Bytes(); rerr == nil {
			b, err = raw, nil
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session %s: %w", s.path, err)
	}

	var sess models.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return fmt.Errorf("decode session %s: %w", s.path, err)
	}
	s.sess = sess
	s.seedRoleLocked()
	return nil
}

// seedRoleLocked derives a provisional role from the cached profile, or as a
// fallback from the (unverified) access-token claims. Verification belongs
// to the server; the claim is only a routing hint until Resolve confirms it.
func (s *Store) seedRoleLocked() {
	if r, ok := models.NormalizeRole(s.sess.UserInfo.Role); ok {
		s.role, s.resolved = r, true
		return
	}
	if s.sess.AccessToken == "" {
		return
	}
	var claims jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.sess.AccessToken, &claims); err != nil {
		return
	}
	for _, key := range []string{"role", "user_role"} {
		if v, ok := claims[key].(string); ok {
			if r, ok := models.NormalizeRole(v); ok {
				s.role, s.resolved = r, true
				return
			}
		}
	}
}

// LoggedIn reports whether an access token is present. Its presence is the
// sole authentication signal; expiry is cured by the refresh-on-401 path.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AccessToken != ""
}

// Role returns the resolved role; ok is false until resolution completes and
// every role-gated fetch must treat that as "do nothing".
func (s *Store) Role() (models.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.resolved
}

func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// SetSession replaces the whole session after a login and persists it.
func (s *Store) SetSession(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	s.seedRoleLocked()
	s.persistLocked()
}

// SetUserInfo overwrites the cached profile with server truth.
func (s *Store) SetUserInfo(info models.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.UserInfo = info
	s.seedRoleLocked()
	s.persistLocked()
}

// AccessToken implements api.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AccessToken
}

// RefreshToken implements api.TokenSource.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.RefreshToken
}

// SetTokens implements api.TokenSource; called after login and refresh.
func (s *Store) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.AccessToken = access
	s.sess.RefreshToken = refresh
	s.persistLocked()
}

// Clear implements api.TokenSource: the unrecoverable-401 path wipes the
// session everywhere, forcing a fresh login.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = models.Session{}
	s.role, s.resolved = "", false
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Printf("⚠️  Failed to remove session file: %v", err)
	}
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.rdb.Del(ctx, redisSessionKey).Err(); err != nil {
			s.logger.Printf("⚠️  Failed to drop Redis session: %v", err)
		}
	}
}

func (s *Store) persistLocked() {
	b, err := json.MarshalIndent(s.sess, "", "  ")
	if err != nil {
		s.logger.Printf("⚠️  Failed to encode session: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Printf("⚠️  Failed to create session dir: %v", err)
		return
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		s.logger.Printf("⚠️  Failed to write session file: %v", err)
	}
	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.rdb.Set(ctx, redisSessionKey, b, 0).Err(); err != nil {
			s.logger.Printf("⚠️  Failed to cache session in Redis: %v", err)
		}
	}
}
