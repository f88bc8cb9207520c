package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ehsaas-jewels/internal/config"
	"ehsaas-jewels/internal/domain"
	"ehsaas-jewels/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore is the single owner of cached login sessions across three
// tiers: an in-memory map (fastest), Redis (survives process restarts)
// and a browser cookie written by the transport layer.
//
// Every session carries a monotonic version. Writers submit the version
// they observed; a writer whose version is stale loses, so a slow
// revalidation response can never overwrite a newer login or logout.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.CachedSession
	versions map[uuid.UUID]uint64

	client *redis.Client
	users  repository.UserRepository
	logger *zap.Logger
	cfg    config.SessionConfig

	now func() time.Time
}

// NewSessionStore creates a SessionStore backed by Redis and the user
// repository for revalidation.
func NewSessionStore(client *redis.Client, users repository.UserRepository, cfg config.SessionConfig, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]domain.CachedSession),
		versions: make(map[uuid.UUID]uint64),
		client:   client,
		users:    users,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func sessionKey(userID uuid.UUID) string {
	return "session:" + userID.String()
}

func (s *SessionStore) cookieTTL() time.Duration {
	return time.Duration(s.cfg.CookieExpiryDays) * 24 * time.Hour
}

// Put stores a fresh session for the user, bumping its version. Called
// on login and after a successful revalidation.
func (s *SessionStore) Put(ctx context.Context, user *domain.User) domain.CachedSession {
	s.mu.Lock()
	s.versions[user.ID]++
	sess := s.snapshot(user, s.versions[user.ID])
	s.sessions[user.ID] = sess
	s.mu.Unlock()

	s.writeRedis(ctx, sess)
	return sess
}

func (s *SessionStore) snapshot(user *domain.User, version uint64) domain.CachedSession {
	return domain.CachedSession{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Permissions: user.Permissions,
		Version:     version,
		ValidatedAt: s.now(),
	}
}

func (s *SessionStore) writeRedis(ctx context.Context, sess domain.CachedSession) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Warn("Failed to encode session", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, sessionKey(sess.UserID), data, s.cookieTTL()).Err(); err != nil {
		// The memory tier stays authoritative; Redis catches up on the
		// next write.
		s.logger.Warn("Failed to write session to redis",
			zap.String("user_id", sess.UserID.String()),
			zap.Error(err),
		)
	}
}

// Invalidate drops the user's session from every tier and bumps the
// version so any in-flight revalidation write is rejected. Called on
// logout and role changes.
func (s *SessionStore) Invalidate(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	s.versions[userID]++
	delete(s.sessions, userID)
	s.mu.Unlock()

	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		s.logger.Warn("Failed to delete session from redis",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// Get returns the cached session for a user, revalidating it against the
// user store when the revalidation interval has passed. Revalidation is
// bounded by a timeout; on timeout or failure the cached session is
// returned as a degraded fallback, and whatever the slow call eventually
// produces is discarded by the version check.
func (s *SessionStore) Get(ctx context.Context, userID uuid.UUID) (domain.CachedSession, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	version := s.versions[userID]
	s.mu.Unlock()

	if !ok {
		redisSess, found := s.readRedis(ctx, userID)
		if !found {
			return domain.CachedSession{}, false
		}

		s.mu.Lock()
		// Accept the Redis copy only when no newer write (login/logout
		// after a restart) has raced past it.
		if redisSess.Version >= s.versions[userID] {
			s.versions[userID] = redisSess.Version
			s.sessions[userID] = redisSess
			sess = redisSess
			ok = true
		} else {
			sess, ok = s.sessions[userID]
		}
		version = s.versions[userID]
		s.mu.Unlock()

		if !ok {
			return domain.CachedSession{}, false
		}
	}

	if s.now().Sub(sess.ValidatedAt) < s.cfg.RevalidateInterval {
		return sess, true
	}

	return s.revalidate(ctx, userID, sess, version), true
}

func (s *SessionStore) readRedis(ctx context.Context, userID uuid.UUID) (domain.CachedSession, bool) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Failed to read session from redis",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
		return domain.CachedSession{}, false
	}

	sess := domain.CachedSession{}
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("Failed to decode cached session", zap.Error(err))
		return domain.CachedSession{}, false
	}
	return sess, true
}

// revalidate refreshes the session from the user store. The fetch runs
// under a timeout context so a slow response is abandoned rather than
// waited on; the observed version makes the commit a no-op when a login
// or logout happened meanwhile.
func (s *SessionStore) revalidate(ctx context.Context, userID uuid.UUID, cached domain.CachedSession, observed uint64) domain.CachedSession {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RevalidateTimeout)
	defer cancel()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// Degraded fallback: keep serving the cached session, but push
		// ValidatedAt forward so every request does not retry at once.
		s.logger.Warn("Session revalidation failed, serving cached session",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		s.mu.Lock()
		if s.versions[userID] == observed {
			cached.ValidatedAt = s.now()
			s.sessions[userID] = cached
		}
		s.mu.Unlock()
		return cached
	}

	s.mu.Lock()
	if s.versions[userID] != observed {
		// A login, logout or role change won the race; this result is
		// stale and must not overwrite it.
		current, ok := s.sessions[userID]
		s.mu.Unlock()
		if ok {
			return current
		}
		return cached
	}
	s.versions[userID]++
	sess := s.snapshot(user, s.versions[userID])
	s.sessions[userID] = sess
	s.mu.Unlock()

	s.writeRedis(ctx, sess)
	return sess
}

// EncodeCookie renders a session as the storefront's cookie tier:
// base64-encoded JSON with a 7-day expiry by default.
func (s *SessionStore) EncodeCookie(sess domain.CachedSession) (*http.Cookie, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    base64.StdEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   s.cfg.CookieExpiryDays * 24 * 60 * 60,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}, nil
}

// DecodeCookie parses the cookie tier back into a session snapshot
func (s *SessionStore) DecodeCookie(cookie *http.Cookie) (domain.CachedSession, error) {
	sess := domain.CachedSession{}

	data, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// ClearCookie returns an expired cookie that removes the cookie tier
func (s *SessionStore) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
