package repository

import (
	"context"
	"sync/atomic"
	"time"

	"spotbnb/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionStore serves from primary and switches to fallback when the
// primary fails, probing the primary again after recoveryInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should try the primary store.
func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	// revocations always land in the fallback so they survive a primary outage
	if err := r.fallback.RevokeToken(ctx, tokenID, ttl); err != nil {
		return err
	}
	if r.usePrimary() {
		if err := r.primary.RevokeToken(ctx, tokenID, ttl); err != nil {
			r.markDown(err)
			return nil
		}
		r.markUp()
	}
	return nil
}

func (r *FailoverSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.usePrimary() {
		revoked, err := r.primary.IsRevoked(ctx, tokenID)
		if err == nil {
			r.markUp()
			if revoked {
				return true, nil
			}
			return r.fallback.IsRevoked(ctx, tokenID)
		}
		r.markDown(err)
	}
	return r.fallback.IsRevoked(ctx, tokenID)
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	_ = r.fallback.ResetRateLimit(ctx, key)
	if r.usePrimary() {
		if err := r.primary.ResetRateLimit(ctx, key); err != nil {
			r.markDown(err)
			return nil
		}
		r.markUp()
	}
	return nil
}
