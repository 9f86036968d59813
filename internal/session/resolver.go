package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleverdining/datahub/internal/models"
)

// ErrNotLoggedIn is returned when role resolution runs without a token.
var ErrNotLoggedIn = errors.New("not logged in")

// ProfileFetcher is satisfied by the API client.
type ProfileFetcher interface {
	Profile(ctx context.Context) (models.UserInfo, error)
}

// Resolve re-validates the cached role against the server's profile
// endpoint. On success server truth overwrites the cache. On failure the
// stale cached role stays in place: a flaky network must not log a working
// operator out, so the error is reported but the seeded role keeps serving.
func (s *Store) Resolve(ctx context.Context, fetcher ProfileFetcher) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}

	info, err := fetcher.Profile(ctx)
	if err != nil {
		if _, ok := s.Role(); ok {
			s.logger.Printf("⚠️  Profile re-validation failed, keeping cached role: %v", err)
			return nil
		}
		return fmt.Errorf("resolve role: %w", err)
	}

	s.SetUserInfo(info)
	if r, ok := s.Role(); ok {
		s.logger.Printf("✅ Role resolved: %s (dashboard %s)", r, models.DashboardPath(r))
	}
	return nil
}
