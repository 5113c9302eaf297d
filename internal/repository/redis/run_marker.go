package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	goredis "github.com/redis/go-redis/v9"
)

const (
	markerKeyPrefix = "payroll:last_run:"
	markerLayout    = "2006-01-02"
	// A marker only has to outlive the month it guards.
	markerTTL = 45 * 24 * time.Hour
)

type runMarkerStore struct {
	client *goredis.Client
}

func NewRunMarkerStore(client *goredis.Client) payroll.RunMarkerStore {
	return &runMarkerStore{client: client}
}

func markerKey(companyID string) string {
	return markerKeyPrefix + companyID
}

func (s *runMarkerStore) LastRunOn(ctx context.Context, companyID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, markerKey(companyID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get run marker: %w", err)
	}

	day, err := time.Parse(markerLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid run marker %q: %w", raw, err)
	}

	return day, true, nil
}

func (s *runMarkerStore) SetLastRunOn(ctx context.Context, companyID string, day time.Time) error {
	value := payroll.DateOf(day).Format(markerLayout)
	if err := s.client.Set(ctx, markerKey(companyID), value, markerTTL).Err(); err != nil {
		return fmt.Errorf("failed to set run marker: %w", err)
	}
	return nil
}
