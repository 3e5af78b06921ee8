package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crystal-dz/storefront_api/model"
	"gorm.io/gorm"
)

var ErrNoDecision = errors.New("limit store returned no row")

// LimitDecision is the outcome of one atomic check-and-increment.
type LimitDecision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// PostgresLimitStore delegates the whole check to stored procedures, so the
// read-compare-increment happens under a row lock on the database side.
type PostgresLimitStore struct {
	db        *gorm.DB
	tracking  *IPTrackingRepository
	maxOrders int
	window    time.Duration
}

// NewPostgresLimitStore expects the procedures to be installed with the same
// maxOrders and window, see InstallLimitProcedures.
func NewPostgresLimitStore(db *gorm.DB, maxOrders int, window time.Duration) *PostgresLimitStore {
	return &PostgresLimitStore{
		db:        db,
		tracking:  NewIPTrackingRepository(db),
		maxOrders: maxOrders,
		window:    window,
	}
}

func (s *PostgresLimitStore) Name() string {
	return "postgres"
}

func (s *PostgresLimitStore) Check(ctx context.Context, ip string) (LimitDecision, error) {
	var row struct {
		Allowed   bool
		Remaining int
		ResetTime time.Time
	}

	result := s.db.WithContext(ctx).
		Raw("SELECT allowed, remaining, reset_time FROM check_ip_rate_limit(?)", ip).
		Scan(&row)
	if result.Error != nil {
		return LimitDecision{}, result.Error
	}
	if result.RowsAffected == 0 {
		return LimitDecision{}, ErrNoDecision
	}

	return LimitDecision{Allowed: row.Allowed, Remaining: row.Remaining, ResetTime: row.ResetTime}, nil
}

func (s *PostgresLimitStore) Reset(ctx context.Context, ip string) error {
	return s.db.WithContext(ctx).Exec("SELECT reset_ip_limits(?)", ip).Error
}

func (s *PostgresLimitStore) Counts(ctx context.Context) (tracked, limited int64, err error) {
	return s.tracking.Counts(ctx, s.maxOrders, s.window)
}

func (s *PostgresLimitStore) List(ctx context.Context, limit, offset int) ([]model.IPTracking, int64, error) {
	return s.tracking.List(ctx, limit, offset)
}

// InstallLimitProcedures creates or replaces the rate limit functions. The
// policy is compiled into the function bodies.
func InstallLimitProcedures(db *gorm.DB, maxOrders int, window time.Duration) error {
	for _, stmt := range limitProcedures(maxOrders, window) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install rate limit procedures: %w", err)
		}
	}
	return nil
}

func limitProcedures(maxOrders int, window time.Duration) []string {
	interval := fmt.Sprintf("INTERVAL '%d seconds'", int64(window/time.Second))

	check := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION check_ip_rate_limit(p_ip VARCHAR)
RETURNS TABLE(allowed BOOLEAN, remaining INTEGER, reset_time TIMESTAMPTZ)
LANGUAGE plpgsql AS $$
DECLARE
    v_now   TIMESTAMPTZ := now();
    v_count INTEGER;
    v_start TIMESTAMPTZ;
BEGIN
    INSERT INTO ip_trackings (ip_address, order_count, window_start, created_at, updated_at)
    VALUES (p_ip, 0, v_now, v_now, v_now)
    ON CONFLICT (ip_address) DO NOTHING;

    SELECT t.order_count, t.window_start INTO v_count, v_start
    FROM ip_trackings t
    WHERE t.ip_address = p_ip
    FOR UPDATE;

    IF v_start + %[1]s <= v_now THEN
        v_count := 0;
        v_start := v_now;
    END IF;

    IF v_count >= %[2]d THEN
        RETURN QUERY SELECT FALSE, 0, v_start + %[1]s;
        RETURN;
    END IF;

    v_count := v_count + 1;

    UPDATE ip_trackings
    SET order_count = v_count,
        window_start = v_start,
        last_order_at = v_now,
        updated_at = v_now
    WHERE ip_address = p_ip;

    RETURN QUERY SELECT TRUE, %[2]d - v_count, v_start + %[1]s;
END;
$$;`, interval, maxOrders)

	reset := `
CREATE OR REPLACE FUNCTION reset_ip_limits(p_ip VARCHAR)
RETURNS VOID
LANGUAGE plpgsql AS $$
BEGIN
    UPDATE ip_trackings
    SET order_count = 0,
        window_start = now(),
        updated_at = now()
    WHERE ip_address = p_ip;
END;
$$;`

	return []string{check, reset}
}
