package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/config"
	"storal-pricer/internal/engine"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrOverrideNotFound = errors.New("coefficient override not found")

// PostgresStorage persists admin coefficient overrides and the quote log.
type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// QuoteRecord is one priced quote as written to the quote log.
type QuoteRecord struct {
	ID             int64     `db:"id"`
	RequestID      string    `db:"request_id"`
	UserID         int64     `db:"user_id"`
	ModelID        string    `db:"model_id"`
	Width          int       `db:"width_mm"`
	Projection     int       `db:"projection_mm"`
	UsedProjection int       `db:"used_projection_mm"`
	ArmCount       int       `db:"arm_count"`
	TotalHT        int64     `db:"total_ht"`
	TotalTTC       int64     `db:"total_ttc"`
	CatalogVersion string    `db:"catalog_version"`
	CreatedAt      time.Time `db:"created_at"`
}

// NewQuoteRecord flattens an engine quote into a log row.
func NewQuoteRecord(requestID string, userID int64, version string, q *engine.Quote) QuoteRecord {
	return QuoteRecord{
		RequestID:      requestID,
		UserID:         userID,
		ModelID:        q.ModelID,
		Width:          q.Width,
		Projection:     q.Projection,
		UsedProjection: q.Breakdown.UsedProjection,
		ArmCount:       q.Breakdown.ArmCount,
		TotalHT:        q.HT,
		TotalTTC:       q.TTC,
		CatalogVersion: version,
		CreatedAt:      time.Now().UTC(),
	}
}

type ModelCount struct {
	ModelID string `db:"model_id"`
	Count   int    `db:"count"`
}

type QuoteStatistics struct {
	TotalQuotes int          `db:"total_quotes"`
	TotalHT     int64        `db:"total_ht"`
	TodayQuotes int          `db:"-"`
	WeekQuotes  int          `db:"-"`
	TopModels   []ModelCount `db:"-"`
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...", zap.String("host", cfg.Host), zap.String("database", cfg.Name))

	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return fmt.Errorf("connect: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{db: db, logger: logger}, nil
}

// NewPostgresStorageFromDB wraps an existing connection.
func NewPostgresStorageFromDB(db *sqlx.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// CoefficientOverrides returns every stored override, ordered so that
// applying them is deterministic.
func (s *PostgresStorage) CoefficientOverrides(ctx context.Context) ([]catalog.CoefficientOverride, error) {
	const operation = "storage.CoefficientOverrides"

	var overrides []catalog.CoefficientOverride
	err := s.db.SelectContext(ctx, &overrides, `
        SELECT model_id, option_key, value
        FROM coefficient_overrides
        ORDER BY model_id, option_key
    `)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return overrides, nil
}

// SetCoefficientOverride inserts or replaces one override.
func (s *PostgresStorage) SetCoefficientOverride(ctx context.Context, o catalog.CoefficientOverride, updatedBy int64) error {
	const operation = "storage.SetCoefficientOverride"

	if o.Value <= 0 {
		return fmt.Errorf("%s: coefficient must be positive, got %v", operation, o.Value)
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO coefficient_overrides (model_id, option_key, value, updated_by, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (model_id, option_key)
        DO UPDATE SET value = EXCLUDED.value,
                      updated_by = EXCLUDED.updated_by,
                      updated_at = EXCLUDED.updated_at
    `, o.ModelID, o.Option, o.Value, updatedBy)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Coefficient override saved",
		zap.String("model_id", o.ModelID),
		zap.String("option", string(o.Option)),
		zap.Float64("value", o.Value),
		zap.Int64("updated_by", updatedBy))
	return nil
}

func (s *PostgresStorage) DeleteCoefficientOverride(ctx context.Context, modelID string, option catalog.OptionKey) error {
	const operation = "storage.DeleteCoefficientOverride"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM coefficient_overrides WHERE model_id = $1 AND option_key = $2`,
		modelID, option)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w: %s/%s", operation, ErrOverrideNotFound, modelID, option)
	}
	return nil
}

func (s *PostgresStorage) RecordQuote(ctx context.Context, rec QuoteRecord) (int64, error) {
	const operation = "storage.RecordQuote"

	var id int64
	err := s.db.QueryRowxContext(ctx, `
        INSERT INTO quote_log (
            request_id, user_id, model_id, width_mm, projection_mm,
            used_projection_mm, arm_count, total_ht, total_ttc,
            catalog_version, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `,
		rec.RequestID,
		rec.UserID,
		rec.ModelID,
		rec.Width,
		rec.Projection,
		rec.UsedProjection,
		rec.ArmCount,
		rec.TotalHT,
		rec.TotalTTC,
		rec.CatalogVersion,
		rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return id, nil
}

// RecentQuotes returns the latest quotes, newest first.
func (s *PostgresStorage) RecentQuotes(ctx context.Context, limit int) ([]QuoteRecord, error) {
	const operation = "storage.RecentQuotes"

	var out []QuoteRecord
	err := s.db.SelectContext(ctx, &out, `
        SELECT id, request_id, user_id, model_id, width_mm, projection_mm,
               used_projection_mm, arm_count, total_ht, total_ttc,
               catalog_version, created_at
        FROM quote_log
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

func (s *PostgresStorage) QuoteStatistics(ctx context.Context) (*QuoteStatistics, error) {
	const operation = "storage.QuoteStatistics"

	stats := &QuoteStatistics{}
	err := s.db.GetContext(ctx, stats, `
        SELECT
            COUNT(*) AS total_quotes,
            COALESCE(SUM(total_ht), 0) AS total_ht
        FROM quote_log
    `)
	if err != nil {
		return nil, fmt.Errorf("%s: totals: %w", operation, err)
	}

	if err := s.db.GetContext(ctx, &stats.TodayQuotes,
		`SELECT COUNT(*) FROM quote_log WHERE created_at >= CURRENT_DATE`); err != nil {
		return nil, fmt.Errorf("%s: today: %w", operation, err)
	}
	if err := s.db.GetContext(ctx, &stats.WeekQuotes,
		`SELECT COUNT(*) FROM quote_log WHERE created_at >= CURRENT_DATE - INTERVAL '7 days'`); err != nil {
		return nil, fmt.Errorf("%s: week: %w", operation, err)
	}

	err = s.db.SelectContext(ctx, &stats.TopModels, `
        SELECT model_id, COUNT(*) AS count
        FROM quote_log
        GROUP BY model_id
        ORDER BY count DESC, model_id
        LIMIT 5
    `)
	if err != nil {
		return nil, fmt.Errorf("%s: top models: %w", operation, err)
	}
	return stats, nil
}
