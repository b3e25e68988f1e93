package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/infra/pgutils"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
)

var _ redemptions.Log = (*redemptionsRepo)(nil)

type redemptionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *redemptionsRepo {
	return &redemptionsRepo{db: db}
}

func (r *redemptionsRepo) Append(ctx context.Context, rec domain.Record) error {
	req, err := json.Marshal(rec.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO redemptions (
			id, user_id, kind, status, coins, usd_value, profit_margin,
			live_fulfillment, provider_ref, request, details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rec.ID, rec.Request.UserID, string(rec.Request.Kind), string(rec.Status), rec.Coins,
		rec.USDValue, rec.ProfitMargin, rec.LiveFulfillment, rec.ProviderRef,
		req, details, rec.CreatedAt,
	)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return redemptions.ErrDuplicateRecord
		}

		return fmt.Errorf("insert redemption: %w", err)
	}

	return nil
}

func (r *redemptionsRepo) List(ctx context.Context, userID string, limit int) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, coins, usd_value, profit_margin,
		       live_fulfillment, provider_ref, request, details, created_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, redemptions.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query redemptions: %w", err)
	}
	defer rows.Close()

	var out []domain.Record

	for rows.Next() {
		var (
			rec     domain.Record
			status  string
			req     []byte
			details []byte
		)

		err = rows.Scan(
			&rec.ID, &status, &rec.Coins, &rec.USDValue, &rec.ProfitMargin,
			&rec.LiveFulfillment, &rec.ProviderRef, &req, &details, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}

		rec.Status = domain.Status(status)

		err = json.Unmarshal(req, &rec.Request)
		if err != nil {
			return nil, fmt.Errorf("unmarshal request %s: %w", rec.ID, err)
		}

		err = json.Unmarshal(details, &rec.Details)
		if err != nil {
			return nil, fmt.Errorf("unmarshal details %s: %w", rec.ID, err)
		}

		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate redemptions: %w", err)
	}

	return out, nil
}
