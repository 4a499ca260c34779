package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a profile does not exist
var ErrNotFound = errors.New("profile not found")

// Repository handles risk-profile persistence
// ⭐ SSOT: 프로필 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new profile repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts or updates a profile
// 규칙 트리는 JSONB 단일 컬럼으로 저장 (UI가 자유롭게 편집하는 중첩 구조)
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	query := `
		INSERT INTO journal.risk_profiles (
			profile_id, account_id, name, payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id) DO UPDATE SET
			name = EXCLUDED.name,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err = r.pool.Exec(ctx, query,
		p.ID, p.AccountID, p.Name, payload, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Get retrieves a profile by ID
func (r *Repository) Get(ctx context.Context, profileID string) (*Profile, error) {
	query := `
		SELECT payload, created_at, updated_at
		FROM journal.risk_profiles
		WHERE profile_id = $1
	`

	var payload []byte
	var createdAt, updatedAt time.Time
	err := r.pool.QueryRow(ctx, query, profileID).Scan(&payload, &createdAt, &updatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt

	return &p, nil
}

// ListByAccount retrieves all profiles owned by an account
func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]*Profile, error) {
	query := `
		SELECT payload, created_at, updated_at
		FROM journal.risk_profiles
		WHERE account_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var payload []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&payload, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		var p Profile
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		p.CreatedAt = createdAt
		p.UpdatedAt = updatedAt
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

// ListAll retrieves every stored profile.
// 야간 캐시 리프레시 잡 전용 — 개인용 앱이라 전체 스캔이 저렴함
func (r *Repository) ListAll(ctx context.Context) ([]*Profile, error) {
	query := `
		SELECT payload, created_at, updated_at
		FROM journal.risk_profiles
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var payload []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&payload, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		var p Profile
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		p.CreatedAt = createdAt
		p.UpdatedAt = updatedAt
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

// Delete removes a profile
func (r *Repository) Delete(ctx context.Context, profileID string) error {
	query := `DELETE FROM journal.risk_profiles WHERE profile_id = $1`

	tag, err := r.pool.Exec(ctx, query, profileID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, profileID)
	}

	return nil
}
