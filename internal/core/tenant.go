package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/goviral/goviral/internal/model"
	"github.com/goviral/goviral/internal/platform"
)

// TenantService manages tenant accounts and their API tokens.
type TenantService struct {
	db DB
}

// NewTenantService creates a new TenantService.
func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

// Create registers a tenant and returns the model along with the raw access
// token. The raw token must be shown to the caller exactly once.
func (s *TenantService) Create(ctx context.Context, email, name, countryCode string) (*model.Tenant, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate tenant token: %w", err)
	}
	rawToken := "gv_" + hex.EncodeToString(rawBytes)

	hash := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(hash[:])

	id := platform.NewID()
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, email, name, country_code, token_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		id, email, name, countryCode, tokenHash,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert tenant: %w", err)
	}

	t := &model.Tenant{
		ID:          id,
		Email:       email,
		Name:        name,
		CountryCode: countryCode,
	}
	err = s.db.QueryRow(ctx, `SELECT created_at, updated_at FROM tenants WHERE id = $1`, id).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get tenant timestamps: %w", err)
	}

	return t, rawToken, nil
}

// GetByID retrieves a tenant by its ID.
func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	return s.getWhere(ctx, "id = $1", id)
}

// GetByToken resolves a raw bearer token to a tenant.
func (s *TenantService) GetByToken(ctx context.Context, rawToken string) (*model.Tenant, error) {
	hash := sha256.Sum256([]byte(rawToken))
	return s.getWhere(ctx, "token_hash = $1", hex.EncodeToString(hash[:]))
}

func (s *TenantService) getWhere(ctx context.Context, where string, args ...any) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, country_code, created_at, updated_at FROM tenants WHERE `+where, args...,
	).Scan(&t.ID, &t.Email, &t.Name, &t.CountryCode, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}
