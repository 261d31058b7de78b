package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/ticket-registry/internal/utils"
)

// Operator mirrors the 'operators' table.  An operator is any party that
// authenticated with the gateway to obtain identity tokens: sport centers,
// back-office staff, resellers.  The registry's capability sets decide what
// each identity may actually do; this table only guards token issuance.
type Operator struct {
	ID         uint64
	Identity   string
	SecretHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OperatorRepo struct{ DB *sql.DB }

func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

// EnsureSchema creates the operators table when it does not exist yet.
func (r *OperatorRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS operators (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			identity    VARCHAR(128)    NOT NULL,
			secret_hash VARCHAR(255)    NOT NULL,
			is_active   TINYINT(1)      NOT NULL DEFAULT 1,
			created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_operators_identity (identity)
		)`)
	return err
}

// Create inserts an operator and returns its row id.  The access secret is
// stored as a bcrypt hash only.
func (r *OperatorRepo) Create(ctx context.Context, identity, secret string, cost int) (uint64, error) {
	identity = strings.TrimSpace(identity)
	hash, err := utils.HashSecret(secret, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO operators (identity, secret_hash) VALUES (?,?)",
		identity, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrIdentityExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByIdentity fetches an operator row by its identity string.
func (r *OperatorRepo) GetByIdentity(ctx context.Context, identity string) (Operator, error) {
	identity = strings.TrimSpace(identity)
	var o Operator
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,identity,secret_hash,is_active,created_at,updated_at FROM operators WHERE identity=? LIMIT 1",
		identity).Scan(&o.ID, &o.Identity, &o.SecretHash, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
