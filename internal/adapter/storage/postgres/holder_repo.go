package postgres

import (
	"context"
	"errors"
	"fmt"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// HolderRepo implements ports.HolderRepository.
type HolderRepo struct {
	pool Pool
}

// NewHolderRepo creates a new HolderRepo.
func NewHolderRepo(pool Pool) *HolderRepo {
	return &HolderRepo{pool: pool}
}

// Create inserts a holder. A taken CPF yields ports.ErrDuplicate.
func (r *HolderRepo) Create(ctx context.Context, h *domain.Holder) error {
	query := `INSERT INTO holders (cpf, name, active, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, h.CPF, h.Name, h.Active, h.CreatedAt); err != nil {
		return classify(fmt.Errorf("insert holder: %w", err))
	}
	return nil
}

// GetByCPF fetches a holder by its normalized CPF.
func (r *HolderRepo) GetByCPF(ctx context.Context, cpf string) (*domain.Holder, error) {
	query := `SELECT cpf, name, active, created_at FROM holders WHERE cpf = $1`

	h := &domain.Holder{}
	err := r.pool.QueryRow(ctx, query, cpf).Scan(&h.CPF, &h.Name, &h.Active, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get holder by cpf: %w", err)
	}
	return h, nil
}

// Deactivate clears the active flag. The UPDATE row lock blocks
// LedgerStore.CreateAccount's FOR SHARE read of the holder until commit, so
// no account can be inserted under a holder once this returns.
func (r *HolderRepo) Deactivate(ctx context.Context, cpf string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE holders SET active = FALSE WHERE cpf = $1`, cpf)
	if err != nil {
		return fmt.Errorf("deactivate holder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("holder: %w", ports.ErrNotFound)
	}
	return nil
}
