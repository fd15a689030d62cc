package memory

import (
	"context"
	"fmt"
	"sync"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
)

// HolderRepo is an in-process implementation of ports.HolderRepository.
type HolderRepo struct {
	mu      sync.RWMutex
	holders map[string]domain.Holder
}

// NewHolderRepo creates an empty holder repository.
func NewHolderRepo() *HolderRepo {
	return &HolderRepo{holders: make(map[string]domain.Holder)}
}

func (r *HolderRepo) Create(_ context.Context, holder *domain.Holder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.holders[holder.CPF]; exists {
		return fmt.Errorf("create holder: %w", ports.ErrDuplicate)
	}
	r.holders[holder.CPF] = *holder
	return nil
}

func (r *HolderRepo) GetByCPF(_ context.Context, cpf string) (*domain.Holder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.holders[cpf]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r *HolderRepo) Deactivate(_ context.Context, cpf string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holders[cpf]
	if !ok {
		return fmt.Errorf("deactivate holder: %w", ports.ErrNotFound)
	}
	h.Active = false
	r.holders[cpf] = h
	return nil
}
