package memory

import (
	"context"
	"testing"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewHolderRepo()
	holder := &domain.Holder{CPF: "52998224725", Name: "Ana", Active: true}

	require.NoError(t, repo.Create(ctx, holder))
	assert.ErrorIs(t, repo.Create(ctx, holder), ports.ErrDuplicate)

	got, err := repo.GetByCPF(ctx, holder.CPF)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Active)

	require.NoError(t, repo.Deactivate(ctx, holder.CPF))
	got, _ = repo.GetByCPF(ctx, holder.CPF)
	assert.False(t, got.Active)

	missing, err := repo.GetByCPF(ctx, "00000000000")
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.Deactivate(ctx, "00000000000"), ports.ErrNotFound)
}
