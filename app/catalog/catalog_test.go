package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func TestLoadAndLookup(t *testing.T) {
	p := new(mockProvider)
	p.On("ListProducts", mock.Anything).Return([]domain.Product{
		{ID: 1, Name: "Paracetamol", UnitPrice: decimal.NewFromInt(2000), Stock: 100},
		{ID: 7, Name: "Amoxicillin", UnitPrice: decimal.NewFromInt(5000), Stock: 0},
	}, nil)

	snap, err := Load(context.Background(), p)
	require.NoError(t, err)
	p.AssertExpectations(t)

	got, err := snap.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", got.Name)
	assert.False(t, got.InStock())

	_, err = snap.Lookup(3)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSnapshotIsImmutable(t *testing.T) {
	src := []domain.Product{{ID: 1, Name: "Paracetamol", Stock: 5}}
	snap := New(src)
	src[0].Stock = 0

	list := snap.Products()
	list[0].Name = "changed"

	got, err := snap.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, "Paracetamol", got.Name)
}

func TestLoadPropagatesProviderError(t *testing.T) {
	p := new(mockProvider)
	boom := errors.New("db down")
	p.On("ListProducts", mock.Anything).Return(nil, boom)

	_, err := Load(context.Background(), p)
	assert.ErrorIs(t, err, boom)
}
