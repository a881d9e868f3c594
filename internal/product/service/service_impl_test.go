package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/product/repository"
	"github.com/smallbiznis/storefront/internal/product/service"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) domain.Service {
	t.Helper()
	return service.New(service.Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Repo:  repository.Provide(),
		Cfg:   config.Config{LowStockThreshold: 5},
	})
}

func TestCreateDerivesSlugAndStatus(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:     "Kopi Gayo Arabika",
		Price:    85_000,
		Stock:    3,
		Metadata: map[string]any{"origin": "Aceh"},
	})
	require.NoError(t, err)
	assert.Equal(t, "kopi-gayo-arabika", created.Slug)
	assert.Equal(t, domain.StatusLowStock, created.Status)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, got.Slug)
	assert.Equal(t, int64(85_000), got.Price)
	assert.Equal(t, "Aceh", got.Metadata["origin"])
}

func TestCreateSlugCollisions(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateRequest{Name: "Teh Tarik", Price: 10_000, Stock: 20})
	require.NoError(t, err)

	// A derived slug that collides gets a suffix.
	second, err := svc.Create(ctx, domain.CreateRequest{Name: "Teh Tarik", Price: 12_000, Stock: 20})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "teh-tarik-"))

	// An explicit slug that collides is rejected.
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Teh Lain", Slug: "teh-tarik", Price: 1, Stock: 1})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name string
		req  domain.CreateRequest
		err  error
	}{
		{"blank name", domain.CreateRequest{Name: "  ", Price: 1}, domain.ErrInvalidName},
		{"negative price", domain.CreateRequest{Name: "Gula", Price: -1}, domain.ErrInvalidPrice},
		{"negative stock", domain.CreateRequest{Name: "Gula", Price: 1, Stock: -2}, domain.ErrInvalidStock},
		{"unsluggable", domain.CreateRequest{Name: "!!!", Price: 1}, domain.ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGetAndListProducts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = svc.Get(ctx, "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Beras", Price: 60_000, Stock: 0})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Minyak", Price: 30_000, Stock: 50})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	outOfStock, err := svc.List(ctx, domain.ListRequest{Status: domain.StatusOutOfStock})
	require.NoError(t, err)
	require.Len(t, outOfStock, 1)
	assert.Equal(t, "Beras", outOfStock[0].Name)
}

func TestStatusForStock(t *testing.T) {
	assert.Equal(t, domain.StatusOutOfStock, domain.StatusForStock(0, 5))
	assert.Equal(t, domain.StatusLowStock, domain.StatusForStock(5, 5))
	assert.Equal(t, domain.StatusActive, domain.StatusForStock(6, 5))
}
