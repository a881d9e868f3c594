package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/config"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/stock/domain"
	"github.com/smallbiznis/storefront/internal/stock/repository"
	"github.com/smallbiznis/storefront/internal/stock/service"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(conn *gorm.DB) domain.Service {
	return service.New(service.Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Cfg:  config.Config{LowStockThreshold: 10},
	})
}

func seedProduct(t *testing.T, conn *gorm.DB, id, stock int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, conn.Create(&productdomain.Product{
		ID:        id,
		Slug:      "p-" + time.Now().Format("150405.000000000"),
		Name:      "Sepatu",
		Price:     100_000,
		Stock:     stock,
		Status:    productdomain.StatusForStock(stock, 10),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestDecrementUpdatesStatus(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)
	seedProduct(t, conn, 1, 15)

	res, err := svc.Decrement(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Stock)
	assert.Equal(t, productdomain.StatusActive, res.Status)

	res, err = svc.Decrement(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Stock)
	assert.Equal(t, productdomain.StatusLowStock, res.Status)
}

func TestDecrementFloorsAtZero(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)
	seedProduct(t, conn, 1, 2)

	res, err := svc.Decrement(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Stock)
	assert.Equal(t, productdomain.StatusOutOfStock, res.Status)
}

func TestDecrementRejectsBadInput(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)

	_, err := svc.Decrement(context.Background(), 99, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.Decrement(context.Background(), 99, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConcurrentDecrementsNeverGoNegative(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)
	seedProduct(t, conn, 1, 10)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Decrement(context.Background(), 1, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var p productdomain.Product
	require.NoError(t, conn.First(&p, 1).Error)
	assert.Equal(t, int64(0), p.Stock)
	assert.Equal(t, productdomain.StatusOutOfStock, p.Status)
}

func TestDecrementJoinsCallerTransaction(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)
	seedProduct(t, conn, 1, 5)

	err := db.Transact(context.Background(), conn, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := svc.Decrement(ctx, 1, 4); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var p productdomain.Product
	require.NoError(t, conn.First(&p, 1).Error)
	assert.Equal(t, int64(5), p.Stock)
}

func TestRestockLiftsStatus(t *testing.T) {
	conn := testutil.OpenDB(t)
	svc := newService(conn)
	seedProduct(t, conn, 1, 0)

	res, err := svc.Restock(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Stock)
	assert.Equal(t, productdomain.StatusActive, res.Status)
}
