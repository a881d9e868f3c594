package seed

import (
	"testing"

	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoCatalogIsIdempotent(t *testing.T) {
	conn := testutil.OpenDB(t)
	node := testutil.Node(t)

	created, err := EnsureDemoCatalog(conn, node, 10)
	require.NoError(t, err)
	assert.Equal(t, len(demoCatalog), created)

	created, err = EnsureDemoCatalog(conn, node, 10)
	require.NoError(t, err)
	assert.Zero(t, created)

	var count int64
	require.NoError(t, conn.Model(&productdomain.Product{}).Count(&count).Error)
	assert.Equal(t, int64(len(demoCatalog)), count)
}

func TestEnsureDemoCatalogDerivesStatus(t *testing.T) {
	conn := testutil.OpenDB(t)

	_, err := EnsureDemoCatalog(conn, testutil.Node(t), 10)
	require.NoError(t, err)

	var low, out, gift productdomain.Product
	require.NoError(t, conn.Where("slug = ?", "gula-aren-cair-500ml").First(&low).Error)
	require.NoError(t, conn.Where("slug = ?", "kue-lapis-legit").First(&out).Error)
	require.NoError(t, conn.Where("slug = ?", "voucher-100k").First(&gift).Error)
	assert.Equal(t, productdomain.StatusLowStock, low.Status)
	assert.Equal(t, productdomain.StatusOutOfStock, out.Status)
	assert.True(t, gift.IsGiftCard)
	assert.Equal(t, true, out.Metadata["preorder"])
}

func TestEnsureDemoCatalogRequiresHandles(t *testing.T) {
	_, err := EnsureDemoCatalog(nil, nil, 10)
	assert.Error(t, err)
	_, err = EnsureDemoCatalog(testutil.OpenDB(t), nil, 10)
	assert.Error(t, err)
}
