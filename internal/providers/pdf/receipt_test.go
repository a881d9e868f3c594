package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 94.000", FormatRupiah(94_000))
	assert.Equal(t, "Rp 0", FormatRupiah(0))
	assert.Equal(t, "Rp 1.250.500", FormatRupiah(1_250_500))
}

func TestFromOrderUsesStoreTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	productID := "101"
	order := orderdomain.Response{
		ReceiptLocator: "R1ABC",
		CustomerName:   "Sari",
		AddressLine:    "Jl. Kenanga 1",
		City:           "Bandung",
		Subtotal:       100_000,
		Discount:       6_000,
		Total:          94_000,
		PointsRedeemed: 600,
		CreatedAt:      time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC),
		Items: []orderdomain.ItemResponse{
			{ProductID: &productID, Name: "Kopi Gayo", UnitPrice: 50_000, Quantity: 2, LineTotal: 100_000, IsDiscounted: true},
		},
	}

	data := FromOrder(order, jakarta)
	assert.Equal(t, "02 Mar 2026 03:30", data.OrderedAt)
	assert.Equal(t, "Jl. Kenanga 1, Bandung", data.Address)
	assert.Equal(t, "Rp 94.000", data.Total)
	require.Len(t, data.Items, 1)
	assert.True(t, data.Items[0].Promo)
}

func TestGenerateReceipt(t *testing.T) {
	provider := New(Config{StoreName: "Toko Sari"})

	reader, err := provider.GenerateReceipt(context.Background(), ReceiptData{
		ReceiptLocator: "R1ABC",
		Items:          []ReceiptItem{{Description: "Kopi Gayo", Qty: 1, UnitPrice: "Rp 50.000", Amount: "Rp 50.000"}},
		Total:          "Rp 50.000",
	})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	_, err = provider.GenerateReceipt(context.Background(), ReceiptData{})
	assert.Error(t, err)
}
