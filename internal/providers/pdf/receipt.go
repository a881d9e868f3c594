package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
)

type ReceiptData struct {
	ReceiptLocator string
	OrderedAt      string
	PaidAt         string
	Status         string
	PaymentStatus  string
	PaymentMethod  string

	CustomerName string
	Phone        string
	Email        string
	Address      string
	Notes        string

	Items []ReceiptItem

	Subtotal       string
	Discount       string
	PointsRedeemed int64
	DeliveryFee    string
	Total          string
}

type ReceiptItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
	Promo       bool
}

// FormatRupiah renders whole currency units with dot thousand separators.
func FormatRupiah(amount int64) string {
	return "Rp " + strings.ReplaceAll(humanize.Comma(amount), ",", ".")
}

// FromOrder builds the receipt view of an order, with timestamps in the store timezone.
func FromOrder(order orderdomain.Response, loc *time.Location) ReceiptData {
	if loc == nil {
		loc = time.UTC
	}
	address := strings.Join(nonEmpty(order.AddressLine, order.City, order.PostalCode), ", ")
	data := ReceiptData{
		ReceiptLocator: order.ReceiptLocator,
		OrderedAt:      order.CreatedAt.In(loc).Format("02 Jan 2006 15:04"),
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		PaymentMethod:  order.PaymentMethod,
		CustomerName:   order.CustomerName,
		Phone:          order.Phone,
		Email:          order.Email,
		Address:        address,
		Notes:          order.Notes,
		Subtotal:       FormatRupiah(order.Subtotal),
		Discount:       FormatRupiah(order.Discount),
		PointsRedeemed: order.PointsRedeemed,
		DeliveryFee:    FormatRupiah(order.DeliveryFee),
		Total:          FormatRupiah(order.Total),
	}
	if order.PaidAt != nil {
		data.PaidAt = order.PaidAt.In(loc).Format("02 Jan 2006 15:04")
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, ReceiptItem{
			Description: item.Name,
			Qty:         item.Quantity,
			UnitPrice:   FormatRupiah(item.UnitPrice),
			Amount:      FormatRupiah(item.LineTotal),
			Promo:       item.IsDiscounted,
		})
	}
	return data
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p *MarotoProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	if receipt.ReceiptLocator == "" {
		return nil, fmt.Errorf("receipt locator is required")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, p.storeName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Receipt "+receipt.ReceiptLocator, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   3,
		}),
	)

	paid := receipt.PaymentStatus
	if receipt.PaidAt != "" {
		paid += " (" + receipt.PaidAt + ")"
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New("Ordered: "+receipt.OrderedAt, props.Text{Top: 0}),
			text.New("Status: "+receipt.Status, props.Text{Top: 4}),
			text.New("Payment: "+receipt.PaymentMethod+", "+paid, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.CustomerName+" / "+receipt.Phone, props.Text{Top: 4}),
			text.New(receipt.Address, props.Text{Top: 8}),
			text.New(receipt.Notes, props.Text{Top: 12, Size: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		description := item.Description
		if item.Promo {
			description += " (promo)"
		}
		m.AddRow(8,
			text.NewCol(6, description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := [][2]string{
		{"Subtotal", receipt.Subtotal},
		{"Discount", "-" + receipt.Discount},
		{"Delivery", receipt.DeliveryFee},
	}
	if receipt.PointsRedeemed > 0 {
		totals = append(totals, [2]string{"Points used", fmt.Sprintf("%d pts", receipt.PointsRedeemed)})
	}
	for _, row := range totals {
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row[0], props.Text{Size: 9}),
			text.NewCol(2, row[1], props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
