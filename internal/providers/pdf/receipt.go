package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is the pre-formatted content of an order receipt. Money values
// are already rendered with the store currency.
type ReceiptData struct {
	StoreName    string
	StoreAddress string
	StoreEmail   string

	OrderNumber   string
	OrderDate     string
	Status        string
	PaymentMethod string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string

	Items []ReceiptItem

	Subtotal string
	Discount string
	Total    string
}

type ReceiptItem struct {
	Description string
	SKU         string
	Qty         int64
	UnitPrice   string
	Amount      string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(6).Add(
			text.New(receipt.StoreName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(receipt.StoreAddress, props.Text{Top: 5, Size: 8, Align: align.Right}),
			text.New(receipt.StoreEmail, props.Text{Top: 10, Size: 8, Align: align.Right}),
		),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Order number: "+receipt.OrderNumber, props.Text{Top: 0}),
			text.New("Order date: "+receipt.OrderDate, props.Text{Top: 5}),
			text.New("Status: "+receipt.Status, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Payment: "+receipt.PaymentMethod, props.Text{Top: 0, Align: align.Right}),
		),
	)

	m.AddRow(30,
		col.New(12).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.CustomerName, props.Text{Top: 5}),
			text.New(receipt.CustomerAddress, props.Text{Top: 9}),
			text.New(receipt.CustomerPhone, props.Text{Top: 18}),
			text.New(receipt.CustomerEmail, props.Text{Top: 22}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "SKU", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range receipt.Items {
		m.AddRow(8,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.SKU, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, receipt.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if receipt.Discount != "" {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(2, "-"+receipt.Discount, props.Text{Size: 9, Align: align.Right}),
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
