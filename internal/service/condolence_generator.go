package service

import (
	"errors"
	"strings"

	"memorial-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const anonymousCustomer = "A friend"

var errNoMemorialItems = errors.New("no memorial items in order")

type MemorialLine struct {
	Product     *models.Product
	Quantity    int32
	UnitPrice   decimal.Decimal
	VariantName *string
}

type OrderCondolenceInput struct {
	ObituaryID        uuid.UUID
	OrderID           uuid.UUID
	CustomerName      string
	CustomerEmail     string
	DedicationMessage string
	Lines             []MemorialLine
}

// MemorialLines отбирает позиции корзины с мемориальными товарами.
func MemorialLines(c *models.Cart) []MemorialLine {
	var out []MemorialLine
	for _, it := range activeItems(c) {
		if it.Product == nil || !it.Product.IsMemorial() {
			continue
		}
		out = append(out, MemorialLine{
			Product:     it.Product,
			Quantity:    it.Quantity,
			UnitPrice:   it.PurchasePrice,
			VariantName: it.VariantName,
		})
	}
	return out
}

// BuildOrderCondolence собирает ровно одно соболезнование по оплаченному заказу.
// Если в заказе товары разных типов, тип соболезнования — mixed.
func BuildOrderCondolence(in OrderCondolenceInput) (*models.Condolence, error) {
	if len(in.Lines) == 0 {
		return nil, errNoMemorialItems
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = anonymousCustomer
	}

	summary := make([]string, 0, len(in.Lines))
	total := decimal.Zero
	var qty int32
	ctype := models.CondolenceType(in.Lines[0].Product.Type)
	for _, l := range in.Lines {
		part := l.Product.Name
		if l.VariantName != nil && *l.VariantName != "" {
			part += " (" + *l.VariantName + ")"
		}
		summary = append(summary, part+" x"+decimal.NewFromInt32(l.Quantity).String())

		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
		qty += l.Quantity
		if models.CondolenceType(l.Product.Type) != ctype {
			ctype = models.CondolenceMixed
		}
	}

	message := strings.TrimSpace(in.DedicationMessage)
	if message == "" {
		message = name + " planted: " + strings.Join(summary, ", ")
	}

	orderID := in.OrderID
	first := in.Lines[0]
	c := &models.Condolence{
		ObituaryID: in.ObituaryID,
		Name:       name,
		Message:    message,
		IsPrivate:  false,
		HasCandle:  false,
		IsApproved: true,
		Type:       ctype,
		OrderID:    &orderID,
		ProductDetails: &models.ProductDetails{
			ProductID:   first.Product.ID,
			ProductName: first.Product.Name,
			ProductType: first.Product.Type,
			VariantName: first.VariantName,
			Quantity:    qty,
			TotalPrice:  total.Round(2),
			SKU:         first.Product.SKU,
		},
	}
	if email := strings.ToLower(strings.TrimSpace(in.CustomerEmail)); email != "" {
		c.Email = &email
	}
	return c, nil
}
