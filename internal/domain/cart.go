package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the persisted shopping cart as the cart collaborator stores it.
// Prices are decimal euro amounts; minor units only appear once a snapshot is
// taken at checkout time.
type Cart struct {
	Id    string `json:"-"`
	Items []CartItem
}

type CartItem struct {
	ID       string
	Type     ProductType
	Name     string
	Price    decimal.Decimal
	Quantity int
}

func NewCart(items []CartItem) Cart {
	return Cart{
		Id:    uuid.New().String(),
		Items: items,
	}
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero

	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total
}

// Snapshot converts the cart into provider-agnostic line items. It is a pure
// transform and must be taken fresh at checkout time so stale pricing never
// reaches the payment provider.
func (c Cart) Snapshot() ([]LineItem, error) {
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]LineItem, len(c.Items))

	for i, entry := range c.Items {
		item := LineItem{
			ProductID:   entry.ID,
			ProductType: entry.Type,
			Name:        entry.Name,
			UnitAmount:  entry.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Quantity:    entry.Quantity,
		}

		if err := item.Validate(); err != nil {
			return nil, err
		}

		items[i] = item
	}

	return items, nil
}
