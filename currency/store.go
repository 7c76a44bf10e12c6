package currency

import "context"

type Store interface {
	SaveCurrency(ctx context.Context, c *Currency) error
	ListCurrencies(ctx context.Context) ([]*Currency, error)
}
