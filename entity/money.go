package entity

import "github.com/shopspring/decimal"

const DefaultCurrency = "USD"

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}

	return Money{Amount: amount.Round(2), Currency: currency}
}

func (m Money) Mul(n int) Money {
	return NewMoney(m.Amount.Mul(decimal.NewFromInt(int64(n))), m.Currency)
}

func (m Money) Percent(p int) Money {
	return NewMoney(m.Amount.Mul(decimal.NewFromInt(int64(p))).Div(decimal.NewFromInt(100)), m.Currency)
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}
