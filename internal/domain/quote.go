package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoTradablePrice는 시세에 체결가도 호가도 없을 때 반환됩니다
var ErrNoTradablePrice = errors.New("시세에 사용할 수 있는 가격이 없습니다")

// Quote는 심볼의 현재 시세입니다. 값이 0이면 제공되지 않은 것으로 봅니다.
type Quote struct {
	Symbol string
	Last   decimal.Decimal
	Bid    decimal.Decimal
	Ask    decimal.Decimal
}

var two = decimal.NewFromInt(2)

// TradablePrice는 최근 체결가를 우선 사용하고, 없으면 호가 중간값을 반환합니다
func (q Quote) TradablePrice() (decimal.Decimal, error) {
	if q.Last.IsPositive() {
		return q.Last, nil
	}
	if q.Bid.IsPositive() && q.Ask.IsPositive() {
		return q.Bid.Add(q.Ask).Div(two), nil
	}
	return decimal.Zero, ErrNoTradablePrice
}
