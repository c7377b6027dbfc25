package demo

import "github.com/shopspring/decimal"

// DefaultPlaceholderPrice는 캐시에 없는 심볼에 쓰는 가격입니다
var DefaultPlaceholderPrice = decimal.NewFromInt(100)

// Cache는 데모 모드에서 쓰는 고정 가격표입니다. 생성 후에는 읽기 전용입니다.
type Cache struct {
	prices      map[string]decimal.Decimal
	placeholder decimal.Decimal
}

// DefaultPrices는 기본 데모 가격을 반환합니다
func DefaultPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"MSTU": decimal.RequireFromString("150.50"),
		"MSTZ": decimal.RequireFromString("48.25"),
	}
}

// NewCache는 가격표를 복사해 캐시를 만듭니다.
// placeholder가 0 이하면 DefaultPlaceholderPrice를 사용합니다.
func NewCache(prices map[string]decimal.Decimal, placeholder decimal.Decimal) *Cache {
	copied := make(map[string]decimal.Decimal, len(prices))
	for symbol, p := range prices {
		copied[symbol] = p
	}
	if !placeholder.IsPositive() {
		placeholder = DefaultPlaceholderPrice
	}
	return &Cache{prices: copied, placeholder: placeholder}
}

// Price는 심볼의 데모 가격을 반환합니다. 두 번째 값은 캐시 적중 여부입니다.
func (c *Cache) Price(symbol string) (decimal.Decimal, bool) {
	if p, ok := c.prices[symbol]; ok {
		return p, true
	}
	return c.placeholder, false
}

// Placeholder는 기본 가격을 반환합니다
func (c *Cache) Placeholder() decimal.Decimal {
	return c.placeholder
}
