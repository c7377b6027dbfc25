package tastytrade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
)

type quoteItem struct {
	Symbol string          `json:"symbol"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Last   decimal.Decimal `json:"last"`
}

// GetQuote는 주식 종목의 현재 호가를 조회합니다.
// 시세 권한이 없거나 엔드포인트가 없으면 ErrQuoteUnavailable을 반환합니다.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	const (
		op       = "get_quote"
		endpoint = "/market-data/by-type"
	)
	params := url.Values{}
	params.Set("equity", symbol)

	resp, err := c.doRequest(ctx, op, http.MethodGet, endpoint, params, nil, true)
	if err != nil {
		var gw *exchange.GatewayError
		if errors.As(err, &gw) && (gw.StatusCode == http.StatusNotFound || gw.StatusCode == http.StatusForbidden) {
			return nil, &exchange.GatewayError{Op: op, Method: http.MethodGet, Endpoint: endpoint, StatusCode: gw.StatusCode,
				Err: fmt.Errorf("%w: %v", exchange.ErrQuoteUnavailable, gw.Err)}
		}
		return nil, err
	}

	var data struct {
		Items []quoteItem `json:"items"`
	}
	if err := decodeData(op, http.MethodGet, endpoint, resp, &data); err != nil {
		return nil, err
	}

	for _, item := range data.Items {
		if item.Symbol == "" || item.Symbol == symbol {
			return &domain.Quote{Symbol: symbol, Bid: item.Bid, Ask: item.Ask, Last: item.Last}, nil
		}
	}
	return nil, &exchange.GatewayError{Op: op, Method: http.MethodGet, Endpoint: endpoint,
		Err: fmt.Errorf("%w: %s 시세 없음", exchange.ErrQuoteUnavailable, symbol)}
}
