package tastytrade

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
)

type accountItem struct {
	Account struct {
		AccountNumber string `json:"account-number"`
		AccountType   string `json:"account-type-name"`
	} `json:"account"`
}

type positionItem struct {
	Symbol            string          `json:"symbol"`
	InstrumentType    string          `json:"instrument-type"`
	Quantity          decimal.Decimal `json:"quantity"`
	QuantityDirection string          `json:"quantity-direction"`
}

// ListAccounts는 로그인한 고객의 계좌 번호 목록을 조회합니다
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	const (
		op       = "list_accounts"
		endpoint = "/customers/me/accounts"
	)
	resp, err := c.doRequest(ctx, op, http.MethodGet, endpoint, nil, nil, true)
	if err != nil {
		return nil, err
	}

	var data struct {
		Items []accountItem `json:"items"`
	}
	if err := decodeData(op, http.MethodGet, endpoint, resp, &data); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(data.Items))
	for _, item := range data.Items {
		if item.Account.AccountNumber != "" {
			ids = append(ids, item.Account.AccountNumber)
		}
	}
	return ids, nil
}

// GetAccountSnapshot은 계좌의 현금 잔고와 보유 포지션을 조회합니다.
// accountIDHint가 비어 있으면 첫 번째 계좌를 사용합니다.
func (c *Client) GetAccountSnapshot(ctx context.Context, accountIDHint string) (*domain.AccountSnapshot, error) {
	accountID := accountIDHint
	if accountID == "" {
		ids, err := c.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, &exchange.GatewayError{
				Op:       "list_accounts",
				Method:   http.MethodGet,
				Endpoint: "/customers/me/accounts",
				Err:      exchange.ErrNoAccount,
			}
		}
		accountID = ids[0]
	}

	cash, err := c.cashBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	positions, err := c.positions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &domain.AccountSnapshot{
		AccountID:   accountID,
		CashBalance: cash,
		Positions:   positions,
	}, nil
}

func (c *Client) cashBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const op = "get_balances"
	endpoint := fmt.Sprintf("/accounts/%s/balances", url.PathEscape(accountID))

	resp, err := c.doRequest(ctx, op, http.MethodGet, endpoint, nil, nil, true)
	if err != nil {
		return decimal.Zero, err
	}

	var data struct {
		CashBalance *decimal.Decimal `json:"cash-balance"`
	}
	if err := decodeData(op, http.MethodGet, endpoint, resp, &data); err != nil {
		return decimal.Zero, err
	}
	if data.CashBalance == nil {
		return decimal.Zero, &exchange.GatewayError{Op: op, Method: http.MethodGet, Endpoint: endpoint,
			Err: fmt.Errorf("%w: cash-balance 필드 없음", exchange.ErrMalformed)}
	}
	return *data.CashBalance, nil
}

func (c *Client) positions(ctx context.Context, accountID string) ([]domain.Position, error) {
	const op = "get_positions"
	endpoint := fmt.Sprintf("/accounts/%s/positions", url.PathEscape(accountID))

	resp, err := c.doRequest(ctx, op, http.MethodGet, endpoint, nil, nil, true)
	if err != nil {
		return nil, err
	}

	var data struct {
		Items []positionItem `json:"items"`
	}
	if err := decodeData(op, http.MethodGet, endpoint, resp, &data); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(data.Items))
	for _, item := range data.Items {
		qty := item.Quantity.IntPart()
		if qty == 0 || item.Symbol == "" {
			continue
		}
		if qty < 0 {
			qty = -qty
		}
		if item.QuantityDirection == "Short" {
			qty = -qty
		}
		positions = append(positions, domain.Position{Symbol: item.Symbol, Quantity: qty})
	}
	return positions, nil
}
