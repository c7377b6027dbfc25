package tastytrade

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
)

type orderLeg struct {
	InstrumentType string `json:"instrument-type"`
	Symbol         string `json:"symbol"`
	Quantity       int64  `json:"quantity"`
	Action         string `json:"action"`
}

type orderBody struct {
	TimeInForce string           `json:"time-in-force"`
	OrderType   string           `json:"order-type"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	PriceEffect string           `json:"price-effect,omitempty"`
	Legs        []orderLeg       `json:"legs"`
}

type orderData struct {
	ID     jsonID `json:"id"`
	Status string `json:"status"`
}

// jsonID는 숫자와 문자열 형태의 주문 ID를 모두 받습니다
type jsonID string

func (id *jsonID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	*id = jsonID(strings.Trim(string(b), `"`))
	return nil
}

// legAction은 주문 방향과 포지션 효과를 TastyTrade action 문자열로 변환합니다
func legAction(side domain.OrderSide, effect domain.PositionEffect) string {
	switch {
	case side == domain.Buy && effect == domain.Close:
		return "Buy to Close"
	case side == domain.Sell && effect == domain.Close:
		return "Sell to Close"
	case side == domain.Sell:
		return "Sell to Open"
	default:
		return "Buy to Open"
	}
}

// mapStatus는 TastyTrade 주문 상태를 도메인 상태로 변환합니다
func mapStatus(status string) domain.OrderStatus {
	switch strings.ToLower(status) {
	case "filled":
		return domain.OrderFilled
	case "rejected":
		return domain.OrderRejected
	case "cancelled", "canceled", "expired", "removed":
		return domain.OrderCancelled
	default:
		return domain.OrderPending
	}
}

// PlaceOrder는 주식 주문을 전송합니다
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	const op = "place_order"
	endpoint := fmt.Sprintf("/accounts/%s/orders", url.PathEscape(req.AccountID))

	body := orderBody{
		TimeInForce: "Day",
		OrderType:   "Market",
		Legs: []orderLeg{{
			InstrumentType: "Equity",
			Symbol:         req.Symbol,
			Quantity:       req.Quantity,
			Action:         legAction(req.Side, req.Effect),
		}},
	}
	if req.Type == domain.Limit {
		price := req.LimitPrice.Round(2)
		body.OrderType = "Limit"
		body.Price = &price
		body.PriceEffect = "Debit"
		if req.Side == domain.Sell {
			body.PriceEffect = "Credit"
		}
	}

	resp, err := c.doRequest(ctx, op, http.MethodPost, endpoint, nil, body, true)
	if err != nil {
		return nil, err
	}

	var data struct {
		Order orderData `json:"order"`
	}
	if err := decodeData(op, http.MethodPost, endpoint, resp, &data); err != nil {
		return nil, err
	}
	if data.Order.ID == "" {
		return nil, &exchange.GatewayError{Op: op, Method: http.MethodPost, Endpoint: endpoint,
			Err: fmt.Errorf("%w: 주문 ID 없음", exchange.ErrMalformed)}
	}

	return &domain.Order{
		ID:         string(data.Order.ID),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Type:       req.Type,
		LimitPrice: req.LimitPrice,
		Status:     mapStatus(data.Order.Status),
	}, nil
}

// GetOrderStatus는 주문 상태를 조회합니다
func (c *Client) GetOrderStatus(ctx context.Context, accountID, orderID string) (domain.OrderStatus, error) {
	const op = "get_order_status"
	endpoint := fmt.Sprintf("/accounts/%s/orders/%s", url.PathEscape(accountID), url.PathEscape(orderID))

	resp, err := c.doRequest(ctx, op, http.MethodGet, endpoint, nil, nil, true)
	if err != nil {
		return "", err
	}

	var data orderData
	if err := decodeData(op, http.MethodGet, endpoint, resp, &data); err != nil {
		return "", err
	}
	return mapStatus(data.Status), nil
}

// CancelOrder는 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, accountID, orderID string) error {
	const op = "cancel_order"
	endpoint := fmt.Sprintf("/accounts/%s/orders/%s", url.PathEscape(accountID), url.PathEscape(orderID))

	_, err := c.doRequest(ctx, op, http.MethodDelete, endpoint, nil, nil, true)
	return err
}

var _ exchange.Broker = (*Client)(nil)
