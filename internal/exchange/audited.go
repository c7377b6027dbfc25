package exchange

import (
	"context"

	"github.com/assist-by/tastyhook/internal/audit"
	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/metrics"
)

// Recorder는 브로커 호출을 기록하는 감사 로거입니다
type Recorder interface {
	LogRequest(source audit.Source, endpoint, method string, payload any)
	LogResponse(source audit.Source, endpoint, method string, payload any)
	LogError(source audit.Source, endpoint, method string, payload any, err error)
}

// AuditedBroker는 모든 브로커 호출 전후로 감사 로그를 남깁니다.
// 요청 로그는 호출 전에 남기므로 호출 도중 프로세스가 죽어도 요청 기록은 남습니다.
type AuditedBroker struct {
	next     Broker
	recorder Recorder
	source   audit.Source
}

// NewAuditedBroker는 브로커를 감사 로거로 감쌉니다
func NewAuditedBroker(next Broker, recorder Recorder, source audit.Source) *AuditedBroker {
	return &AuditedBroker{next: next, recorder: recorder, source: source}
}

// Name은 내부 브로커 이름을 반환합니다
func (b *AuditedBroker) Name() string {
	return b.next.Name()
}

func (b *AuditedBroker) before(op, method string, payload any) {
	b.recorder.LogRequest(b.source, op, method, payload)
}

func (b *AuditedBroker) after(op, method string, resp any, err error) {
	if err != nil {
		b.recorder.LogError(b.source, op, method, map[string]string{"kind": Kind(err)}, err)
		metrics.IncGatewayCall(op, Kind(err))
		return
	}
	b.recorder.LogResponse(b.source, op, method, resp)
	metrics.IncGatewayCall(op, "ok")
}

// Authenticate는 인증을 기록합니다. 계정 정보는 남기지 않습니다.
func (b *AuditedBroker) Authenticate(ctx context.Context) error {
	const op = "authenticate"
	b.before(op, "POST", map[string]string{"broker": b.next.Name()})
	err := b.next.Authenticate(ctx)
	b.after(op, "POST", map[string]bool{"authenticated": err == nil}, err)
	return err
}

// GetAccountSnapshot은 계정 스냅샷 조회를 기록합니다
func (b *AuditedBroker) GetAccountSnapshot(ctx context.Context, accountIDHint string) (*domain.AccountSnapshot, error) {
	const op = "get_account_snapshot"
	b.before(op, "GET", map[string]string{"account_id_hint": accountIDHint})
	snap, err := b.next.GetAccountSnapshot(ctx, accountIDHint)
	var resp any
	if snap != nil {
		resp = snap.Clone()
	}
	b.after(op, "GET", resp, err)
	return snap, err
}

// GetQuote는 시세 조회를 기록합니다
func (b *AuditedBroker) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	const op = "get_quote"
	b.before(op, "GET", map[string]string{"symbol": symbol})
	q, err := b.next.GetQuote(ctx, symbol)
	var resp any
	if q != nil {
		resp = map[string]string{
			"symbol": q.Symbol,
			"last":   q.Last.String(),
			"bid":    q.Bid.String(),
			"ask":    q.Ask.String(),
		}
	}
	b.after(op, "GET", resp, err)
	return q, err
}

// PlaceOrder는 주문 제출을 기록합니다
func (b *AuditedBroker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	const op = "place_order"
	payload := map[string]any{
		"account_id": req.AccountID,
		"symbol":     req.Symbol,
		"side":       req.Side,
		"effect":     req.Effect,
		"type":       req.Type,
		"quantity":   req.Quantity,
	}
	if req.Type == domain.Limit {
		payload["limit_price"] = req.LimitPrice.String()
	}
	b.before(op, "POST", payload)
	order, err := b.next.PlaceOrder(ctx, req)
	var resp any
	if order != nil {
		o := *order
		resp = o
	}
	b.after(op, "POST", resp, err)
	return order, err
}

// GetOrderStatus는 주문 상태 조회를 기록합니다
func (b *AuditedBroker) GetOrderStatus(ctx context.Context, accountID, orderID string) (domain.OrderStatus, error) {
	const op = "get_order_status"
	b.before(op, "GET", map[string]string{"account_id": accountID, "order_id": orderID})
	status, err := b.next.GetOrderStatus(ctx, accountID, orderID)
	b.after(op, "GET", map[string]string{"order_id": orderID, "status": string(status)}, err)
	return status, err
}

// CancelOrder는 주문 취소를 기록합니다
func (b *AuditedBroker) CancelOrder(ctx context.Context, accountID, orderID string) error {
	const op = "cancel_order"
	b.before(op, "DELETE", map[string]string{"account_id": accountID, "order_id": orderID})
	err := b.next.CancelOrder(ctx, accountID, orderID)
	b.after(op, "DELETE", map[string]string{"order_id": orderID}, err)
	return err
}
