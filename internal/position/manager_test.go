package position

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/exchange/exchangetest"
	"github.com/assist-by/tastyhook/internal/notification"
)

// failingBroker는 특정 심볼의 주문만 실패시킵니다
type failingBroker struct {
	*exchangetest.Broker
	failSymbol string
}

func (b *failingBroker) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if req.Symbol == b.failSymbol {
		return nil, &exchange.GatewayError{Op: "place_order", StatusCode: 422, Err: exchange.ErrRejected}
	}
	return b.Broker.PlaceOrder(ctx, req)
}

type recordingNotifier struct {
	notification.Nop
	errs  []error
	infos []string
}

func (n *recordingNotifier) SendError(err error) error {
	n.errs = append(n.errs, err)
	return nil
}

func (n *recordingNotifier) SendInfo(message string) error {
	n.infos = append(n.infos, message)
	return nil
}

func TestCloseConflicting(t *testing.T) {
	snap := &domain.AccountSnapshot{
		AccountID:   "5WT00001",
		CashBalance: decimal.NewFromInt(10000),
		Positions: []domain.Position{
			{Symbol: "MSTU", Quantity: 5},
			{Symbol: "MSTZ", Quantity: 10},
			{Symbol: "TSLA", Quantity: -3},
			{Symbol: "NVDA", Quantity: 0},
		},
	}

	t.Run("대상 외 포지션 전량 청산", func(t *testing.T) {
		broker := &exchangetest.Broker{}
		m := NewManager(nil)

		result := m.CloseConflicting(context.Background(), broker, snap, "MSTU")

		assert.Equal(t, []string{"MSTZ", "TSLA"}, result.Closed)
		assert.Empty(t, result.Failed)

		orders := broker.Orders()
		require.Len(t, orders, 2)
		assert.Equal(t, domain.OrderRequest{
			AccountID: "5WT00001", Symbol: "MSTZ", Side: domain.Sell,
			Effect: domain.Close, Type: domain.Market, Quantity: 10,
		}, orders[0])
		assert.Equal(t, domain.Buy, orders[1].Side)
		assert.Equal(t, int64(3), orders[1].Quantity)
	})

	t.Run("청산 실패 시 다음 포지션 계속 진행", func(t *testing.T) {
		broker := &failingBroker{Broker: &exchangetest.Broker{}, failSymbol: "MSTZ"}
		notifier := &recordingNotifier{}
		m := NewManager(notifier)

		result := m.CloseConflicting(context.Background(), broker, snap, "MSTU")

		assert.Equal(t, []string{"TSLA"}, result.Closed)
		require.Contains(t, result.Failed, "MSTZ")
		assert.True(t, errors.Is(result.Failed["MSTZ"], exchange.ErrRejected))

		var perr *PositionError
		require.True(t, errors.As(result.Failed["MSTZ"], &perr))
		assert.Equal(t, "MSTZ", perr.Symbol)

		assert.Len(t, notifier.errs, 1)
		assert.Len(t, notifier.infos, 1)
	})

	t.Run("보유 포지션이 없으면 주문 없음", func(t *testing.T) {
		broker := &exchangetest.Broker{}
		m := NewManager(nil)

		result := m.CloseConflicting(context.Background(), broker,
			&domain.AccountSnapshot{AccountID: "5WT00001"}, "MSTZ")

		assert.Empty(t, result.Closed)
		assert.Zero(t, broker.CallCount("place_order"))
	})
}
