package position

import (
	"context"
	"fmt"
	"log"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/exchange"
	"github.com/assist-by/tastyhook/internal/notification"
)

// CloseResult는 충돌 포지션 청산 결과입니다
type CloseResult struct {
	Closed []string         // 청산 주문이 접수된 심볼
	Failed map[string]error // 청산 주문이 실패한 심볼
}

// Manager는 시그널 대상과 다른 보유 포지션을 청산합니다
type Manager struct {
	notifier notification.Notifier
}

// NewManager는 새로운 포지션 매니저를 생성합니다
func NewManager(notifier notification.Notifier) *Manager {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Manager{notifier: notifier}
}

// CloseConflicting은 target과 다른 심볼의 포지션을 순서대로 전량 청산합니다.
// 청산 실패는 기록만 하고 다음 포지션으로 넘어가며, 재시도하지 않습니다.
func (m *Manager) CloseConflicting(ctx context.Context, broker exchange.Broker, snap *domain.AccountSnapshot, target string) CloseResult {
	result := CloseResult{Failed: map[string]error{}}

	for _, pos := range snap.Positions {
		if pos.Symbol == target || pos.Quantity == 0 {
			continue
		}

		req := GetCloseRequest(snap.AccountID, pos)
		order, err := broker.PlaceOrder(ctx, req)
		if err != nil {
			perr := NewPositionError(pos.Symbol, "close_position", err)
			log.Printf("포지션 청산 실패 (계속 진행): %v", perr)
			result.Failed[pos.Symbol] = perr
			if nerr := m.notifier.SendError(perr); nerr != nil {
				log.Printf("에러 알림 전송 실패: %v", nerr)
			}
			continue
		}

		log.Printf("포지션 청산 주문 접수: %s %s %d주 (ID: %s)", req.Side, pos.Symbol, req.Quantity, order.ID)
		result.Closed = append(result.Closed, pos.Symbol)
		if nerr := m.notifier.SendInfo(fmt.Sprintf("🔴 포지션 청산 주문: %s %d주, 주문 ID: %s", pos.Symbol, req.Quantity, order.ID)); nerr != nil {
			log.Printf("알림 전송 실패: %v", nerr)
		}
	}

	return result
}
