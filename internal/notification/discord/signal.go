package discord

import (
	"fmt"
	"strings"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/notification"
)

// tradeEmbed는 체결된 거래의 임베드를 만듭니다
func tradeEmbed(info notification.TradeInfo) *Embed {
	var emoji, title string
	switch info.Signal {
	case domain.Long:
		emoji = "🚀"
		title = "LONG"
	case domain.Short:
		emoji = "🔻"
		title = "SHORT"
	default:
		emoji = "⚠️"
		title = "UNKNOWN"
	}
	if info.Mode == domain.ModeDemo {
		title += " (DEMO)"
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("%s %s %s", emoji, title, info.Symbol)).
		SetDescription(fmt.Sprintf("**수량**: %d주\n**가격**: $%s\n**주문 유형**: %s\n**주문 ID**: %s",
			info.Quantity, info.Price.StringFixed(2), info.OrderType, info.OrderID)).
		SetColor(notification.GetColorForSignal(info.Signal, info.Mode)).
		SetFooter(footerText)

	embed.AddField("현금 잔고", "$"+info.CashBalance.StringFixed(2), true)
	embed.AddField("시도 횟수", fmt.Sprintf("%d", info.Attempts), true)
	if len(info.ClosedSymbols) > 0 {
		embed.AddField("청산 포지션", strings.Join(info.ClosedSymbols, ", "), false)
	}
	return embed
}
