package discord

import (
	"fmt"

	"github.com/assist-by/tastyhook/internal/domain"
	"github.com/assist-by/tastyhook/internal/notification"
)

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(domain.ColorError).
		SetFooter(footerText).
		SetTimestamp(c.now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.errorWebhook, msg)
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(domain.ColorInfo).
		SetFooter(footerText).
		SetTimestamp(c.now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.infoWebhook, msg)
}

// SendTradeInfo는 거래 실행 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	msg := WebhookMessage{
		Embeds: []Embed{*tradeEmbed(info).SetTimestamp(c.now())},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

var _ notification.Notifier = (*Client)(nil)
