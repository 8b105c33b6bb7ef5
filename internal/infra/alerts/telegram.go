// Package alerts pushes low-stock warnings to the shop owner's Telegram
// chat, fed by the catalog change feed. Optional: enabled only when a bot
// token is configured.
package alerts

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/freshkart/pos/internal/domain/catalog"
)

type Notifier struct {
	api         *tgbotapi.BotAPI
	gw          catalog.Gateway
	adminChat   int64
	thresholdKg float64
	log         *slog.Logger

	flagged map[int64]bool // products already reported, cleared on recovery
}

func New(token string, adminChat int64, thresholdKg float64, gw catalog.Gateway, log *slog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Notifier{
		api:         api,
		gw:          gw,
		adminChat:   adminChat,
		thresholdKg: thresholdKg,
		log:         log,
		flagged:     map[int64]bool{},
	}, nil
}

// Run consumes catalog change ticks until ctx is done. Each product is
// reported once when it drops below the threshold, then again only after
// it has recovered above it.
func (n *Notifier) Run(ctx context.Context) {
	ticks, cancel := n.gw.Subscribe(ctx)
	defer cancel()

	n.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			n.check(ctx)
		}
	}
}

func (n *Notifier) check(ctx context.Context) {
	products, err := n.gw.ListAll(ctx)
	if err != nil {
		n.log.Warn("low-stock check failed", "err", err)
		return
	}
	for _, p := range products {
		switch {
		case p.InventoryKg < n.thresholdKg && !n.flagged[p.ID]:
			n.flagged[p.ID] = true
			n.send(fmt.Sprintf("Low stock: %s is down to %.3f kg", p.Name, p.InventoryKg))
		case p.InventoryKg >= n.thresholdKg && n.flagged[p.ID]:
			delete(n.flagged, p.ID)
		}
	}
}

func (n *Notifier) send(text string) {
	if _, err := n.api.Send(tgbotapi.NewMessage(n.adminChat, text)); err != nil {
		n.log.Error("alert send failed", "err", err)
	}
}
