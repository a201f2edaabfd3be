// Package channels adapts messaging backends to the dispatch core. Each
// adapter owns its Context instantiation: it decodes one raw backend
// update into a model, pairs it with the backend's interaction handle and
// publishes the result as an Inbound envelope. The core stays
// channel-agnostic.
package channels

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	"github.com/rs/zerolog"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
)

// TelegramMessage is the model type for Telegram updates.
type TelegramMessage struct {
	telego.Message
}

// MessageText exposes the message text to the text filters.
func (m TelegramMessage) MessageText() string { return m.Text }

// TelegramInbound is the envelope the Telegram channel publishes.
type TelegramInbound = dispatch.Inbound[*telego.Bot, TelegramMessage]

// Telegram pulls updates from the Telegram Bot API via long polling and
// feeds them to a dispatcher bus. The interaction handle is the telego
// bot itself, so handlers can answer through the full Bot API.
type Telegram struct {
	bot         *telego.Bot
	out         *bus.Bus[TelegramInbound]
	pollTimeout int
	log         zerolog.Logger
	sink        *bus.Bus[events.Event]
}

// NewTelegram creates the Telegram channel. pollTimeout is the long-poll
// timeout in seconds; zero lets the backend decide.
func NewTelegram(token string, pollTimeout int, out *bus.Bus[TelegramInbound], log zerolog.Logger, sink *bus.Bus[events.Event]) (*Telegram, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("channels: telegram: %w", err)
	}
	return &Telegram{
		bot:         bot,
		out:         out,
		pollTimeout: pollTimeout,
		log:         log,
		sink:        sink,
	}, nil
}

// Bot returns the underlying telego bot, for outbound calls during setup.
func (t *Telegram) Bot() *telego.Bot { return t.bot }

// Run polls for updates until ctx is done. Only message and
// edited_message updates are requested; each becomes one Inbound.
func (t *Telegram) Run(ctx context.Context) error {
	updates, err := t.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        t.pollTimeout,
		AllowedUpdates: []string{"message", "edited_message"},
	})
	if err != nil {
		t.emit(events.New(events.SourceError, "telegram", events.SourceEventData{
			Channel: "telegram", Error: err.Error(),
		}))
		return fmt.Errorf("channels: telegram polling: %w", err)
	}

	t.log.Info().Msg("telegram channel started")
	t.emit(events.New(events.SourceStarted, "telegram", events.SourceEventData{Channel: "telegram"}))
	defer t.emit(events.New(events.SourceStopped, "telegram", events.SourceEventData{Channel: "telegram"}))

	for update := range updates {
		var ib TelegramInbound
		switch {
		case update.Message != nil:
			ib = TelegramInbound{
				Kind:        dispatch.KindSent,
				Interaction: t.bot,
				Model:       TelegramMessage{*update.Message},
			}
		case update.EditedMessage != nil:
			ib = TelegramInbound{
				Kind:        dispatch.KindEdited,
				Interaction: t.bot,
				Model:       TelegramMessage{*update.EditedMessage},
			}
		default:
			continue
		}
		ib.TraceID = uuid.NewString()
		if !t.out.Publish(ib) {
			t.log.Warn().Str("trace_id", ib.TraceID).Msg("inbound update dropped")
			t.emit(events.New(events.UpdateDropped, "telegram", events.UpdateEventData{
				TraceID: ib.TraceID, Kind: ib.Kind.String(), Reason: "bus full",
			}))
		}
	}
	return ctx.Err()
}

func (t *Telegram) emit(ev events.Event) {
	if t.sink != nil {
		t.sink.Publish(ev)
	}
}
