package channels

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
)

// DiscordMessage is the model type for Discord messages.
type DiscordMessage struct {
	*discordgo.Message
}

// MessageText exposes the message content to the text filters.
func (m DiscordMessage) MessageText() string { return m.Content }

// DiscordInbound is the envelope the Discord channel publishes.
type DiscordInbound = dispatch.Inbound[*discordgo.Session, DiscordMessage]

// Discord receives guild messages over the Discord gateway and feeds them
// to a dispatcher bus. The interaction handle is the discordgo session.
type Discord struct {
	session *discordgo.Session
	out     *bus.Bus[DiscordInbound]
	log     zerolog.Logger
	sink    *bus.Bus[events.Event]
}

// NewDiscord creates the Discord channel.
func NewDiscord(token string, out *bus.Bus[DiscordInbound], log zerolog.Logger, sink *bus.Bus[events.Event]) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("channels: discord: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return &Discord{session: session, out: out, log: log, sink: sink}, nil
}

// Session returns the underlying discordgo session.
func (d *Discord) Session() *discordgo.Session { return d.session }

// Run opens the gateway connection and publishes messages until ctx is
// done. New messages map to KindSent, edits to KindEdited; the bot's own
// messages are ignored.
func (d *Discord) Run(ctx context.Context) error {
	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}
		d.publish(dispatch.KindSent, m.Message)
	})
	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Author != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}
		d.publish(dispatch.KindEdited, m.Message)
	})

	if err := d.session.Open(); err != nil {
		d.emit(events.New(events.SourceError, "discord", events.SourceEventData{
			Channel: "discord", Error: err.Error(),
		}))
		return fmt.Errorf("channels: discord gateway: %w", err)
	}
	d.log.Info().Msg("discord channel started")
	d.emit(events.New(events.SourceStarted, "discord", events.SourceEventData{Channel: "discord"}))

	<-ctx.Done()
	d.emit(events.New(events.SourceStopped, "discord", events.SourceEventData{Channel: "discord"}))
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("channels: discord close: %w", err)
	}
	return ctx.Err()
}

func (d *Discord) publish(kind dispatch.Kind, msg *discordgo.Message) {
	ib := DiscordInbound{
		Kind:        kind,
		Interaction: d.session,
		Model:       DiscordMessage{msg},
		TraceID:     uuid.NewString(),
	}
	if !d.out.Publish(ib) {
		d.log.Warn().Str("trace_id", ib.TraceID).Msg("inbound message dropped")
		d.emit(events.New(events.UpdateDropped, "discord", events.UpdateEventData{
			TraceID: ib.TraceID, Kind: kind.String(), Reason: "bus full",
		}))
	}
}

func (d *Discord) emit(ev events.Event) {
	if d.sink != nil {
		d.sink.Publish(ev)
	}
}
