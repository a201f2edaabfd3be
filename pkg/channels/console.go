package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
)

// ConsoleMessage is the model type for console input: one typed line.
type ConsoleMessage struct {
	Line string
}

// MessageText exposes the line to the text filters.
func (m ConsoleMessage) MessageText() string { return m.Line }

// ConsoleBot is the interaction handle for the console channel. Replies
// are printed above the prompt.
type ConsoleBot struct {
	mu sync.Mutex
	w  io.Writer
}

// Say prints a reply line.
func (b *ConsoleBot) Say(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := fmt.Fprintln(b.w, text)
	return err
}

// ConsoleInbound is the envelope the console channel publishes.
type ConsoleInbound = dispatch.Inbound[*ConsoleBot, ConsoleMessage]

// Console reads lines interactively and publishes each as a sent message.
// A line starting with "edit " is published as an edited message of the
// remainder, so both kinds can be exercised locally.
type Console struct {
	prompt string
	out    *bus.Bus[ConsoleInbound]
	log    zerolog.Logger
	sink   *bus.Bus[events.Event]
}

// NewConsole creates the console channel.
func NewConsole(prompt string, out *bus.Bus[ConsoleInbound], log zerolog.Logger, sink *bus.Bus[events.Event]) *Console {
	if prompt == "" {
		prompt = "> "
	}
	return &Console{prompt: prompt, out: out, log: log, sink: sink}
}

// Run reads lines until EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.New(c.prompt)
	if err != nil {
		return fmt.Errorf("channels: console: %w", err)
	}
	defer rl.Close()

	bot := &ConsoleBot{w: rl.Stdout()}
	c.log.Info().Msg("console channel started, type a message")
	c.emit(events.New(events.SourceStarted, "console", events.SourceEventData{Channel: "console"}))
	defer c.emit(events.New(events.SourceStopped, "console", events.SourceEventData{Channel: "console"}))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("channels: console read: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		ib := ConsoleInbound{
			Kind:        dispatch.KindSent,
			Interaction: bot,
			Model:       ConsoleMessage{Line: line},
			TraceID:     uuid.NewString(),
		}
		if rest, ok := strings.CutPrefix(line, "edit "); ok {
			ib.Kind = dispatch.KindEdited
			ib.Model = ConsoleMessage{Line: rest}
		}
		if !c.out.Publish(ib) {
			c.log.Warn().Str("trace_id", ib.TraceID).Msg("inbound line dropped")
		}
	}
}

func (c *Console) emit(ev events.Event) {
	if c.sink != nil {
		c.sink.Publish(ev)
	}
}
