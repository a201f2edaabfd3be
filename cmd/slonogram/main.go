// Command slonogram runs the demo bot: the classic "сыр" rule set wired
// against whichever channels the configuration enables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/mymmrac/telego"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/channels"
	"github.com/ilyas-kalandar/slonogram/pkg/config"
	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
	"github.com/ilyas-kalandar/slonogram/pkg/filters"
	"github.com/ilyas-kalandar/slonogram/pkg/inspect"
	"github.com/ilyas-kalandar/slonogram/pkg/logger"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "slonogram",
		Short:        "Update-dispatch demo bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// reply is how the demo answers on some channel instantiation.
type reply[D any, T filters.Text] func(ctx context.Context, inter D, model T) func(text string) error

// demoSet builds the rule tree from the original slonogram example: a
// prefix-gated set containing the "сыр" handlers.
func demoSet[D any, T filters.Text](send reply[D, T]) (*dispatch.Set[D, T], error) {
	gate, err := filters.Prefix[D, T](`(м[еэ]йда?|maid)\s*`)
	if err != nil {
		return nil, err
	}
	prefixed := dispatch.NewSet("prefixed", dispatch.WithGate(gate))

	set := dispatch.NewSet[D, T]("cheese")
	// Shaped (interaction, model) callbacks, adapted at registration.
	err = set.OnSent("on_prefix",
		filters.Word[D, T]("скажи").And(filters.Word[D, T]("сыр", "рыр")),
		func(ctx context.Context, inter D, model T) error {
			return send(ctx, inter, model)("кхе")
		})
	if err != nil {
		return nil, err
	}
	err = set.OnEdited("on_edited",
		filters.Eq[D, T]("сыр"),
		func(ctx context.Context, inter D, model T) error {
			return send(ctx, inter, model)("Сыр")
		})
	if err != nil {
		return nil, err
	}
	err = set.OnSent("on_ladno",
		filters.Eq[D, T]("ладность"),
		func(ctx context.Context, inter D, model T) error {
			return send(ctx, inter, model)("Прохладность")
		})
	if err != nil {
		return nil, err
	}

	prefixed.Include(set)
	return prefixed, nil
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := bus.New[events.Event](256)
	defer sink.Close()

	errCh := make(chan error, 8)
	spawn := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	if cfg.Inspect.Enabled {
		hub := inspect.NewHub(cfg.Inspect.Addr, sink, logger.Component(log, "inspect"))
		spawn("inspect", hub.Run)
	}

	if cfg.Console.Enabled {
		if err := startConsole(cfg, log, sink, spawn); err != nil {
			return err
		}
	}
	if cfg.Telegram.Enabled {
		if err := startTelegram(cfg, log, sink, spawn); err != nil {
			return err
		}
	}
	if cfg.Discord.Enabled {
		if err := startDiscord(cfg, log, sink, spawn); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

type spawnFn func(name string, fn func(context.Context) error)

func startConsole(cfg *config.Config, log zerolog.Logger, sink *bus.Bus[events.Event], spawn spawnFn) error {
	set, err := demoSet(func(_ context.Context, bot *channels.ConsoleBot, _ channels.ConsoleMessage) func(string) error {
		return bot.Say
	})
	if err != nil {
		return err
	}
	stream := bus.New[channels.ConsoleInbound](cfg.BusSize)
	d := dispatch.New(set,
		dispatch.WithLogger[*channels.ConsoleBot, channels.ConsoleMessage](logger.Component(log, "dispatch.console")),
		dispatch.WithEventSink[*channels.ConsoleBot, channels.ConsoleMessage](sink),
	)
	src := channels.NewConsole(cfg.Console.Prompt, stream, logger.Component(log, "console"), sink)
	spawn("console dispatcher", func(ctx context.Context) error { return d.Run(ctx, stream) })
	spawn("console", src.Run)
	return nil
}

func startTelegram(cfg *config.Config, log zerolog.Logger, sink *bus.Bus[events.Event], spawn spawnFn) error {
	set, err := demoSet(func(ctx context.Context, bot *telego.Bot, m channels.TelegramMessage) func(string) error {
		return func(text string) error {
			_, err := bot.SendMessage(ctx, &telego.SendMessageParams{
				ChatID: telego.ChatID{ID: m.Chat.ID},
				Text:   text,
			})
			return err
		}
	})
	if err != nil {
		return err
	}
	stream := bus.New[channels.TelegramInbound](cfg.BusSize)
	d := dispatch.New(set,
		dispatch.WithLogger[*telego.Bot, channels.TelegramMessage](logger.Component(log, "dispatch.telegram")),
		dispatch.WithEventSink[*telego.Bot, channels.TelegramMessage](sink),
	)
	src, err := channels.NewTelegram(cfg.Telegram.Token, cfg.Telegram.PollTimeout, stream, logger.Component(log, "telegram"), sink)
	if err != nil {
		return err
	}
	spawn("telegram dispatcher", func(ctx context.Context) error { return d.Run(ctx, stream) })
	spawn("telegram", src.Run)
	return nil
}

func startDiscord(cfg *config.Config, log zerolog.Logger, sink *bus.Bus[events.Event], spawn spawnFn) error {
	set, err := demoSet(func(_ context.Context, s *discordgo.Session, m channels.DiscordMessage) func(string) error {
		return func(text string) error {
			_, err := s.ChannelMessageSend(m.ChannelID, text)
			return err
		}
	})
	if err != nil {
		return err
	}
	stream := bus.New[channels.DiscordInbound](cfg.BusSize)
	d := dispatch.New(set,
		dispatch.WithLogger[*discordgo.Session, channels.DiscordMessage](logger.Component(log, "dispatch.discord")),
		dispatch.WithEventSink[*discordgo.Session, channels.DiscordMessage](sink),
	)
	src, err := channels.NewDiscord(cfg.Discord.Token, stream, logger.Component(log, "discord"), sink)
	if err != nil {
		return err
	}
	spawn("discord dispatcher", func(ctx context.Context) error { return d.Run(ctx, stream) })
	spawn("discord", src.Run)
	return nil
}
