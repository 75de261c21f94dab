package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Module runs the Discord gateway connection and feeds messages to a Handler.
type Module struct {
	token   string
	handler *Handler
	log     *zap.Logger

	session *discordgo.Session
	cancel  context.CancelFunc
}

func NewModule(token string, handler *Handler, log *zap.Logger) *Module {
	return &Module{token: token, handler: handler, log: log.Named("gateway")}
}

func (m *Module) Name() string { return "discord" }

func (m *Module) Start(ctx context.Context) error {
	if m.token == "" {
		return errors.New("discord: bot token is not configured")
	}
	dg, err := discordgo.New("Bot " + m.token)
	if err != nil {
		return fmt.Errorf("discord: create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent | discordgo.IntentsGuilds

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		m.log.Info("logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	dg.AddHandler(func(s *discordgo.Session, e *discordgo.MessageCreate) {
		m.handler.HandleMessage(runCtx, s, e.Message)
	})

	if err := dg.Open(); err != nil {
		cancel()
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	m.session = dg
	m.cancel = cancel
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			m.log.Warn("close gateway failed", zap.Error(err))
		}
	}
}
