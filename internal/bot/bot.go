// Package bot is the Telegram front end of the pricer: customers ask for
// quotes and comparisons, admins reload the catalog and edit margins.
package bot

import (
	"context"
	"fmt"
	"time"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/config"
	"storal-pricer/internal/quote"
	"storal-pricer/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender delivers messages, documents and callback answers to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type RateLimiter interface {
	RateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// Store persists margin overrides and the quote log.
type Store interface {
	SetCoefficientOverride(ctx context.Context, o catalog.CoefficientOverride, updatedBy int64) error
	DeleteCoefficientOverride(ctx context.Context, modelID string, option catalog.OptionKey) error
	RecordQuote(ctx context.Context, rec storage.QuoteRecord) (int64, error)
	RecentQuotes(ctx context.Context, limit int) ([]storage.QuoteRecord, error)
	QuoteStatistics(ctx context.Context) (*storage.QuoteStatistics, error)
}

type Bot struct {
	api        *tgbotapi.BotAPI
	sender     Sender
	logger     *zap.Logger
	quotes     *quote.Service
	store      Store
	limiter    RateLimiter
	cfg        *config.Config
	reportsDir string
}

type Option func(*Bot)

func WithStore(s Store) Option             { return func(b *Bot) { b.store = s } }
func WithRateLimiter(l RateLimiter) Option { return func(b *Bot) { b.limiter = l } }
func WithReportsDir(dir string) Option     { return func(b *Bot) { b.reportsDir = dir } }

func New(cfg *config.Config, quotes *quote.Service, logger *zap.Logger, opts ...Option) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	botAPI.Debug = !cfg.IsProduction()

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	b := newBot(botAPI, cfg, quotes, logger, opts...)
	b.api = botAPI
	return b, nil
}

func newBot(sender Sender, cfg *config.Config, quotes *quote.Service, logger *zap.Logger, opts ...Option) *Bot {
	b := &Bot{
		sender:     sender,
		logger:     logger,
		quotes:     quotes,
		cfg:        cfg,
		reportsDir: "reports",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("bot.Start: updates channel closed")
			}
			if update.Message != nil {
				b.processMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.processCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

// request carries what every handler needs for one update.
type request struct {
	id     string
	ctx    context.Context
	chatID int64
	userID int64
	args   []string
	log    *zap.Logger
}

func (b *Bot) newRequest(ctx context.Context, chatID, userID int64) *request {
	id := uuid.NewString()
	return &request{
		id:     id,
		ctx:    ctx,
		chatID: chatID,
		userID: userID,
		log: b.logger.With(
			zap.String("request_id", id),
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", userID)),
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	req := b.newRequest(ctx, msg.Chat.ID, userID)

	req.log.Debug("Processing message", zap.String("text", msg.Text))

	if b.rateLimited(req) {
		b.sendText(req.chatID, "⏳ Trop de demandes, merci de patienter un instant.")
		return
	}

	if !msg.IsCommand() {
		b.handleHelp(req)
		return
	}

	req.args = splitArgs(msg.CommandArguments())
	b.handleCommand(req, msg.Command())
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	req := b.newRequest(ctx, callback.Message.Chat.ID, callback.From.ID)

	req.log.Debug("Processing callback", zap.String("data", callback.Data))

	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		req.log.Warn("Failed to answer callback", zap.Error(err))
	}

	if b.rateLimited(req) {
		b.sendText(req.chatID, "⏳ Trop de demandes, merci de patienter un instant.")
		return
	}

	cb, err := parseCallback(callback.Data)
	if err != nil {
		req.log.Warn("Ignoring callback", zap.Error(err))
		return
	}

	switch cb.Action {
	case callbackDetail:
		b.sendQuote(req, cb.ModelID, cb.Width, cb.Projection, cb.Options)
	case callbackExport:
		b.exportComparison(req, cb.Width, cb.Projection, cb.Options)
	}
}

// rateLimited fails open when the limiter is unavailable.
func (b *Bot) rateLimited(req *request) bool {
	if b.limiter == nil || req.userID == 0 {
		return false
	}
	key := fmt.Sprintf("ratelimit:%d:msg", req.userID)
	limited, err := b.limiter.RateLimit(req.ctx, key, b.cfg.Telegram.RateLimit, b.cfg.Telegram.RateWindow)
	if err != nil {
		req.log.Warn("Rate limit check failed", zap.Error(err))
		return false
	}
	if limited {
		req.log.Info("User rate limited")
	}
	return limited
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}
