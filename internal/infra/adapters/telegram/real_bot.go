package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/application"
	"telegram-gate-bot/internal/config"
	"telegram-gate-bot/internal/domain"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/domain/ports/adapter"
	"telegram-gate-bot/internal/infra/metrics"
	red "telegram-gate-bot/internal/infra/redis"
)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
// It also implements adapter.MembershipOracle over getChatMember.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.Config
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
}

var (
	_ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)
	_ adapter.MembershipOracle   = (*RealTelegramBotAdapter)(nil)
)

// NewRealTelegramBotAdapter builds the adapter without a facade: the
// adapter's oracle half is a dependency of the verifier inside the facade,
// so the facade is attached afterwards with SetFacade.
func NewRealTelegramBotAdapter(cfg *config.Config, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	updateWorkers := cfg.Bot.Workers
	if updateWorkers <= 0 {
		updateWorkers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.Bot.AdminIDs {
		adminMap[id] = struct{}{}
	}

	adapterLog := logger.With().Str("component", "TelegramAdapter").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rateLimiter,
		log:           &adapterLog,
		adminIDsMap:   adminMap,
		updateWorkers: updateWorkers,
	}, nil
}

// SetFacade attaches the facade once the use cases exist.
func (r *RealTelegramBotAdapter) SetFacade(f *application.BotFacade) { r.facade = f }

// SelfID is the bot's own Telegram ID, used by the channel audit to probe
// that the bot can still see each required channel.
func (r *RealTelegramBotAdapter) SelfID() int64 { return r.bot.Self.ID }

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is not set")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("error handling update")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// ChatMemberStatus implements the membership oracle with a single
// getChatMember call. Errors are returned raw; the verifier folds them into
// "not joined".
func (r *RealTelegramBotAdapter) ChatMemberStatus(ctx context.Context, channelID string, telegramID int64) (model.MembershipStatus, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channelID,
			UserID:             telegramID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("getChatMember %s: %w", channelID, err)
	}
	return model.MembershipStatus(member.Status), nil
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncDeliveryFailure()
		return err
	}
	return nil
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncDeliveryFailure()
		return err
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}

	fields := strings.Fields(update.Message.Text)
	command := "message"
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		command = fields[0]
	}
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgUser.ID, command), r.cfg.Gate.RateLimit, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return r.SendMessage(ctx, tgUser.ID, "Rate limit exceeded. Please try again later.")
		}
	}

	switch command {
	case "/start", "/token":
		res, err := r.facade.HandleStart(ctx, tgUser.ID, tgUser.UserName)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgUser.ID).Msg("gate flow failed")
			return r.SendMessage(ctx, tgUser.ID, "Something went wrong. Please try /start again.")
		}
		if res.Granted {
			return r.sendToken(ctx, tgUser.ID, res.Token)
		}
		return r.sendJoinPrompt(ctx, tgUser.ID)

	case "/help":
		return r.SendMessage(ctx, tgUser.ID, r.helpText(tgUser.ID))

	case "/addcourse":
		if !r.isAdmin(tgUser.ID) {
			return r.SendMessage(ctx, tgUser.ID, "You are not authorized to use this command.")
		}
		prompt, err := r.facade.FormUC.Start(ctx, tgUser.ID)
		if err != nil {
			return r.SendMessage(ctx, tgUser.ID, "Failed to start the course form.")
		}
		return r.SendMessage(ctx, tgUser.ID, prompt)

	case "/cancel":
		if !r.isAdmin(tgUser.ID) {
			return r.SendMessage(ctx, tgUser.ID, "You are not authorized to use this command.")
		}
		if err := r.facade.FormUC.Cancel(ctx, tgUser.ID); err != nil {
			return r.SendMessage(ctx, tgUser.ID, "Failed to cancel.")
		}
		return r.SendMessage(ctx, tgUser.ID, "Draft discarded.")

	case "/courses":
		if !r.isAdmin(tgUser.ID) {
			return r.SendMessage(ctx, tgUser.ID, "You are not authorized to use this command.")
		}
		return r.sendCoursesMenu(ctx, tgUser.ID)

	case "/stats":
		if !r.isAdmin(tgUser.ID) {
			return r.SendMessage(ctx, tgUser.ID, "You are not authorized to use this command.")
		}
		text, err := r.facade.HandleStats(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("failed to get stats")
			return r.SendMessage(ctx, tgUser.ID, "Failed to get stats. Please try again later.")
		}
		return r.SendMessage(ctx, tgUser.ID, text)

	default:
		// Admin mid-form input is the only free text the bot consumes.
		if r.isAdmin(tgUser.ID) && update.Message.Text != "" {
			reply, _, err := r.facade.FormUC.Handle(ctx, tgUser.ID, update.Message.Text)
			if err == nil {
				return r.SendMessage(ctx, tgUser.ID, reply)
			}
			if !errors.Is(err, domain.ErrNoDraft) {
				r.log.Error().Err(err).Int64("tg_id", tgUser.ID).Msg("course form failed")
				return r.SendMessage(ctx, tgUser.ID, "Form error. /cancel and try again.")
			}
		}
		return r.SendMessage(ctx, tgUser.ID, "Sorry, I didn't understand that. Send /help for commands.")
	}
}

type cbHandler func(ctx context.Context, chatID int64, data string) error

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"gate:check": func(ctx context.Context, id int64, _ string) error {
			res, err := r.facade.HandleJoinCheck(ctx, id)
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", id).Msg("join check failed")
				return r.SendMessage(ctx, id, "Something went wrong. Please try again.")
			}
			if res.Granted {
				return r.sendToken(ctx, id, res.Token)
			}
			return r.sendRetryPrompt(ctx, id, res.Missing)
		},
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: "course:del:",
			Fn: func(ctx context.Context, id int64, data string) error {
				if !r.isAdmin(id) {
					return r.SendMessage(ctx, id, "You are not authorized to do that.")
				}
				courseID := strings.TrimPrefix(data, "course:del:")
				if err := r.facade.CourseUC.Delete(ctx, courseID); err != nil {
					return r.SendMessage(ctx, id, "Failed to delete this course.")
				}
				// Refresh the list after deletion
				return r.sendCoursesMenu(ctx, id)
			},
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)

	if r.rateLimiter != nil {
		if allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(chatID, "cb:"+data), r.cfg.Gate.RateLimit, time.Minute); err == nil && !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	return errors.New("unknown callback data")
}

// sendJoinPrompt shows every required channel as a join button plus the
// verification button. Shown on /start when the user isn't through the gate.
func (r *RealTelegramBotAdapter) sendJoinPrompt(ctx context.Context, tgID int64) error {
	rows := make([][]adapter.InlineButton, 0, len(r.cfg.Gate.Channels)+1)
	for _, ch := range r.cfg.Gate.Channels {
		rows = append(rows, []adapter.InlineButton{{Text: "📥 Join " + ch.ID, URL: ch.URL}})
	}
	footer := []adapter.InlineButton{{Text: "✅ I Joined", Data: "gate:check"}}
	if r.cfg.Gate.OwnerURL != "" {
		footer = append(footer, adapter.InlineButton{Text: "👑 Owner", URL: r.cfg.Gate.OwnerURL})
	}
	rows = append(rows, footer)

	text := "🚀 *Welcome!*\n\n" +
		"🔐 Access to the site is secured via channel membership.\n\n" +
		"👉 Join the channels below, then tap *I Joined* to unlock your daily access token."
	return r.SendButtons(ctx, tgID, text, rows)
}

// sendRetryPrompt lists the channels still missing, in configured order,
// with a retry button. The retry re-checks live membership.
func (r *RealTelegramBotAdapter) sendRetryPrompt(ctx context.Context, tgID int64, missing []model.ChannelRequirement) error {
	var sb strings.Builder
	sb.WriteString("❌ *Verification Failed*\n\n")
	sb.WriteString("You haven't joined the following channel(s) yet:\n\n")
	for _, ch := range missing {
		sb.WriteString("🔸 " + ch.ID + "\n")
	}
	sb.WriteString("\nPlease join all channels and then tap Retry.")

	rows := [][]adapter.InlineButton{
		{{Text: "🔁 Retry Verification", Data: "gate:check"}},
	}
	for _, ch := range missing {
		rows = append(rows, []adapter.InlineButton{{Text: "📥 Join " + ch.ID, URL: ch.URL}})
	}
	if r.cfg.Gate.OwnerURL != "" {
		rows = append(rows, []adapter.InlineButton{{Text: "👑 Contact Owner", URL: r.cfg.Gate.OwnerURL}})
	}
	return r.SendButtons(ctx, tgID, sb.String(), rows)
}

func (r *RealTelegramBotAdapter) sendToken(ctx context.Context, tgID int64, tok model.AccessToken) error {
	rows := [][]adapter.InlineButton{
		{{Text: "🔐 Access Website", URL: r.cfg.Gate.SiteURL}},
	}
	if r.cfg.Gate.OwnerURL != "" {
		rows = append(rows, []adapter.InlineButton{{Text: "👑 Owner", URL: r.cfg.Gate.OwnerURL}})
	}
	text := "🎉 *Access Granted!*\n\n" +
		"Here is your token for today:\n\n" +
		"`" + tok.String() + "`\n\n" +
		"✅ Paste this on the website to continue!\n" +
		"⚠️ If you leave any channel later, your access will be revoked."
	return r.SendButtons(ctx, tgID, text, rows)
}

// sendCoursesMenu lists the newest courses, one row per course with a delete
// button next to it.
func (r *RealTelegramBotAdapter) sendCoursesMenu(ctx context.Context, tgID int64) error {
	courses, err := r.facade.CourseUC.List(ctx, 0, 10)
	if err != nil {
		return r.SendMessage(ctx, tgID, "Failed to load courses.")
	}
	if len(courses) == 0 {
		return r.SendMessage(ctx, tgID, "No courses yet. Use /addcourse to add one.")
	}

	rows := make([][]adapter.InlineButton, 0, len(courses))
	for _, c := range courses {
		label := c.Title
		if c.Category != "" {
			label = "[" + c.Category + "] " + label
		}
		rows = append(rows, []adapter.InlineButton{
			{Text: label, URL: c.Link},
			{Text: "🗑 Delete", Data: "course:del:" + c.ID},
		})
	}
	return r.SendButtons(ctx, tgID, "📚 Catalog (newest first):", rows)
}

func (r *RealTelegramBotAdapter) helpText(tgID int64) string {
	base := "Commands:\n/start - verify membership and get today's token\n/help - this message"
	if r.isAdmin(tgID) {
		base += "\n\nAdmin:\n/addcourse - add a course\n/courses - list and delete courses\n/cancel - discard course draft\n/stats - system stats"
	}
	return base
}

func (r *RealTelegramBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}
