// Package telegram is the chat front-end: it walks a user through the
// input form one question at a time and replies with the analysis, the key
// metrics and the workbook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/session"
	"finmodel/pkg/core/utils"
	"finmodel/pkg/models"
)

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Runner executes a completed form. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, raw models.RawInputs) (*pipeline.Outcome, error)
}

const (
	msgCalculating  = "🔄 Calculating the model..."
	msgNoSession    = "Send /start to build a financial model."
	msgCancelled    = "Cancelled. Send /start to begin again."
	msgBusy         = "⏳ Your previous model is still being calculated, please wait."
	msgTextOnly     = "Please answer with a text message."
	msgFailed       = "❌ Something went wrong while building the model. Please try again later."
	msgNoNarrative  = "ℹ️ The written analysis is unavailable right now; the model itself is ready."
	msgAnalysisHead = "<b>📋 Analysis of your model:</b>\n\n"
	msgDocCaption   = "📊 Your financial model is ready:"
)

var fieldLabels = map[string]string{
	models.FieldInvestment:    "investment",
	models.FieldHorizon:       "planning horizon",
	models.FieldRevenueYear1:  "first-year revenue",
	models.FieldGrowth:        "revenue growth",
	models.FieldFixedCosts:    "fixed costs",
	models.FieldVariableCosts: "variable costs",
	models.FieldEmployees:     "number of employees",
	models.FieldAvgSalary:     "average salary",
}

// Bot handles updates. Session state is kept in the Store, never in the Bot.
type Bot struct {
	api      Sender
	sessions session.Store
	guard    *session.Guard
	runner   Runner
	wg       sync.WaitGroup
}

func New(api Sender, sessions session.Store, runner Runner) *Bot {
	return &Bot{
		api:      api,
		sessions: sessions,
		guard:    session.NewGuard(),
		runner:   runner,
	}
}

// Run long-polls Telegram until ctx is cancelled.
func Run(ctx context.Context, api *tgbotapi.BotAPI, bot *Bot, pollTimeout int) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	slog.Info("bot polling", "component", "bot", "username", api.Self.UserName)
	bot.Serve(ctx, updates)
}

// Serve dispatches updates until ctx is done or the channel closes, then
// waits for in-flight projections.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			if err := b.HandleMessage(ctx, update.Message); err != nil {
				slog.Error("handle message", "component", "bot",
					"chat_id", update.Message.Chat.ID, "error", err)
			}
		}
	}
}

// Wait blocks until every projection started by HandleMessage finished.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleMessage advances the chat's form by one turn.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.start(ctx, chatID)
		case "cancel":
			if err := b.sessions.Delete(ctx, chatID); err != nil {
				return err
			}
			return b.reply(chatID, msgCancelled, tgbotapi.NewRemoveKeyboard(false))
		}
	}

	s, err := b.sessions.Get(ctx, chatID)
	if errors.Is(err, session.ErrNotFound) {
		return b.reply(chatID, msgNoSession, nil)
	}
	if err != nil {
		b.reply(chatID, msgFailed, nil)
		return fmt.Errorf("load session: %w", err)
	}

	if strings.TrimSpace(msg.Text) == "" {
		return b.reply(chatID, msgTextOnly, nil)
	}

	prev := s.Step
	next := s.Answer(msg.Text)
	if !s.Complete() {
		if err := b.sessions.Save(ctx, s); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		var markup interface{}
		if prev == session.StepProjectType {
			markup = tgbotapi.NewRemoveKeyboard(false)
		}
		return b.reply(chatID, next.Question(), markup)
	}

	release, err := b.guard.Acquire(chatID)
	if err != nil {
		return b.reply(chatID, msgBusy, nil)
	}

	// The form is handed over; the stored row is no longer needed.
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		slog.Warn("delete finished session", "component", "bot", "chat_id", chatID, "error", err)
	}
	if err := b.reply(chatID, msgCalculating, nil); err != nil {
		release()
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer release()
		b.deliver(ctx, chatID, s.Inputs)
	}()
	return nil
}

func (b *Bot) start(ctx context.Context, chatID int64) error {
	s := session.New(chatID)
	if err := b.sessions.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(session.ProjectTypeChoices); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(session.ProjectTypeChoices[i])}
		if i+1 < len(session.ProjectTypeChoices) {
			row = append(row, tgbotapi.NewKeyboardButton(session.ProjectTypeChoices[i+1]))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	return b.reply(chatID, s.Step.Question(), keyboard)
}

// deliver runs the projection and sends its three replies.
func (b *Bot) deliver(ctx context.Context, chatID int64, raw models.RawInputs) {
	log := slog.With("component", "bot", "chat_id", chatID)

	out, err := b.runner.Run(ctx, raw)
	if err != nil {
		var pe *calc.ParseError
		if errors.As(err, &pe) {
			b.reply(chatID, parseErrorText(pe), nil)
			return
		}
		log.Error("projection failed", "error", err)
		b.reply(chatID, msgFailed, nil)
		return
	}
	log = log.With("run_id", out.RunID)

	if out.Narrative != "" {
		if err := b.sendNarrative(chatID, out.Narrative); err != nil {
			log.Warn("send narrative", "error", err)
		}
	} else if out.NarrativeErr != nil {
		b.reply(chatID, msgNoNarrative, nil)
	}

	b.reply(chatID, pipeline.FormatMetrics(out.Result.Summary), nil)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: out.Filename, Bytes: out.Workbook})
	doc.Caption = msgDocCaption
	if _, err := b.api.Send(doc); err != nil {
		log.Error("send workbook", "error", err)
		b.reply(chatID, msgFailed, nil)
		return
	}
	log.Info("run delivered")
}

// sendNarrative sends the commentary as Telegram HTML, falling back to
// plain text when rendering or the HTML send fails.
func (b *Bot) sendNarrative(chatID int64, text string) error {
	rendered, err := utils.MarkdownToTelegramHTML(text)
	if err == nil {
		err = b.sendChunks(chatID, msgAnalysisHead+rendered, tgbotapi.ModeHTML)
		if err == nil {
			return nil
		}
	}
	slog.Debug("html narrative rejected, sending plain", "component", "bot", "error", err)
	return b.sendChunks(chatID, "📋 Analysis of your model:\n\n"+text, "")
}

func (b *Bot) sendChunks(chatID int64, text, parseMode string) error {
	for _, chunk := range utils.SplitMessage(text, utils.TelegramMessageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = parseMode
		if _, err := b.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func parseErrorText(pe *calc.ParseError) string {
	label := fieldLabels[pe.Field]
	if label == "" {
		label = pe.Field
	}
	return fmt.Sprintf("⚠️ Could not use %q for %s: %s.\nSend /start to fill in the form again.",
		pe.Value, label, pe.Reason)
}
