package bot

import (
	"fmt"
	"strconv"
	"strings"

	"storal-pricer/internal/engine"
	"storal-pricer/internal/quote"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackDetail = "detail"
	callbackExport = "xlsx"
)

// Callback payloads are "detail:<model>:<w>:<p>:<flags>" and
// "xlsx:<w>:<p>:<flags>", sizes in millimetres. Telegram caps them at
// 64 bytes.

func detailCallback(q *engine.Quote, opts engine.Options) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s", callbackDetail, q.ModelID, q.Width, q.Projection, opts.Flags())
}

func exportCallback(cmp *quote.Comparison) string {
	return fmt.Sprintf("%s:%d:%d:%s", callbackExport, cmp.Width, cmp.Projection, cmp.Options.Flags())
}

type callbackData struct {
	Action     string
	ModelID    string
	Width      int
	Projection int
	Options    engine.Options
}

func parseCallback(data string) (callbackData, error) {
	parts := strings.Split(data, ":")
	var cb callbackData

	switch {
	case len(parts) == 5 && parts[0] == callbackDetail:
		cb.Action, cb.ModelID = parts[0], parts[1]
		parts = parts[2:]
	case len(parts) == 4 && parts[0] == callbackExport:
		cb.Action = parts[0]
		parts = parts[1:]
	default:
		return callbackData{}, fmt.Errorf("malformed callback %q", data)
	}

	var err error
	if cb.Width, err = strconv.Atoi(parts[0]); err != nil {
		return callbackData{}, fmt.Errorf("malformed callback %q: %w", data, err)
	}
	if cb.Projection, err = strconv.Atoi(parts[1]); err != nil {
		return callbackData{}, fmt.Errorf("malformed callback %q: %w", data, err)
	}
	if cb.Options, err = engine.ParseFlags(parts[2]); err != nil {
		return callbackData{}, fmt.Errorf("malformed callback %q: %w", data, err)
	}
	return cb, nil
}

func createComparisonKeyboard(cmp *quote.Comparison) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, q := range cmp.Quotes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔎 "+q.ModelName, detailCallback(q, cmp.Options)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📊 Export Excel", exportCallback(cmp)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func createMainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/catalogue"),
			tgbotapi.NewKeyboardButton("/aide"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
