package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Builder creates the inline keyboards for each stage of the conversation.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// MainMenu builds the top-level action menu shown to activated users.
func (b *Builder) MainMenu() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "Deposit 📥", Data: "menu_deposit"},
			InlineButton{Text: "Withdraw 📤", Data: "menu_withdraw"},
		).
		AddRow(
			InlineButton{Text: "Buy 💰", Data: "menu_buy"},
			InlineButton{Text: "Sell 📉", Data: "menu_sell"},
		).
		AddRow(
			InlineButton{Text: "Export Key 🔑", Data: "menu_key"},
		).
		Build(nil)
}

// ConfirmButtons builds the confirmation row shown before a submission.
func (b *Builder) ConfirmButtons() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "Confirm ✅", Data: "flow_confirm"},
			InlineButton{Text: "Cancel ❌", Data: "flow_abort"},
		).
		Build(nil)
}

// SellModeButtons lets the user choose between selling everything and
// entering an exact amount.
func (b *Builder) SellModeButtons() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "Sell All 💯", Data: "sell_all"},
			InlineButton{Text: "Enter Amount ✍️", Data: "sell_custom"},
		).
		AddRow(
			InlineButton{Text: "Cancel ❌", Data: "flow_abort"},
		).
		Build(nil)
}

// DownloadKeyButton builds the single-button row attached to credential
// messages.
func (b *Builder) DownloadKeyButton() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "Download Private Key 📥", Data: "download_key"}).
		Build(nil)
}

// CancelButton builds a single abort button for input prompts.
func (b *Builder) CancelButton() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "Cancel ❌", Data: "flow_abort"}).
		Build(nil)
}
