package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"catalog_bot/internal/model"
)

const (
	cmdCatalog    = "catalog"
	cmdCategories = "categories"
	cmdItem       = "item"
	cmdGet        = "get"
	cmdSubmit     = "submit"
	cmdCancel     = "cancel"

	cbCategory = "cat"
	cbMethod   = "method"
)

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, arg, ok := ParseCallback(cb.Data)
	if !ok {
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdCatalog:
		b.showCatalog(chatID)
	case cmdCategories:
		b.showCategories(chatID)
	case cbCategory:
		name, err := ParseCategoryIndex(arg, b.sessions.Get(chatID).Catalog().Categories())
		if err != nil {
			b.reply(chatID, "That category is no longer available. Use /categories.")
			return
		}
		b.selectCategory(chatID, name)
	case cmdItem:
		b.handleItem(chatID, arg)
	case cmdGet:
		b.handleGet(chatID, arg)
	case cbMethod:
		m, err := model.ParseContactMethod(arg)
		if err != nil {
			return
		}
		b.handleMethod(chatID, m)
	case cmdSubmit:
		b.handleSubmit(chatID)
	case cmdCancel:
		b.handleCancel(chatID)
	}
}
