package bot

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"catalog_bot/internal/model"
	"catalog_bot/internal/view"
)

func (b *Bot) handleStart(chatID int64) {
	b.sessions.Get(chatID)
	b.reply(chatID, `Welcome to the catalog!

Browse the items, narrow them down by category or search, and pick one to get access.

Quick start:
1. /catalog — show the items
2. /categories — pick a category
3. /search <text> — search names, descriptions and tags

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Browsing:
/catalog — show the visible items
/categories — list categories
/category <name> — filter by category (All shows everything)
/search <text> — filter by text, /search alone clears it
/item <id> — item details
/get <id> — request access to an item

Any plain message while browsing is used as the search text.

Access form:
/name — identify by name
/phone — identify by phone number
/submit — send the form
/cancel — back to the catalog

Any plain message on the form is saved as your name or phone number.`)
}

func (b *Bot) showCatalog(chatID int64) {
	ctrl := b.sessions.Get(chatID)
	st := ctrl.State()
	if st.Screen == model.Capture {
		b.showCapture(chatID, st)
		return
	}
	items := ctrl.Visible()
	b.send(chatID, FormatCatalog(st, items), catalogKeyboard(items))
}

func (b *Bot) showCategories(chatID int64) {
	ctrl := b.sessions.Get(chatID)
	cats := ctrl.Catalog().Categories()
	b.send(chatID, "Choose a category:", categoriesKeyboard(cats, ctrl.State().Category))
}

func (b *Bot) handleCategory(chatID int64, args string) {
	if args == "" {
		b.showCategories(chatID)
		return
	}
	name, ok := b.sessions.Get(chatID).Catalog().MatchCategory(args)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Unknown category %q. Use /categories to see the list.", args))
		return
	}
	b.selectCategory(chatID, name)
}

func (b *Bot) selectCategory(chatID int64, name string) {
	if err := b.sessions.Get(chatID).SetCategory(name); err != nil {
		b.reply(chatID, fmt.Sprintf("Unknown category %q. Use /categories to see the list.", name))
		return
	}
	b.showCatalog(chatID)
}

func (b *Bot) handleSearch(chatID int64, query string) {
	b.sessions.Get(chatID).SetQuery(query)
	if query != "" {
		b.metrics.Searches.Inc()
	}
	b.showCatalog(chatID)
}

func (b *Bot) handleItem(chatID int64, args string) {
	id, err := ParseItemArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /item <id>")
		return
	}
	it, ok := b.sessions.Get(chatID).Catalog().Item(id)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Item #%s not found.", id))
		return
	}
	b.send(chatID, FormatItem(it), itemKeyboard(it))
}

func (b *Bot) handleGet(chatID int64, args string) {
	id, err := ParseItemArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /get <id>")
		return
	}

	ctrl := b.sessions.Get(chatID)
	it, err := ctrl.SelectItem(id)
	switch {
	case errors.Is(err, view.ErrNotBrowsing):
		b.reply(chatID, "You are already filling in a form. Use /submit or /cancel first.")
		return
	case errors.Is(err, view.ErrUnknownItem):
		b.reply(chatID, fmt.Sprintf("Item #%s not found.", id))
		return
	case err != nil:
		b.log.Error("select item", "chat_id", chatID, "item_id", id, "error", err)
		return
	}

	b.metrics.Selections.Inc()
	b.log.Info("item selected", "chat_id", chatID, "item_id", it.ID)
	b.showCapture(chatID, ctrl.State())
}

func (b *Bot) showCapture(chatID int64, st view.State) {
	b.send(chatID, FormatCapturePrompt(st), captureKeyboard(st.Method))
}

func (b *Bot) handleMethod(chatID int64, m model.ContactMethod) {
	ctrl := b.sessions.Get(chatID)
	if err := ctrl.SetContactMethod(m); err != nil {
		if errors.Is(err, view.ErrNotCapturing) {
			b.reply(chatID, "Pick an item with /get <id> first.")
			return
		}
		b.reply(chatID, "Unknown contact method. Use /name or /phone.")
		return
	}
	b.showCapture(chatID, ctrl.State())
}

func (b *Bot) handleText(chatID int64, text string) {
	ctrl := b.sessions.Get(chatID)
	st := ctrl.State()
	if st.Screen == model.Browse {
		b.handleSearch(chatID, text)
		return
	}

	if err := ctrl.SetContactValue(text); err != nil {
		// The session left the form between the two calls.
		b.showCatalog(chatID)
		return
	}
	b.send(chatID, fmt.Sprintf("Saved your %s. Press Submit to continue.", st.Method.Label()), captureKeyboard(st.Method))
}

func (b *Bot) handleContact(chatID int64, contact *tgbotapi.Contact) {
	ctrl := b.sessions.Get(chatID)
	if ctrl.SetContactMethod(model.ByPhone) != nil {
		b.reply(chatID, "Pick an item with /get <id> first.")
		return
	}
	if err := ctrl.SetContactValue(contact.PhoneNumber); err != nil {
		b.reply(chatID, "Pick an item with /get <id> first.")
		return
	}
	b.send(chatID, "Saved your phone number. Press Submit to continue.", captureKeyboard(model.ByPhone))
}

func (b *Bot) handleSubmit(chatID int64) {
	ev, err := b.sessions.Get(chatID).Submit()

	var verr *view.ValidationError
	switch {
	case errors.As(err, &verr):
		b.reply(chatID, FormatValidation(verr))
		return
	case errors.Is(err, view.ErrNotCapturing):
		b.reply(chatID, "Nothing to submit. Pick an item with /get <id> first.")
		return
	case err != nil:
		b.log.Error("submit", "chat_id", chatID, "error", err)
		return
	}

	b.log.Info("capture accepted",
		"capture_id", ev.ID,
		"chat_id", chatID,
		"item_id", ev.ItemID,
		"method", string(ev.Method),
	)
	b.reply(chatID, FormatConfirmation(ev))
}

func (b *Bot) handleCancel(chatID int64) {
	b.sessions.Get(chatID).Cancel()
	b.showCatalog(chatID)
}
