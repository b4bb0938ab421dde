package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"catalog_bot/internal/model"
	"catalog_bot/internal/view"
)

// maxListed caps the items shown in one catalog message.
const maxListed = 10

// FormatCatalog formats the visible part of the catalog for a session.
func FormatCatalog(st view.State, items []model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", st.Category)
	if st.Query != "" {
		fmt.Fprintf(&b, "Search: %q\n", st.Query)
	}

	if len(items) == 0 {
		b.WriteString("\nNo items match. Try another /category or /search.")
		return b.String()
	}

	if len(items) == 1 {
		b.WriteString("1 item:\n")
	} else {
		fmt.Fprintf(&b, "%d items:\n", len(items))
	}
	for i, it := range items {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more. Narrow the list with /search or /category.", len(items)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n#%s %s\n", it.ID, it.Name)
		if line := summaryLine(it); line != "" {
			fmt.Fprintf(&b, "   %s\n", line)
		}
	}
	return b.String()
}

// FormatItem formats the full details of one item.
func FormatItem(it model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s\n", it.ID, it.Name)
	fmt.Fprintf(&b, "Category: %s\n", it.Category)
	if line := summaryLine(it); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if it.Description != "" {
		b.WriteString("\n")
		b.WriteString(it.Description)
		b.WriteString("\n")
	}
	if len(it.Features) > 0 {
		b.WriteString("\nFeatures:\n")
		for _, f := range it.Features {
			fmt.Fprintf(&b, "  • %s\n", f)
		}
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(it.Tags, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func summaryLine(it model.Item) string {
	var parts []string
	switch {
	case it.Price != "" && it.OriginalPrice != "" && it.OriginalPrice != it.Price:
		parts = append(parts, fmt.Sprintf("%s (was %s)", it.Price, it.OriginalPrice))
	case it.Price != "":
		parts = append(parts, it.Price)
	}
	if it.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★%.1f", it.Rating))
	}
	if it.Downloads != "" {
		parts = append(parts, it.Downloads+" downloads")
	}
	if it.Difficulty != "" {
		parts = append(parts, it.Difficulty)
	}
	return strings.Join(parts, " · ")
}

// FormatCapturePrompt formats the capture screen of a session.
func FormatCapturePrompt(st view.State) string {
	if st.Target == nil {
		return "Nothing selected. Pick an item from /catalog first."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Access to %q\n\n", st.Target.Name)
	b.WriteString("Identify yourself by name or phone number.\n")
	fmt.Fprintf(&b, "Method: %s\n", st.Method.Label())
	if v := st.Values.Get(st.Method); v != "" {
		fmt.Fprintf(&b, "Entered: %s\n", v)
	}
	fmt.Fprintf(&b, "\nSend your %s as a message, then press Submit.", st.Method.Label())
	return b.String()
}

// FormatConfirmation formats the reply to an accepted capture.
func FormatConfirmation(ev model.CaptureEvent) string {
	return fmt.Sprintf("Thank you! Starting %s...", ev.ItemName)
}

// FormatValidation formats the reply to a rejected capture.
func FormatValidation(err *view.ValidationError) string {
	return fmt.Sprintf("Please enter your %s.", err.Field())
}

func catalogKeyboard(items []model.Item) *tgbotapi.InlineKeyboardMarkup {
	if len(items) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxListed {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(it.Name, cmdItem+":"+it.ID),
			tgbotapi.NewInlineKeyboardButtonData("Get", cmdGet+":"+it.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Categories", cmdCategories+":"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func categoriesKeyboard(categories []string, current string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range categories {
		label := c
		if c == current {
			label = "• " + c
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", cbCategory, i)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func itemKeyboard(it model.Item) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Get access", cmdGet+":"+it.ID),
		tgbotapi.NewInlineKeyboardButtonData("Back", cmdCatalog+":"),
	))
	return &kb
}

func captureKeyboard(method model.ContactMethod) *tgbotapi.InlineKeyboardMarkup {
	name, phone := "Name", "Phone"
	if method == model.ByPhone {
		phone = "• Phone"
	} else {
		name = "• Name"
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, cbMethod+":"+string(model.ByName)),
			tgbotapi.NewInlineKeyboardButtonData(phone, cbMethod+":"+string(model.ByPhone)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Submit", cmdSubmit+":"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cmdCancel+":"),
		),
	)
	return &kb
}
