// Package console drives a browsing session from line-oriented terminal
// input.
package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"catalog_bot/internal/model"
	"catalog_bot/internal/view"
)

var commands = []string{
	"cancel", "categories", "category", "get", "help", "item",
	"list", "method", "quit", "search", "state", "submit", "value",
}

// Session executes console commands against one view controller.
type Session struct {
	ctrl *view.Controller
	out  io.Writer
}

// New creates a Session writing its output to out.
func New(ctrl *view.Controller, out io.Writer) *Session {
	return &Session{ctrl: ctrl, out: out}
}

// Prompt returns the prompt for the current screen.
func (s *Session) Prompt() string {
	if s.ctrl.State().Screen == model.Capture {
		return "capture> "
	}
	return "catalog> "
}

// Complete returns completions for a partially typed line.
func (s *Session) Complete(line string) []string {
	cmd, rest, hasArg := strings.Cut(line, " ")
	if !hasArg {
		return withPrefix(commands, "", strings.ToLower(cmd))
	}

	var candidates []string
	switch strings.ToLower(cmd) {
	case "category":
		candidates = s.ctrl.Catalog().Categories()
	case "method":
		candidates = []string{string(model.ByName), string(model.ByPhone)}
	case "get", "item":
		for _, it := range s.ctrl.Visible() {
			candidates = append(candidates, it.ID)
		}
	}
	return withPrefix(candidates, cmd+" ", rest)
}

func withPrefix(candidates []string, head, typed string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(typed)) {
			out = append(out, head+c)
		}
	}
	sort.Strings(out)
	return out
}

// Exec runs one input line. It reports whether the session should end.
func (s *Session) Exec(line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	// The search text keeps its inner and trailing spaces.
	cmd, rawArg := strings.TrimLeft(line, " \t"), ""
	if i := strings.IndexAny(cmd, " \t"); i >= 0 {
		cmd, rawArg = cmd[:i], cmd[i+1:]
	}
	cmd = strings.TrimSpace(cmd)
	arg := strings.TrimSpace(rawArg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp()
	case "list", "ls":
		s.printList()
	case "categories":
		s.printCategories()
	case "category":
		s.setCategory(arg)
	case "search":
		s.ctrl.SetQuery(rawArg)
		s.printList()
	case "item":
		s.printItem(arg)
	case "get":
		s.selectItem(arg)
	case "method":
		s.setMethod(arg)
	case "value":
		s.setValue(rawArg)
	case "submit":
		s.submit()
	case "cancel":
		s.ctrl.Cancel()
		s.printList()
	case "state":
		s.printState()
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `Browsing:
  list                  show visible items
  categories            list categories
  category <name>       filter by category (All shows everything)
  search [text]         filter by text, no text clears it
  item <id>             show item details
  get <id>              request access to an item

Access form:
  method name|phone     choose the contact field
  value <text>          fill in the contact field
  submit                send the form
  cancel                back to the catalog

  state                 show the session state
  quit                  leave
`)
}

func (s *Session) printList() {
	st := s.ctrl.State()
	items := s.ctrl.Visible()
	fmt.Fprintf(s.out, "Category: %s", st.Category)
	if st.Query != "" {
		fmt.Fprintf(s.out, "  Search: %q", st.Query)
	}
	fmt.Fprintf(s.out, "  (%d of %d)\n", len(items), s.ctrl.Catalog().Len())
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No items match.")
		return
	}
	WriteTable(s.out, items)
}

func (s *Session) printCategories() {
	current := s.ctrl.State().Category
	for _, c := range s.ctrl.Catalog().Categories() {
		marker := "  "
		if c == current {
			marker = "* "
		}
		fmt.Fprintln(s.out, marker+c)
	}
}

func (s *Session) setCategory(name string) {
	if name == "" {
		s.printCategories()
		return
	}
	category, ok := s.ctrl.Catalog().MatchCategory(name)
	if !ok {
		fmt.Fprintf(s.out, "Unknown category %q.\n", name)
		return
	}
	if err := s.ctrl.SetCategory(category); err != nil {
		fmt.Fprintf(s.out, "Unknown category %q.\n", name)
		return
	}
	s.printList()
}

func (s *Session) printItem(id string) {
	it, ok := s.ctrl.Catalog().Item(strings.TrimPrefix(id, "#"))
	if !ok {
		fmt.Fprintf(s.out, "Item %q not found.\n", id)
		return
	}
	WriteItem(s.out, it)
}

func (s *Session) selectItem(id string) {
	if id == "" {
		fmt.Fprintln(s.out, "Usage: get <id>")
		return
	}
	_, err := s.ctrl.SelectItem(strings.TrimPrefix(id, "#"))
	switch {
	case errors.Is(err, view.ErrNotBrowsing):
		fmt.Fprintln(s.out, "Already on the access form. Use submit or cancel first.")
		return
	case errors.Is(err, view.ErrUnknownItem):
		fmt.Fprintf(s.out, "Item %q not found.\n", id)
		return
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.printForm()
}

func (s *Session) setMethod(arg string) {
	m, err := model.ParseContactMethod(arg)
	if err != nil {
		fmt.Fprintln(s.out, "Usage: method name|phone")
		return
	}
	if err := s.ctrl.SetContactMethod(m); err != nil {
		fmt.Fprintln(s.out, "No item selected. Use get <id> first.")
		return
	}
	s.printForm()
}

func (s *Session) setValue(v string) {
	if err := s.ctrl.SetContactValue(v); err != nil {
		fmt.Fprintln(s.out, "No item selected. Use get <id> first.")
		return
	}
	fmt.Fprintf(s.out, "Saved your %s.\n", s.ctrl.State().Method.Label())
}

func (s *Session) submit() {
	ev, err := s.ctrl.Submit()
	var verr *view.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(s.out, "Please enter your %s.\n", verr.Field())
	case errors.Is(err, view.ErrNotCapturing):
		fmt.Fprintln(s.out, "Nothing to submit. Use get <id> first.")
	case err != nil:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Thank you! Starting %s...\n", ev.ItemName)
	}
}

func (s *Session) printForm() {
	st := s.ctrl.State()
	if st.Target == nil {
		return
	}
	fmt.Fprintf(s.out, "Access to %q\n", st.Target.Name)
	fmt.Fprintf(s.out, "Method: %s\n", st.Method.Label())
	if v := st.Values.Get(st.Method); v != "" {
		fmt.Fprintf(s.out, "Entered: %s\n", v)
	}
}

func (s *Session) printState() {
	st := s.ctrl.State()
	fmt.Fprintf(s.out, "screen=%s category=%q query=%q", st.Screen, st.Category, st.Query)
	if st.Target != nil {
		fmt.Fprintf(s.out, " target=%s method=%s", st.Target.ID, st.Method)
	}
	fmt.Fprintln(s.out)
}
