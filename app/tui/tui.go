// Package tui implements a terminal front-end for the todo list, every change goes straight
// to the repository and the list is reloaded from it afterwards.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/umputun/todomvc/app/enums"
	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/todo"
)

// Repository defines todo operations used by the terminal UI
type Repository interface {
	GetAll(ctx context.Context) ([]store.Todo, error)
	Create(ctx context.Context, title string) (store.Todo, error)
	Update(ctx context.Context, id int, ch todo.Changes) (store.Todo, error)
	Delete(ctx context.Context, id int) error
	ToggleAll(ctx context.Context, completed bool) ([]store.Todo, error)
	ClearCompleted(ctx context.Context) (int, error)
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputEdit
)

// Model is the bubbletea model of the todo list
type Model struct {
	ctx  context.Context
	repo Repository

	list   list.Model
	ti     textinput.Model
	all    []store.Todo // full list as last loaded, list items are the filtered view of it
	mode   enums.ViewMode
	input  inputMode
	editID int
	errMsg string
	width  int
	height int
}

// item adapts a todo to list.Item
type item struct {
	todo store.Todo
}

func (i item) Title() string       { return i.todo.Title }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.todo.Title }

// itemDelegate renders each todo in a single line with a check box
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	box, text := mutedStyle.Render(boxUnchecked), it.todo.Title
	if it.todo.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(it.todo.Title)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	_, _ = fmt.Fprint(w, prefix+box+" "+text)
}

var (
	addKey        = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey       = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleKey     = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey     = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	toggleAllKey  = key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all"))
	clearKey      = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed"))
	modeKey       = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "view"))
	quitKey       = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit"))
	listHelpBinds = []key.Binding{addKey, editKey, toggleKey, deleteKey, toggleAllKey, clearKey, modeKey}
)

// New makes the model and loads the list from the repository
func New(ctx context.Context, repo Repository) (Model, error) {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowTitle(true)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false) // letter keys are actions here
	l.SetStatusBarItemName("item", "items")
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.KeyMap.Quit = quitKey
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return listHelpBinds[:4] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return listHelpBinds }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256

	m := Model{ctx: ctx, repo: repo, list: l, ti: ti, mode: enums.ViewModeAll, width: 80, height: 24}
	if err := m.reload(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Run starts the terminal UI and blocks until the user quits or ctx is canceled
func Run(ctx context.Context, repo Repository) error {
	m, err := New(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.resize()
		return m, nil
	}

	if m.input != inputNone {
		return m.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	m.errMsg = ""
	switch {
	case key.Matches(km, quitKey):
		return m, tea.Quit
	case key.Matches(km, addKey):
		m.startInput(inputAdd, "", "What needs to be done?")
		return m, textinput.Blink
	case key.Matches(km, editKey):
		if it, ok := m.selected(); ok {
			m.editID = it.todo.ID
			m.startInput(inputEdit, it.todo.Title, "")
			return m, textinput.Blink
		}
		return m, nil
	case key.Matches(km, toggleKey):
		if it, ok := m.selected(); ok {
			completed := !it.todo.Completed
			_, err := m.repo.Update(m.ctx, it.todo.ID, todo.Changes{Completed: &completed})
			m.afterChange(err, "toggle")
		}
		return m, nil
	case key.Matches(km, deleteKey):
		if it, ok := m.selected(); ok {
			m.afterChange(m.repo.Delete(m.ctx, it.todo.ID), "delete")
		}
		return m, nil
	case key.Matches(km, toggleAllKey):
		if len(m.all) > 0 {
			_, err := m.repo.ToggleAll(m.ctx, todo.ActiveCount(m.all) > 0)
			m.afterChange(err, "toggle all")
		}
		return m, nil
	case key.Matches(km, clearKey):
		_, err := m.repo.ClearCompleted(m.ctx)
		m.afterChange(err, "clear completed")
		return m, nil
	case key.Matches(km, modeKey):
		m.mode = enums.ViewModeValues[(m.mode.Index()+1)%len(enums.ViewModeValues)]
		m.refresh()
		m.list.Select(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput handles keys while the add or edit line is active
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if ok {
		switch km.Type {
		case tea.KeyEsc:
			m.stopInput()
			return m, nil
		case tea.KeyEnter:
			m.submitInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

// submitInput saves the add or edit line, blank new titles are rejected and an emptied edit
// removes the todo
func (m *Model) submitInput() {
	title := strings.TrimSpace(m.ti.Value())
	switch m.input {
	case inputAdd:
		if title == "" {
			m.errMsg = "title can't be empty"
			return
		}
		_, err := m.repo.Create(m.ctx, title)
		m.stopInput()
		m.afterChange(err, "add")
		if err == nil && len(m.list.Items()) > 0 {
			m.list.Select(len(m.list.Items()) - 1)
		}
	case inputEdit:
		id := m.editID
		m.stopInput()
		if title == "" {
			m.afterChange(m.repo.Delete(m.ctx, id), "delete")
			return
		}
		_, err := m.repo.Update(m.ctx, id, todo.Changes{Title: &title})
		m.afterChange(err, "edit")
	}
}

func (m *Model) startInput(mode inputMode, value, placeholder string) {
	m.input = mode
	m.errMsg = ""
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Placeholder = placeholder
	m.ti.Focus()
	m.resize()
}

func (m *Model) stopInput() {
	m.input = inputNone
	m.editID = 0
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

// afterChange reloads the list after a repository call, errors are shown in the status line
func (m *Model) afterChange(err error, action string) {
	if err != nil {
		m.errMsg = fmt.Sprintf("%s failed: %v", action, err)
		return
	}
	if err := m.reload(); err != nil {
		m.errMsg = fmt.Sprintf("reload failed: %v", err)
	}
}

// reload fetches the full list from the repository and refreshes the view
func (m *Model) reload() error {
	all, err := m.repo.GetAll(m.ctx)
	if err != nil {
		return err
	}
	m.all = all
	m.refresh()
	return nil
}

// refresh rebuilds list items for the current view mode, keeping the cursor in range
func (m *Model) refresh() {
	visible := todo.Filter(m.all, m.mode)
	items := make([]list.Item, 0, len(visible))
	for _, td := range visible {
		items = append(items, item{todo: td})
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	active := todo.ActiveCount(m.all)
	m.list.Title = fmt.Sprintf("todos  %s %d  %s %d",
		pendingStyle.Render("•"), active, successStyle.Render("✔"), len(m.all)-active)
}

func (m *Model) selected() (item, bool) {
	it, ok := m.list.SelectedItem().(item)
	return it, ok
}

func (m *Model) resize() {
	h := m.height - 5
	if m.input != inputNone {
		h -= 3
	}
	m.list.SetSize(max(m.width-4, 10), max(h, 3))
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.modeLine())
	b.WriteString("\n")
	b.WriteString(m.list.View())

	if m.input != inputNone {
		title := "New todo"
		if m.input == inputEdit {
			title = "Edit todo (empty to delete)"
		}
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(title + "\n" + m.ti.View()))
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✖ " + m.errMsg))
	}
	return panelStyle.Render(b.String())
}

// modeLine shows view modes with the current one highlighted
func (m Model) modeLine() string {
	names := make([]string, 0, len(enums.ViewModeValues))
	for _, v := range enums.ViewModeValues {
		if v == m.mode {
			names = append(names, modeStyle.Render(v.String()))
			continue
		}
		names = append(names, mutedStyle.Render(v.String()))
	}
	return strings.Join(names, "  ")
}
