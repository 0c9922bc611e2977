package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/config"
	"taskdeck/internal/debounce"
	"taskdeck/internal/engine"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/storage"
)

type mode int

const (
	modeLogin mode = iota
	modeList
	modeForm
	modeSearch
)

var (
	badgeLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badgeMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badgeHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle   = lipgloss.NewStyle().Faint(true)
)

// searchSettledMsg carries a search term that survived the debounce quiet
// period.
type searchSettledMsg string

type loginState struct {
	email    string
	password string
	index    int
}

// formState cycles through the editable task fields for both add and
// edit. An empty taskID means the form creates a new task.
type formState struct {
	taskID      string
	title       string
	description string
	priority    string
	due         string
	index       int
}

type Model struct {
	tasks    *storage.TaskStore
	sessions *session.Store
	cfg      config.Config

	list    []engine.Task
	visible []engine.Task
	cursor  int
	filter  engine.FilterMode
	search  string

	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *engine.Task
	form       *formState
	login      loginState

	debouncer *debounce.Debouncer[string]
}

// Run wires the dashboard together: it owns the search debouncer and the
// overdue-task notifier and disposes both when the program exits.
func Run(tasks *storage.TaskStore, sessions *session.Store, cfg config.Config, logger *slog.Logger) error {
	ti := textinput.New()
	ti.Placeholder = "you@example.com"
	ti.CharLimit = 256
	ti.Width = 40

	deb := debounce.New[string](time.Duration(cfg.SearchDebounceMS) * time.Millisecond)
	defer deb.Stop()

	m := Model{
		tasks:     tasks,
		sessions:  sessions,
		cfg:       cfg,
		list:      tasks.Load(),
		filter:    engine.ParseFilter(cfg.DefaultFilter),
		mode:      modeLogin,
		input:     ti,
		status:    "Sign in to continue.",
		debouncer: deb,
	}
	if m.sessions.IsAuthenticated() {
		m.mode = modeList
		m.status = "Press 'a' to add, space to toggle, 'd' to delete, '/' to search."
	}
	m.visible = engine.Derive(m.list, m.filter, m.search)
	if m.mode == modeLogin {
		m.input.Focus()
	}

	program := tea.NewProgram(m)
	deb.Notify(func(term string) {
		program.Send(searchSettledMsg(term))
	})

	notifier := &notify.Notifier{
		Interval: time.Duration(cfg.NotifyIntervalMin) * time.Minute,
		Source:   tasks.Load,
		Logger:   logger,
	}
	stopNotifier := notifier.Start()
	defer stopNotifier()

	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.mode == modeLogin {
		return textinput.Blink
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchSettledMsg:
		m.search = string(msg)
		m.rederive()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg.String(), msg)
		case modeForm:
			return m.updateForm(msg.String(), msg)
		case modeSearch:
			return m.updateSearch(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.updateList(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateLogin(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.login.setCurrent(m.input.Value())
		m.login.index = 1 - m.login.index
		m.syncLoginInput()
		return m, nil
	case "enter":
		m.login.setCurrent(m.input.Value())
		if m.login.index == 0 {
			m.login.index = 1
			m.syncLoginInput()
			return m, nil
		}
		if !session.Validate(m.login.email, m.login.password) {
			m.status = "Invalid credentials: identifier needs an '@', secret needs 6+ characters."
			return m, nil
		}
		if err := m.sessions.Login(m.login.email); err != nil {
			m.status = fmt.Sprintf("login failed: %v", err)
			return m, nil
		}
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.input.EchoMode = textinput.EchoNormal
		m.status = "Press 'a' to add, space to toggle, 'd' to delete, '/' to search."
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) syncLoginInput() {
	if m.login.index == 0 {
		m.input.Placeholder = "you@example.com"
		m.input.EchoMode = textinput.EchoNormal
		m.input.SetValue(m.login.email)
	} else {
		m.input.Placeholder = "password"
		m.input.EchoMode = textinput.EchoPassword
		m.input.SetValue(m.login.password)
	}
	m.input.CursorEnd()
	m.input.Focus()
}

func (ls *loginState) setCurrent(v string) {
	if ls.index == 0 {
		ls.email = strings.TrimSpace(v)
	} else {
		ls.password = v
	}
}

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.visible) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.visible))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.visible))
		}
	case m.cfg.Keys.Add:
		m.form = &formState{priority: string(engine.PriorityMedium)}
		m.mode = modeForm
		m.syncFormInput()
		m.status = "New task: enter to advance, esc to cancel."
	case m.cfg.Keys.Edit:
		if len(m.visible) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		t := m.visible[m.cursor]
		m.form = &formState{
			taskID:      t.ID,
			title:       t.Title,
			description: t.Description,
			priority:    string(t.Priority),
			due:         t.DueDate,
		}
		m.mode = modeForm
		m.syncFormInput()
		m.status = "Edit task: enter to advance, esc to cancel."
	case m.cfg.Keys.Toggle:
		if len(m.visible) == 0 {
			return m, nil
		}
		id := m.visible[m.cursor].ID
		m.apply(func(tasks []engine.Task) []engine.Task {
			return engine.Toggle(tasks, id)
		}, "Toggled task")
	case m.cfg.Keys.Delete:
		if len(m.visible) == 0 {
			return m, nil
		}
		t := m.visible[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Filter:
		m.filter = nextFilter(m.filter)
		m.rederive()
		m.status = fmt.Sprintf("Filter: %s", m.filter)
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.Placeholder = "Search title, description, priority"
		m.input.SetValue(m.search)
		m.input.CursorEnd()
		m.input.Focus()
		m.status = "Search: enter to keep, esc to clear."
	case m.cfg.Keys.Logout:
		if err := m.sessions.Logout(); err != nil {
			m.status = fmt.Sprintf("logout failed: %v", err)
			return m, nil
		}
		m.mode = modeLogin
		m.login = loginState{}
		m.syncLoginInput()
		m.status = "Signed out."
	}
	return m, nil
}

func (m Model) updateSearch(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.debouncer.Set("")
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.mode = modeList
		m.input.Blur()
		m.status = "Search kept"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.debouncer.Set(m.input.Value())
		return m, cmd
	}
}

func (m Model) updateForm(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrent(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.syncFormInput()
		return m, nil
	case "shift+tab", "up":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrent(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.syncFormInput()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrent(m.input.Value())
		if m.form.index < len(formFields())-1 {
			m.form.index++
			m.syncFormInput()
			return m, nil
		}
		return m.saveForm()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	title := strings.TrimSpace(m.form.title)
	if title == "" {
		m.status = "Title cannot be empty"
		m.form.index = 0
		m.syncFormInput()
		return m, nil
	}
	priority, err := parsePriority(m.form.priority)
	if err != nil {
		m.status = fmt.Sprintf("priority invalid: %v", err)
		return m, nil
	}
	due := strings.TrimSpace(m.form.due)
	if due != "" {
		if _, err := time.Parse("2006-01-02", due); err != nil {
			m.status = "due date invalid: use YYYY-MM-DD"
			return m, nil
		}
	}

	if m.form.taskID == "" {
		input := engine.Input{
			Title:       title,
			Description: m.form.description,
			Priority:    priority,
			DueDate:     due,
		}
		m.cursor = 0
		m.apply(func(tasks []engine.Task) []engine.Task {
			return engine.Create(tasks, input)
		}, "Added task")
	} else {
		id := m.form.taskID
		description := m.form.description
		patch := engine.Patch{
			Title:       &title,
			Description: &description,
			Priority:    &priority,
			DueDate:     &due,
		}
		m.apply(func(tasks []engine.Task) []engine.Task {
			return engine.Update(tasks, id, patch)
		}, "Saved task")
	}

	m.form = nil
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		id := m.pendingDel.ID
		m.apply(func(tasks []engine.Task) []engine.Task {
			return engine.Remove(tasks, id)
		}, "Deleted task")
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

// apply runs a list operation through the store, which loads the latest
// persisted list before mutating. The in-memory copy is replaced by the
// store's result, so a task written by the web surface survives the next
// mutation made here.
func (m *Model) apply(op func([]engine.Task) []engine.Task, okStatus string) {
	tasks, err := m.tasks.Mutate(op)
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		m.list = m.tasks.Load()
	} else {
		m.status = okStatus
		m.list = tasks
	}
	m.rederive()
}

func (m *Model) rederive() {
	m.visible = engine.Derive(m.list, m.filter, m.search)
	m.cursor = clampCursor(m.cursor, len(m.visible))
}

func (m Model) View() string {
	if m.mode == modeLogin {
		return m.viewLogin()
	}
	return m.viewDashboard()
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString("Taskdeck — sign in\n\n")
	fields := []string{"Email", "Password"}
	values := []string{m.login.email, maskSecret(m.login.password)}
	for i, name := range fields {
		prefix := " "
		if i == m.login.index {
			prefix = ">"
		}
		val := values[i]
		if i == m.login.index {
			val = m.input.View()
		} else if val == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-9s: %s\n", prefix, name, val))
	}
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\ntab switch field • enter submit • ctrl+c quit\n")
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder

	user, _ := m.sessions.CurrentUser()
	b.WriteString(fmt.Sprintf("Taskdeck — %s | %d tasks, %d shown | filter: %s",
		user, len(m.list), len(m.visible), m.filter))
	if strings.TrimSpace(m.search) != "" {
		b.WriteString(fmt.Sprintf(" | search: %q", m.search))
	}
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		if len(m.list) == 0 {
			b.WriteString("No tasks yet. Press 'a' to add one.")
		} else {
			b.WriteString("No tasks match the current filter and search.")
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")
	if m.mode == modeForm && m.form != nil {
		b.WriteString(m.renderForm())
	} else if m.mode == modeSearch {
		b.WriteString("Search: " + m.input.View() + "\n")
	} else {
		b.WriteString(m.renderDetailPanel())
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.visible {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		title := t.Title
		if t.Status == engine.StatusCompleted {
			checkbox = "[x]"
			title = doneStyle.Render(title)
		}

		line := fmt.Sprintf("%s %s %s %s", cursor, checkbox, renderPriorityBadge(t.Priority), title)
		if t.DueDate != "" {
			line += " (due " + t.DueDate + ")"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderForm() string {
	fields := formFields()
	values := []string{m.form.title, m.form.description, m.form.priority, m.form.due}
	var b strings.Builder
	if m.form.taskID == "" {
		b.WriteString("New task\n\n")
	} else {
		b.WriteString("Edit task\n\n")
	}
	for i, name := range fields {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := values[i]
		if i == m.form.index {
			val = m.input.View()
		} else if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-24s: %s\n", prefix, name, val))
	}
	return b.String()
}

func (m Model) renderDetailPanel() string {
	if len(m.visible) == 0 {
		return "No task selected\n"
	}
	t := m.visible[clampCursor(m.cursor, len(m.visible))]
	var b strings.Builder
	b.WriteString("Selected\n")
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", emptyPlaceholder(t.Description)))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", renderPriorityBadge(t.Priority)))
	b.WriteString(fmt.Sprintf("Due         : %s\n", emptyPlaceholder(t.DueDate)))
	b.WriteString(fmt.Sprintf("Status      : %s\n", t.Status))
	b.WriteString(fmt.Sprintf("Created     : %s\n", t.CreatedAt))
	return b.String()
}

func (m *Model) syncFormInput() {
	if m.form == nil {
		return
	}
	m.input.Placeholder = m.form.currentLabel()
	m.input.EchoMode = textinput.EchoNormal
	m.input.SetValue(m.form.currentValue())
	m.input.CursorEnd()
	m.input.Focus()
}

func formFields() []string {
	return []string{"title", "description", "priority (low/medium/high)", "due date (YYYY-MM-DD)"}
}

func (fs formState) currentLabel() string {
	return formFields()[fs.index]
}

func (fs formState) currentValue() string {
	switch fs.index {
	case 0:
		return fs.title
	case 1:
		return fs.description
	case 2:
		return fs.priority
	case 3:
		return fs.due
	default:
		return ""
	}
}

func (fs *formState) setCurrent(v string) {
	switch fs.index {
	case 0:
		fs.title = v
	case 1:
		fs.description = v
	case 2:
		fs.priority = v
	case 3:
		fs.due = v
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s filter • %s search • %s logout • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Toggle, k.Delete, k.Filter, k.Search, k.Logout, k.Quit)
}

// renderPriorityBadge falls back to the medium style for tasks decoded
// from storage without a priority.
func renderPriorityBadge(p engine.Priority) string {
	switch p {
	case engine.PriorityLow:
		return badgeLow.Render("low")
	case engine.PriorityHigh:
		return badgeHigh.Render("high")
	default:
		return badgeMedium.Render("medium")
	}
}

func nextFilter(f engine.FilterMode) engine.FilterMode {
	switch f {
	case engine.FilterAll:
		return engine.FilterPending
	case engine.FilterPending:
		return engine.FilterCompleted
	case engine.FilterCompleted:
		return engine.FilterHigh
	default:
		return engine.FilterAll
	}
}

func parsePriority(v string) (engine.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(engine.PriorityMedium):
		return engine.PriorityMedium, nil
	case string(engine.PriorityLow):
		return engine.PriorityLow, nil
	case string(engine.PriorityHigh):
		return engine.PriorityHigh, nil
	default:
		return "", fmt.Errorf("want low, medium, or high")
	}
}

func maskSecret(v string) string {
	return strings.Repeat("*", len(v))
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
