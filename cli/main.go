package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// boardColumns is the lane order the server uses.
var boardColumns = []string{"pending", "awaitingAssignment", "inProgress", "completed"}

var columnTitles = map[string]string{
	"pending":            "Pending",
	"awaitingAssignment": "Awaiting",
	"inProgress":         "In Progress",
	"completed":          "Completed",
}

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	boardView   table.Model
	candidates  list.Model
	menuView    table.Model
	spinner     spinner.Model
	client      *ApiClient
	tasks       []Task
	taskID      string
	loading     bool
	currentView string
	status      string
	statusIsErr bool
}

// item represents a list item
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

type candidateItem struct {
	c Candidate
}

func (i candidateItem) FilterValue() string { return i.c.Name }
func (i candidateItem) Title() string       { return i.c.Name }
func (i candidateItem) Description() string {
	desc := fmt.Sprintf("%s - match %.0f%%", i.c.Role, i.c.MatchScore)
	if i.c.Heuristic {
		desc += " (estimated)"
	}
	return desc
}

func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Task Board", desc: "Review, assign and auto-assign tasks"},
		item{title: "Menu Items", desc: "Browse the saved menu"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "hotelops"

	boardTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Lane", Width: 12},
			{Title: "Task", Width: 38},
			{Title: "Priority", Width: 9},
			{Title: "Department", Width: 12},
			{Title: "Assigned", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	menuTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Item", Width: 32},
			{Title: "Category", Width: 16},
			{Title: "Price", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	candidates := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	candidates.Title = "Choose a handler"

	return Model{
		mainMenu:    mainMenu,
		boardView:   boardTable,
		menuView:    menuTable,
		candidates:  candidates,
		spinner:     s,
		client:      NewApiClient(),
		currentView: "main",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
		m.candidates.SetSize(msg.Width-h, msg.Height-v-4)
	case tea.KeyMsg:
		if m.loading && msg.String() != "ctrl+c" {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			switch m.currentView {
			case "candidates":
				m.currentView = "board"
			case "board", "menu":
				m.currentView = "main"
			}
			return m, nil
		case "enter":
			switch m.currentView {
			case "main":
				selected, ok := m.mainMenu.SelectedItem().(item)
				if !ok {
					return m, nil
				}
				switch selected.title {
				case "Exit":
					return m, tea.Quit
				case "Task Board":
					m.currentView = "board"
					m.loading = true
					return m, fetchBoard(m.client)
				case "Menu Items":
					m.currentView = "menu"
					m.loading = true
					return m, fetchMenu(m.client)
				}
			case "board":
				if t, ok := m.selectedTask(); ok {
					m.taskID = t.ID
					m.candidates.Title = "Assign: " + t.Title
					m.loading = true
					return m, fetchCandidates(m.client, t.ID)
				}
			case "candidates":
				if c, ok := m.candidates.SelectedItem().(candidateItem); ok {
					m.currentView = "board"
					m.loading = true
					return m, assignTask(m.client, m.taskID, c.c.HandlerID)
				}
			}
		case "r":
			if m.currentView == "board" {
				m.loading = true
				return m, fetchBoard(m.client)
			}
		case "a":
			if m.currentView == "board" {
				m.loading = true
				return m, autoAssign(m.client)
			}
		case "u":
			if m.currentView == "board" {
				if t, ok := m.selectedTask(); ok {
					m.loading = true
					return m, unassignTask(m.client, t.ID)
				}
			}
		}
	case boardMsg:
		m.loading = false
		m.setBoard(msg.board)
		if msg.outcome != nil {
			m.setStatus(*msg.outcome)
		}
		return m, nil
	case candidatesMsg:
		m.loading = false
		items := make([]list.Item, 0, len(msg.candidates))
		for _, c := range msg.candidates {
			items = append(items, candidateItem{c: c})
		}
		m.candidates.SetItems(items)
		m.currentView = "candidates"
		return m, nil
	case menuMsg:
		m.loading = false
		rows := make([]table.Row, 0, len(msg.items))
		for _, it := range msg.items {
			rows = append(rows, table.Row{it.NameEnglish, it.Category, fmt.Sprintf("%.2f", it.Price)})
		}
		m.menuView.SetRows(rows)
		return m, nil
	case errorMsg:
		m.loading = false
		m.status = msg.err
		m.statusIsErr = true
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "board":
		m.boardView, cmd = m.boardView.Update(msg)
	case "candidates":
		m.candidates, cmd = m.candidates.Update(msg)
	case "menu":
		m.menuView, cmd = m.menuView.Update(msg)
	}
	return m, cmd
}

func (m *Model) setBoard(b *Board) {
	if b == nil {
		return
	}
	m.tasks = m.tasks[:0]
	rows := make([]table.Row, 0)
	for _, col := range boardColumns {
		for _, t := range b.Columns[col] {
			assigned := "-"
			if t.AssignedTo != nil {
				assigned = t.AssignedTo.Name
			}
			m.tasks = append(m.tasks, t)
			rows = append(rows, table.Row{columnTitles[col], t.Title, t.Priority, t.Department, assigned})
		}
	}
	m.boardView.SetRows(rows)
}

func (m *Model) setStatus(o Outcome) {
	m.status = o.Message
	if o.Hint != "" {
		m.status += " - " + o.Hint
	}
	m.statusIsErr = o.IsError()
}

func (m Model) selectedTask() (Task, bool) {
	i := m.boardView.Cursor()
	if i < 0 || i >= len(m.tasks) {
		return Task{}, false
	}
	return m.tasks[i], true
}

func (m Model) statusLine() string {
	if m.loading {
		return m.spinner.View() + " working..."
	}
	if m.status == "" {
		return ""
	}
	if m.statusIsErr {
		return errorStyle.Render(m.status)
	}
	return successStyle.Render(m.status)
}

func (m Model) View() string {
	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "board":
		help := infoStyle.Render("enter assign  u unassign  a auto-assign  r reload  esc back")
		return docStyle.Render(titleStyle.Render("Task Board") + "\n\n" + m.boardView.View() + "\n\n" + help + "\n" + m.statusLine())
	case "candidates":
		return docStyle.Render(m.candidates.View() + "\n" + m.statusLine())
	case "menu":
		return docStyle.Render(titleStyle.Render("Menu Items") + "\n\n" + m.menuView.View() + "\n" + m.statusLine())
	default:
		return "Loading..."
	}
}

type boardMsg struct {
	board   *Board
	outcome *Outcome
}

type candidatesMsg struct {
	candidates []Candidate
}

type menuMsg struct {
	items []MenuItem
}

type errorMsg struct {
	err string
}

func fetchBoard(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		b, err := client.GetBoard()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error loading board: %v", err)}
		}
		return boardMsg{board: b}
	}
}

func fetchCandidates(client *ApiClient, taskID string) tea.Cmd {
	return func() tea.Msg {
		cs, err := client.Candidates(taskID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error ranking handlers: %v", err)}
		}
		return candidatesMsg{candidates: cs}
	}
}

func assignTask(client *ApiClient, taskID, staffID string) tea.Cmd {
	return func() tea.Msg {
		out, b, err := client.Assign(taskID, staffID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error assigning task: %v", err)}
		}
		return boardMsg{board: b, outcome: &out}
	}
}

func unassignTask(client *ApiClient, taskID string) tea.Cmd {
	return func() tea.Msg {
		out, b, err := client.Unassign(taskID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error cancelling task: %v", err)}
		}
		return boardMsg{board: b, outcome: &out}
	}
}

func autoAssign(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		res, b, err := client.AutoAssign()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error running auto-assign: %v", err)}
		}
		out := res.Outcome
		for _, f := range res.Failed {
			out.Message += fmt.Sprintf("\n  %s: %s", f.Title, f.Reason)
		}
		return boardMsg{board: b, outcome: &out}
	}
}

func fetchMenu(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		items, err := client.MenuItems()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error loading menu: %v", err)}
		}
		return menuMsg{items: items}
	}
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
