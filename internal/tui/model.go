package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mdsum/internal/catalog"
	"mdsum/internal/domain"
)

const resultsPerQuery = 10

// SearchPort is the TUI-facing subset of the index service.
type SearchPort interface {
	Search(query string, topK int) ([]domain.SearchResult, error)
	Statistics() catalog.Stats
}

// Model is the Bubble Tea model for browsing the summary catalog.
type Model struct {
	service     SearchPort
	input       textinput.Model
	viewport    viewport.Model
	results     []domain.SearchResult
	header      string
	status      string
	cursor      int
	showContent bool
	ready       bool
	lastQuery   string
}

// New creates a new TUI model instance.
func New(service SearchPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	st := service.Statistics()
	header := fmt.Sprintf("%d documents, %d summaries, avg summary %d chars",
		st.TotalDocuments, st.TotalSummaries, st.AvgSummaryLength)
	return Model{service: service, input: ti, viewport: vp, header: header, status: "Loaded. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header lines, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m = m.search(q)
				return m, nil
			}
		case "tab":
			if len(m.results) > 0 {
				m.showContent = !m.showContent
				m.viewport.SetContent(m.renderCurrentResult())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) search(q string) Model {
	res, err := m.service.Search(q, resultsPerQuery)
	switch {
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
	case len(res) == 0:
		m.status = "No summarized documents yet."
		m.results = nil
	default:
		m.status = fmt.Sprintf("%d results for %q (tab: summary/content)", len(res), q)
		m.results = res
	}
	m.cursor = 0
	m.showContent = false
	m.lastQuery = q
	m.viewport.SetContent(m.renderCurrentResult())
	return m
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := lipgloss.NewStyle().Bold(true).Render("mdsum")
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.header)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return title + "\n" + header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	view := "summary"
	text := r.Summary
	if m.showContent {
		view, text = "content", r.Content
	}
	title := fmt.Sprintf("Result %d/%d  %s  score=%.3f  [%s]", m.cursor+1, len(m.results), r.DocID, r.Score, view)
	return title + "\n\n" + highlightMatches(text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\S+`)
)

// highlightMatches emphasizes every whitespace-separated word of text that
// also appears in query, compared case-insensitively. Line breaks are kept.
func highlightMatches(text, query string) string {
	q := toWordSet(query)
	if len(q) == 0 || strings.TrimSpace(text) == "" {
		return text
	}
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := q[normalize(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toWordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := normalize(w); n != "" {
			m[n] = struct{}{}
		}
	}
	return m
}

func normalize(w string) string {
	return strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]{}*_`#"))
}
