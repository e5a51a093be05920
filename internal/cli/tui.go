package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/sample"
)

var (
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tuiStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

const tuiHelp = "↑/↓ select  K/J move  a add  r renumber  s save  q quit"

// =============================================================================
// EditModel - Interactive stack editor
// =============================================================================

// eventMsg carries an editor event into the bubbletea loop.
type eventMsg editor.Event

// savedMsg reports the result of a save.
type savedMsg struct {
	path string
	err  error
}

// EditModel is the bubbletea model for the interactive stack editor. It
// does not own the stack: edits go through the editor and the view redraws
// from the events it publishes.
type EditModel struct {
	Title  string
	Cursor int
	Dirty  bool

	ctx    context.Context
	ed     *editor.Editor
	events *eventQueue
	save   func() (string, error)
	stack  *sample.Stack
	status string
	err    error
}

// NewEditModel subscribes to ed and returns a model showing its current
// stack. save writes the session and returns the path written. The caller
// must call the returned cancel function when the program exits.
func NewEditModel(ctx context.Context, title string, ed *editor.Editor, save func() (string, error)) (EditModel, func(), error) {
	st, err := ed.Stack()
	if err != nil {
		return EditModel{}, nil, err
	}
	events := newEventQueue()
	unsubscribe := ed.Subscribe(events.push)
	cancel := func() {
		unsubscribe()
		events.close()
	}
	return EditModel{
		Title:  title,
		ctx:    ctx,
		ed:     ed,
		events: events,
		save:   save,
		stack:  st,
	}, cancel, nil
}

// waitForEvent blocks until the editor publishes the next event. It returns
// nil once the model's subscription is cancelled.
func (m EditModel) waitForEvent() tea.Msg {
	ev, ok := m.events.next()
	if !ok {
		return nil
	}
	return eventMsg(ev)
}

// eventQueue is an unbounded FIFO between the editor, which must never block
// on a subscriber, and the bubbletea loop.
type eventQueue struct {
	mu    sync.Mutex
	items []editor.Event
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (q *eventQueue) push(ev editor.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// poll returns the oldest queued event without blocking.
func (q *eventQueue) poll() (editor.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return editor.Event{}, false
	}
	ev := q.items[0]
	q.items[0] = editor.Event{}
	q.items = q.items[1:]
	return ev, true
}

// next blocks until an event is queued or the queue is closed.
func (q *eventQueue) next() (editor.Event, bool) {
	for {
		if ev, ok := q.poll(); ok {
			return ev, true
		}
		select {
		case <-q.ready:
		case <-q.done:
			return editor.Event{}, false
		}
	}
}

func (q *eventQueue) close() {
	q.once.Do(func() { close(q.done) })
}

func (m EditModel) Init() tea.Cmd {
	return m.waitForEvent
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.stack = msg.Stack
		if msg.LayerID != "" {
			if i := m.stack.Index(msg.LayerID); i >= 0 {
				m.Cursor = i
			}
		}
		m.Cursor = min(m.Cursor, max(m.stack.Len()-1, 0))
		if msg.Kind != editor.EventLoaded {
			m.Dirty = true
		}
		m.status = fmt.Sprintf("%s %s", msg.Kind, layerName(m.stack, msg.LayerID))
		return m, m.waitForEvent

	case savedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.Dirty = false
			m.status = "saved " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < m.stack.Len()-1 {
				m.Cursor++
			}
		case "shift+up", "K":
			if m.Cursor > 0 {
				m.err = m.ed.Reorder(m.ctx, m.current(), m.Cursor-1)
			}
		case "shift+down", "J":
			if m.Cursor < m.stack.Len()-1 {
				m.err = m.ed.Reorder(m.ctx, m.current(), m.Cursor+1)
			}
		case "a":
			_, m.err = m.ed.AddLayer(m.ctx, nil)
		case "r":
			m.err = m.ed.Renumber(m.ctx)
		case "s":
			save := m.save
			return m, func() tea.Msg {
				path, err := save()
				return savedMsg{path: path, err: err}
			}
		}
	}
	return m, nil
}

// current returns the id of the layer under the cursor.
func (m EditModel) current() string {
	if m.Cursor < m.stack.Len() {
		return m.stack.Layers[m.Cursor].ID
	}
	return ""
}

func (m EditModel) View() string {
	var b strings.Builder

	title := m.Title
	if m.Dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render(tuiHelp))
	b.WriteString("\n\n")
	b.WriteString(renderStackTable(m.stack, m.Cursor))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(tuiErrorStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(tuiStatusStyle.Render(iconArrow + " " + m.status))
	default:
		b.WriteString(tuiStatusStyle.Render(fmt.Sprintf("%d layers", m.stack.Len())))
	}
	b.WriteString("\n")
	return b.String()
}

func layerName(st *sample.Stack, id string) string {
	if l := st.Find(id); l != nil {
		return l.Name
	}
	return ""
}
