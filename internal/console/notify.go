package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

var levelStyles = map[handraise.Level]lipgloss.Style{
	handraise.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	handraise.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	handraise.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

// Notifier prints toast-style notifications as "[level] text" lines.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewNotifier(w io.Writer) *Notifier { return &Notifier{w: w} }

func (n *Notifier) Notify(text string, level handraise.Level) error {
	tag := fmt.Sprintf("[%s]", level)
	if st, ok := levelStyles[level]; ok {
		tag = st.Render(tag)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "%s %s\n", tag, text)
	return err
}

// Bell stands in for the notification sound: it rings the terminal bell.
// Source and volume have no meaning on a terminal.
type Bell struct {
	W io.Writer
}

func (b Bell) Play(string, float64) error {
	_, err := io.WriteString(b.W, "\a")
	return err
}
