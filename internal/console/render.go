// Package console is the terminal front end of a raise-hand client: it draws
// the queue, prints notifications, rings the bell and posts announcements to
// the relay's chat log.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/message"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
	"github.com/DoyleJ11/rise-hand/internal/i18n"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	posStyle    = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().Width(20).PaddingLeft(1)
	prioStyle   = lipgloss.NewStyle().Width(9)
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	urgentName  = nameStyle.Foreground(lipgloss.Color("196")).Bold(true)
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

// Renderer redraws the whole queue on every change.
type Renderer struct {
	mu sync.Mutex
	w  io.Writer
	p  *message.Printer
}

func NewRenderer(w io.Writer, p *message.Printer) *Renderer {
	if p == nil {
		p = i18n.NewPrinter("en")
	}
	return &Renderer{w: w, p: p}
}

func (r *Renderer) QueueChanged(q []handraise.Request) error {
	out := r.Render(q)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.w, out)
	return err
}

// Render formats q as a table, most urgent first, one row per request.
func (r *Renderer) Render(q []handraise.Request) string {
	if len(q) == 0 {
		return emptyStyle.Render(r.p.Sprintf(i18n.QueueEmpty)) + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d ✋", len(q))))
	b.WriteByte('\n')
	for i, req := range q {
		prio := r.p.Sprintf(i18n.PriorityNormal)
		name := nameStyle.Render(truncate(req.UserName, 18))
		if req.Priority == handraise.PriorityUrgent {
			prio = urgentStyle.Render(r.p.Sprintf(i18n.PriorityUrgent))
			name = urgentName.Render(truncate(req.UserName, 18))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			posStyle.Render(fmt.Sprintf("%d.", i+1)),
			name,
			prioStyle.Render(prio),
			timeStyle.Render(req.Timestamp.Local().Format("15:04:05")),
		)
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	rs := []rune(s)
	for len(rs) > 0 && lipgloss.Width(string(rs))+1 > n {
		rs = rs[:len(rs)-1]
	}
	return string(rs) + "…"
}

// PositionView prints the local user's place in the queue whenever it
// changes, the prompt's stand-in for a raise-hand button badge.
type PositionView struct {
	mu     sync.Mutex
	w      io.Writer
	p      *message.Printer
	userID string
	last   int
}

func NewPositionView(w io.Writer, p *message.Printer, userID string) *PositionView {
	if p == nil {
		p = i18n.NewPrinter("en")
	}
	return &PositionView{w: w, p: p, userID: userID, last: -1}
}

func (v *PositionView) QueueChanged(q []handraise.Request) error {
	pos := handraise.Queue(q).Position(v.userID)
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos == v.last {
		return nil
	}
	v.last = pos
	var line string
	if pos < 0 {
		line = v.p.Sprintf(i18n.QueueNotInQueue)
	} else {
		line = v.p.Sprintf(i18n.QueuePosition, pos)
	}
	_, err := fmt.Fprintln(v.w, line)
	return err
}
