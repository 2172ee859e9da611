// Package devui prints the development console output: the startup banner,
// reload notices and build errors.
package devui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Status icons.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconBullet  = "•"
)

// Theme holds the styles used by a Console.
type Theme struct {
	Success lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Accent  lipgloss.Style
	HMR     lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	ErrBox  lipgloss.Style
}

// DefaultTheme returns the console theme.
func DefaultTheme() Theme {
	return Theme{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Heading: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Label:   lipgloss.NewStyle().Width(12),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		HMR:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		ErrBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1),
	}
}

// Console writes styled lines to an output stream.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
}

// New creates a console writing to out. A nil out writes to stdout.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, theme: DefaultTheme()}
}

// BannerInfo is shown when the dev server is ready.
type BannerInfo struct {
	App    string
	URL    string
	Policy string
	Watch  string
}

// Banner prints the startup banner.
func (c *Console) Banner(info BannerInfo) {
	t := c.theme
	row := func(label, value string, style lipgloss.Style) string {
		return "  " + IconBullet + " " + t.Label.Render(label+":") + style.Render(value)
	}

	lines := []string{
		"",
		t.Success.Render(IconSuccess+" Ready") + "  started tau dev server",
		"",
		t.Heading.Render("Server Info"),
		row("App", info.App, t.Value),
		row("Mode", "Development", t.Accent),
		row("Frontend", info.URL, t.Value),
		row("HMR", "Enabled ("+info.Policy+", "+info.Watch+")", t.Accent),
		"",
	}
	c.println(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// HMRTrigger prints the files that started a reload cycle.
func (c *Console) HMRTrigger(files []string) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	c.println(c.theme.HMR.Render("HMR") + "  reload triggered by " + strings.Join(names, ", "))
}

// Restart prints the backend restart notice.
func (c *Console) Restart() {
	c.println(c.theme.Warning.Render("Restarting backend...") + "\n")
}

// SoftReloadNotice warns that Go files changed under the soft policy. The
// running process keeps its compiled code.
func (c *Console) SoftReloadNotice(files []string) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	c.println(c.theme.Warning.Render("Soft reload keeps the running code; "+
		strings.Join(names, ", ")+" take effect after a restart (reload.policy \"hard\")"))
}

// Connected prints a client connection notice.
func (c *Console) Connected() {
	c.println(c.theme.Success.Render(IconSuccess + " WebSocket connected"))
}

// BuildError prints a failed validation inside a box.
func (c *Console) BuildError(msg string) {
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		c.theme.Error.Render(IconError),
		" ",
		strings.TrimRight(msg, "\n"),
	)
	c.println(c.theme.ErrBox.Render(body))
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
