package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors of one UI theme as hex strings.
type Theme struct {
	Name string

	Background string // behind boxes and borders
	Surface    string // header, command bar and footer
	FocusBg    string // content boxes

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors maps a lowercase listing or swap status to its badge color.
	StatusColors map[string]string
}

// palette is the raw color set a theme is derived from.
type palette struct {
	bg0, bg1, bg2, bg3 string // darkest to lightest background
	sel, selFg         string
	border             string
	fg, comment, dim   string
	blue, green        string
	yellow, red        string
	cyan, violet       string
	orange             string
}

func newTheme(name string, p palette) Theme {
	return Theme{
		Name:          name,
		Background:    p.bg0,
		Surface:       p.bg1,
		FocusBg:       p.bg3,
		SelectionBg:   p.sel,
		SelectionText: p.selFg,
		Border:        p.border,
		BorderFocus:   p.blue,
		Text:          p.fg,
		Muted:         p.comment,
		Faint:         p.dim,
		Accent:        p.blue,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		StatusColors: map[string]string{
			"available": p.green,
			"pending":   p.yellow,
			"requested": p.blue,
			"accepted":  p.cyan,
			"completed": p.green,
			"rejected":  p.red,
			"swapped":   p.violet,
			"local":     p.orange,
		},
	}
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	bar := lipgloss.NewStyle().Background(lipgloss.Color(t.Surface)).Padding(0, 1)
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   bar.Foreground(lipgloss.Color(t.Text)),
		Footer:   bar.Foreground(lipgloss.Color(t.Muted)),
		Logo:     fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).Background(lipgloss.Color(t.SelectionBg)),

		statusColors: t.StatusColors,
		badgeText:    t.Background,
		muted:        t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	statusColors map[string]string
	badgeText    string
	muted        string
}

// StatusStyle returns a badge style for the given listing or swap status.
// Unknown statuses use the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.statusColors[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeText)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of s with every style drawn on bgColor, so
// styled spans do not punch holes in a colored panel.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Footer, &out.Logo, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

// https://github.com/EdenEast/nightfox.nvim
func nightfoxTheme() Theme {
	return newTheme("Nightfox", palette{
		bg0:     "#131a24",
		bg1:     "#192330",
		bg2:     "#212e3f",
		bg3:     "#29394f",
		sel:     "#2b3b51",
		selFg:   "#cdcecf",
		border:  "#39506d",
		fg:      "#cdcecf",
		comment: "#738091",
		dim:     "#71839b",
		blue:    "#719cd6",
		green:   "#81b29a",
		yellow:  "#dbc074",
		red:     "#c94f6d",
		cyan:    "#63cdcf",
		violet:  "#9d79d6",
		orange:  "#f4a261",
	})
}

// https://github.com/rebelot/kanagawa.nvim
func kanagawaTheme() Theme {
	return newTheme("Kanagawa", palette{
		bg0:     "#16161D",
		bg1:     "#1F1F28",
		bg2:     "#2A2A37",
		bg3:     "#2A2A37",
		sel:     "#2D4F67",
		selFg:   "#DCD7BA",
		border:  "#54546D",
		fg:      "#DCD7BA",
		comment: "#C8C093",
		dim:     "#727169",
		blue:    "#7E9CD8",
		green:   "#98BB6C",
		yellow:  "#E6C384",
		red:     "#E46876",
		cyan:    "#7FB4CA",
		violet:  "#957FB8",
		orange:  "#FFA066",
	})
}

// Tailwind slate and sky.
func slateTheme() Theme {
	return newTheme("Slate", palette{
		bg0:     "#020617",
		bg1:     "#0f172a",
		bg2:     "#1e293b",
		bg3:     "#283548",
		sel:     "#0284c7",
		selFg:   "#f8fafc",
		border:  "#334155",
		fg:      "#f1f5f9",
		comment: "#94a3b8",
		dim:     "#64748b",
		blue:    "#38bdf8",
		green:   "#22c55e",
		yellow:  "#f59e0b",
		red:     "#ef4444",
		cyan:    "#06b6d4",
		violet:  "#a855f7",
		orange:  "#fb923c",
	})
}
