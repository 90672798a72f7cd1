package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rewear/internal/marketplace"
)

// form is a vertical list of labelled text inputs with one focused field.
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
}

type fieldSpec struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

func newForm(title string, fields ...fieldSpec) form {
	f := form{title: title}
	for _, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.placeholder
		ti.CharLimit = field.limit
		if field.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		f.labels = append(f.labels, field.label)
		f.inputs = append(f.inputs, ti)
	}
	return f.focusAt(0)
}

// focusAt moves focus to field i.
func (f form) focusAt(i int) form {
	if len(f.inputs) == 0 {
		return f
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	inputs := make([]textinput.Model, len(f.inputs))
	copy(inputs, f.inputs)
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	f.inputs = inputs
	f.focus = i
	return f
}

// reset clears every field and focuses the first.
func (f form) reset() form {
	inputs := make([]textinput.Model, len(f.inputs))
	copy(inputs, f.inputs)
	for j := range inputs {
		inputs[j].SetValue("")
	}
	f.inputs = inputs
	return f.focusAt(0)
}

func (f form) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return f.inputs[i].Value()
}

func (f form) setValue(i int, v string) form {
	inputs := make([]textinput.Model, len(f.inputs))
	copy(inputs, f.inputs)
	inputs[i].SetValue(v)
	f.inputs = inputs
	return f
}

func (f form) onLastField() bool { return f.focus == len(f.inputs)-1 }

// update handles field navigation and passes other keys to the focused input.
// submit reports that the form should be submitted.
func (f form) update(msg tea.KeyMsg, keys keyMap) (form, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Submit):
		return f, nil, true
	case key.Matches(msg, keys.Confirm):
		if f.onLastField() {
			return f, nil, true
		}
		return f.focusAt(f.focus + 1), nil, false
	case key.Matches(msg, keys.NextField):
		return f.focusAt(f.focus + 1), nil, false
	case key.Matches(msg, keys.PrevField):
		return f.focusAt(f.focus - 1), nil, false
	}

	inputs := make([]textinput.Model, len(f.inputs))
	copy(inputs, f.inputs)
	var cmd tea.Cmd
	inputs[f.focus], cmd = inputs[f.focus].Update(msg)
	f.inputs = inputs
	return f, cmd, false
}

// renderForm draws the form inside a box with a hint line under the fields.
func (m Model) renderForm(f form, hint string) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	width := 0
	for _, l := range f.labels {
		width = max(width, len(l))
	}

	var lines []string
	for i, label := range f.labels {
		labelStyle := styles.MutedText
		if i == f.focus {
			labelStyle = styles.AccentText.Bold(true)
		}
		lines = append(lines, bg.Render(padRight(label, width+2), labelStyle)+f.inputs[i].View())
	}
	lines = append(lines, "", bg.Render(hint, styles.FaintText))
	return m.renderBox(f.title, strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

// Sign-in and registration

const (
	loginEmail = iota
	loginPassword
)

const (
	registerEmail = iota
	registerUsername
	registerPassword
)

func newLoginForm() form {
	return newForm("Sign in",
		fieldSpec{label: "Email", placeholder: "you@example.com", limit: 254},
		fieldSpec{label: "Password", secret: true, limit: 128},
	)
}

func newRegisterForm() form {
	return newForm("Create account",
		fieldSpec{label: "Email", placeholder: "you@example.com", limit: 254},
		fieldSpec{label: "Username", placeholder: "at least 3 characters", limit: 64},
		fieldSpec{label: "Password", placeholder: "at least 8 characters", secret: true, limit: 128},
	)
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = m.previousView
		return m, nil
	case key.Matches(msg, m.keys.Register):
		m.registering = !m.registering
		return m, textinput.Blink
	case key.Matches(msg, m.keys.DemoLogin):
		cmd := m.signIn("Signed in to the demo account", func(ctx context.Context) error {
			return m.session.DemoLogin(ctx)
		})
		return m, cmd
	}

	if m.registering {
		f, cmd, submit := m.registerForm.update(msg, m.keys)
		m.registerForm = f
		if !submit {
			return m, cmd
		}
		reg := marketplace.Registration{
			Email:    f.value(registerEmail),
			Username: f.value(registerUsername),
			Password: f.value(registerPassword),
		}
		cmd = m.signIn("Account created", func(ctx context.Context) error {
			if _, err := m.session.Register(ctx, reg); err != nil {
				return err
			}
			return m.session.Login(ctx, reg.Email, reg.Password)
		})
		return m, cmd
	}

	f, cmd, submit := m.loginForm.update(msg, m.keys)
	m.loginForm = f
	if !submit {
		return m, cmd
	}
	email, password := f.value(loginEmail), f.value(loginPassword)
	cmd = m.signIn("Signed in", func(ctx context.Context) error {
		return m.session.Login(ctx, email, password)
	})
	return m, cmd
}

// signIn runs authenticate and then loads what a signed-in user sees.
func (m *Model) signIn(label string, authenticate func(ctx context.Context) error) tea.Cmd {
	return m.runThen(label, ViewBrowse, resetCredentials, func(ctx context.Context) error {
		if err := authenticate(ctx); err != nil {
			return err
		}
		token := m.session.Token()
		m.followUp("fetch swaps", m.swaps.FetchMine(ctx, token))
		m.followUp("load my listings", m.catalog.LoadMine(ctx, token))
		return nil
	})
}

func resetCredentials(m *Model) {
	m.loginForm = m.loginForm.reset()
	m.registerForm = m.registerForm.reset()
	m.registering = false
}

func (m *Model) signOut() tea.Cmd {
	return m.run("Signed out", ViewBrowse, func(ctx context.Context) error {
		m.swaps.Reset()
		return m.session.Logout(ctx)
	})
}

func (m Model) renderLogin() string {
	hint := "enter: next/submit  ctrl+o: demo account  ctrl+r: " +
		ternary(m.registering, "sign in instead", "create account") + "  esc: cancel"
	if m.registering {
		return m.renderForm(m.registerForm, hint)
	}
	return m.renderForm(m.loginForm, hint)
}

// New listing

const (
	listingTitle = iota
	listingDescription
	listingCategory
	listingType
	listingSize
	listingCondition
	listingPoints
	listingTags
	listingImages
)

func newListingForm() form {
	return newForm("New listing",
		fieldSpec{label: "Title", placeholder: "5 to 100 characters", limit: 100},
		fieldSpec{label: "Description", placeholder: "at least 20 characters", limit: 2000},
		fieldSpec{label: "Category", placeholder: strings.Join(categoryChoices[1:], ", "), limit: 32},
		fieldSpec{label: "Type", placeholder: "e.g. jacket, jeans", limit: 64},
		fieldSpec{label: "Size", placeholder: strings.Join(sizeChoices[1:], ", "), limit: 8},
		fieldSpec{label: "Condition", placeholder: strings.Join(conditionChoices[1:], ", "), limit: 16},
		fieldSpec{label: "Points", placeholder: "positive whole number", limit: 6},
		fieldSpec{label: "Tags", placeholder: "comma separated, up to 10", limit: 300},
		fieldSpec{label: "Images", placeholder: "comma separated file paths, up to 5", limit: 2000},
	)
}

func (m Model) handleListingFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		m.currentView = m.previousView
		return m, nil
	}

	f, cmd, submit := m.listingForm.update(msg, m.keys)
	m.listingForm = f
	if !submit {
		return m, cmd
	}

	input, paths, err := listingInput(f)
	if err != nil {
		m.flash = flash{text: marketplace.Message(err), isErr: true, at: time.Now()}
		return m, nil
	}
	actor, token := m.viewer(), m.snap.session.Token
	cmd = m.runThen("Listing created", ViewBrowse, resetListing, func(ctx context.Context) error {
		images, err := readImages(paths)
		if err != nil {
			return err
		}
		_, err = m.catalog.CreateItem(ctx, actor, token, input, images)
		return err
	})
	return m, cmd
}

func resetListing(m *Model) { m.listingForm = m.listingForm.reset() }

// listingInput converts the form fields into an item payload and the image
// paths to attach.
func listingInput(f form) (marketplace.ItemInput, []string, error) {
	input := marketplace.ItemInput{
		Title:       f.value(listingTitle),
		Description: f.value(listingDescription),
		Category:    strings.ToLower(strings.TrimSpace(f.value(listingCategory))),
		Type:        strings.TrimSpace(f.value(listingType)),
		Size:        strings.ToLower(strings.TrimSpace(f.value(listingSize))),
		Condition:   strings.ToLower(strings.TrimSpace(f.value(listingCondition))),
		Tags:        splitList(f.value(listingTags)),
	}
	if raw := strings.TrimSpace(f.value(listingPoints)); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			return marketplace.ItemInput{}, nil, marketplace.Reject("points must be a whole number")
		}
		input.PointValue = points
	}
	return input, splitList(f.value(listingImages)), nil
}

// readImages loads the files to upload.
func readImages(paths []string) ([]marketplace.ImageFile, error) {
	images := make([]marketplace.ImageFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, marketplace.Reject(fmt.Sprintf("cannot read image %s", filepath.Base(p)))
		}
		images = append(images, marketplace.ImageFile{Name: filepath.Base(p), Data: data})
	}
	return images, nil
}

func (m Model) renderListingForm() string {
	hint := "enter: next field  ctrl+s: submit  esc: cancel"
	if m.viewer() == nil {
		hint = "Sign in (a) before submitting.  " + hint
	}
	return m.renderForm(m.listingForm, hint)
}

// renderBox draws content inside a rounded border with the title in the top
// edge.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	bgColor := m.theme.Surface
	if focused {
		border = m.theme.BorderFocus
		bgColor = m.theme.FocusBg
	}
	innerW := max(1, width-2)
	innerH := max(1, height-2)

	body := lipgloss.NewStyle().
		Width(innerW).
		Height(innerH).
		MaxHeight(innerH).
		Padding(0, 1).
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Render(content)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Render(body)

	if title == "" {
		return box
	}
	// Splice the title into the top border.
	lines := strings.SplitN(box, "\n", 2)
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Render(" " + truncate(title, max(1, innerW-4)) + " ")
	top := lipgloss.NewStyle().
		Foreground(lipgloss.Color(border)).
		Background(lipgloss.Color(m.theme.Background)).
		Render("╭─") + label
	if rest := innerW - 1 - lipgloss.Width(label); rest > 0 {
		top += lipgloss.NewStyle().
			Foreground(lipgloss.Color(border)).
			Background(lipgloss.Color(m.theme.Background)).
			Render(strings.Repeat("─", rest) + "╮")
	}
	if len(lines) == 2 {
		return top + "\n" + lines[1]
	}
	return top
}
