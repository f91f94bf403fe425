package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aussiebroadwan/quill/internal/cli/styles"
)

// Question is one value to ask the user for. Questions whose Value is
// already set are skipped.
type Question struct {
	Title  string
	Secret bool
	Value  *string
}

// Prompter asks the user for values. The huh implementation is used in a
// terminal; tests supply scripted answers.
type Prompter interface {
	Ask(qs ...Question) error
}

type huhPrompter struct{}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func (huhPrompter) Ask(qs ...Question) error {
	var fields []huh.Field
	for _, q := range qs {
		if *q.Value != "" {
			continue
		}
		in := huh.NewInput().
			Title(q.Title).
			Value(q.Value).
			Validate(notBlank)
		if q.Secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, in)
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(theme()).Run()
}

func theme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(styles.Danger)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(styles.Danger)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(styles.Muted)
	return t
}
