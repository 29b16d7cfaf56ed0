package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"pkgdeck/pkg/manager"
)

// ErrNoChoices is returned when a selection prompt has nothing to offer.
var ErrNoChoices = errors.New("nothing to select from")

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, manager.ErrCancelled
		}
		return defaultYes, nil // non-interactive input falls back to the default
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}
	return result == "y" || result == "yes", nil
}

type packageItem struct {
	Name        string
	Version     string
	Source      string
	Description string
}

// SelectPackage prompts the user to pick one of several matches, for
// example when a name exists in more than one source.
func SelectPackage(packages []manager.Package, prompt string) (*manager.Package, error) {
	if len(packages) == 0 {
		return nil, ErrNoChoices
	}
	if len(packages) == 1 {
		return &packages[0], nil
	}

	items := make([]packageItem, len(packages))
	for i, p := range packages {
		items[i] = packageItem{
			Name:        p.Name,
			Version:     p.Version,
			Source:      p.Source.String(),
			Description: p.Description,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Version | green }} [{{ .Source | magenta }}]",
		Inactive: "  {{ .Name }} {{ .Version | faint }} [{{ .Source | faint }}]",
		Selected: "✓ {{ .Name | cyan }} {{ .Version | green }} [{{ .Source | magenta }}]",
		Details: `
--------- Package ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Source:" | faint }}	{{ .Source }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(items[index].Name), strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     items,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, promptErr(err)
	}
	return &packages[index], nil
}

// SelectVersion prompts for one of the versions a source can downgrade to.
func SelectVersion(name string, versions []string) (string, error) {
	if len(versions) == 0 {
		return "", ErrNoChoices
	}

	p := promptui.Select{
		Label: fmt.Sprintf("Version of %s", name),
		Items: versions,
		Size:  10,
	}

	_, result, err := p.Run()
	if err != nil {
		return "", promptErr(err)
	}
	return result, nil
}

func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return manager.ErrCancelled
	}
	return err
}
