package outcome

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/bilibackup/internal/domain"
)

const maxListedFailures = 20

// Report is the result of one restore or clear run.
type Report struct {
	Operation string
	Domain    string
	Outcome   domain.BatchOutcome
}

type BackupEntry struct {
	Domain string
	Count  int
	Path   string
}

type DomainEntry struct {
	Name    string
	Restore bool
	Clear   bool
}

func renderReport(report Report, s styles) string {
	o := report.Outcome
	lines := []string{
		s.title.Render(fmt.Sprintf("%s %s", report.Operation, s.domain.Render(report.Domain))),
		s.header.Render(fmt.Sprintf("total: %d", o.TotalCount)),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.success.Render(fmt.Sprintf("succeeded: %d", o.SuccessCount)),
			"  ",
			failedStyle(o, s).Render(fmt.Sprintf("failed: %d", o.FailedCount)),
		),
	}

	if o.Cleared > 0 {
		lines = append(lines, s.detail.Render(fmt.Sprintf("cleared first: %d", o.Cleared)))
	}
	if o.Aborted {
		lines = append(lines, s.warning.Render(fmt.Sprintf("aborted: %d items not attempted", o.Untouched())))
	}
	if len(o.CreatedGroups) > 0 {
		lines = append(lines, s.detail.Render("created groups: "+strings.Join(o.CreatedGroups, ", ")))
	}
	if len(o.Containers) > 0 {
		lines = append(lines, s.detail.Render("containers: "+strings.Join(o.Containers, ", ")))
	}
	if len(o.FailedItems) > 0 {
		lines = append(lines, s.section.Render(renderFailures(o.FailedItems, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func failedStyle(o domain.BatchOutcome, s styles) lipgloss.Style {
	if o.FailedCount > 0 {
		return s.failure
	}
	return s.detail
}

func renderFailures(items []string, s styles) string {
	lines := []string{s.failure.Render("failed items:")}
	shown := items
	if len(shown) > maxListedFailures {
		shown = shown[:maxListedFailures]
	}
	for _, item := range shown {
		lines = append(lines, s.item.Render(item))
	}
	if rest := len(items) - len(shown); rest > 0 {
		lines = append(lines, s.empty.Render(fmt.Sprintf("  ... and %d more", rest)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderBackups(entries []BackupEntry, s styles) string {
	lines := []string{
		s.title.Render("Backup"),
		s.header.Render(fmt.Sprintf("domains: %d", len(entries))),
	}
	if len(entries) == 0 {
		lines = append(lines, s.empty.Render("Nothing was backed up."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b BackupEntry) int { return strings.Compare(a.Domain, b.Domain) })

	width := 0
	for _, entry := range sorted {
		width = max(width, len(entry.Domain))
	}
	for _, entry := range sorted {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.domain.Render(fmt.Sprintf("%-*s", width, entry.Domain)),
			" ",
			s.detail.Render(fmt.Sprintf("%6d items", entry.Count)),
			" ",
			s.header.Render("-> "+entry.Path),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDomains(entries []DomainEntry, s styles) string {
	lines := []string{s.title.Render("Domains")}

	width := 0
	for _, entry := range entries {
		width = max(width, len(entry.Name))
	}
	for _, entry := range entries {
		ops := []string{"backup"}
		if entry.Restore {
			ops = append(ops, "restore")
		}
		if entry.Clear {
			ops = append(ops, "clear")
		}
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.domain.Render(fmt.Sprintf("%-*s", width, entry.Name)),
			"  ",
			s.detail.Render(strings.Join(ops, ", ")),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderGroups(groups []domain.GroupTag, s styles) string {
	lines := []string{
		s.title.Render("Groups"),
		s.header.Render(fmt.Sprintf("groups: %d", len(groups))),
	}
	if len(groups) == 0 {
		lines = append(lines, s.empty.Render("No groups."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, group := range groups {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.detail.Render(fmt.Sprintf("%10d", group.ID)),
			"  ",
			s.domain.Render(group.Name),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
