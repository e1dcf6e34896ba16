package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/service"
)

var (
	muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	bold     = lipgloss.NewStyle().Bold(true)
	success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
)

func errorLine(err error) string {
	return errStyle.Render("error: ") + err.Error()
}

func categoryLabel(c domain.Category) string {
	label := fmt.Sprintf("%-13s", string(c))
	switch c {
	case domain.CategoryResolved:
		return success.Render(label)
	case domain.CategoryPendingReply:
		return warn.Render(label)
	case domain.CategoryInProgress:
		return bold.Render(label)
	default:
		return muted.Render(fmt.Sprintf("%-13s", "(none)"))
	}
}

func printBulkResult(w io.Writer, title string, res *service.BulkResult) {
	fmt.Fprintf(w, "%s  %s resolved  %s failed\n",
		bold.Render(title),
		success.Render(fmt.Sprint(res.Resolved)),
		failedCount(res.Failed))
	printErrors(w, res.Errors)
}

func printSyncReport(w io.Writer, rep *service.SyncReport) {
	fmt.Fprintf(w, "%s  %s synced  %s failed  %s\n",
		bold.Render("Category sync"),
		success.Render(fmt.Sprint(rep.Synced)),
		failedCount(rep.Failed),
		muted.Render(fmt.Sprintf("(%d total)", rep.Total)))
	printErrors(w, rep.Errors)
}

func printPending(w io.Writer, pt *domain.PendingTicket) {
	status := string(pt.Status)
	switch pt.Status {
	case domain.PendingStatusCreated:
		status = success.Render(status)
	case domain.PendingStatusFailed:
		status = errStyle.Render(status)
	default:
		status = warn.Render(status)
	}
	fmt.Fprintf(w, "%s  %s  %s\n", bold.Render(pt.ID), status, muted.Render(fmt.Sprintf("attempts=%d", pt.Attempts)))
	if pt.TicketKey != nil {
		fmt.Fprintf(w, "  ticket: %s\n", *pt.TicketKey)
	}
	if pt.ErrorMessage != nil {
		fmt.Fprintf(w, "  %s\n", errStyle.Render(*pt.ErrorMessage))
	}
}

func printEffective(w io.Writer, eff *service.EffectiveCategory) {
	line := fmt.Sprintf("%s  %s  %s", bold.Render(eff.TicketKey), categoryLabel(eff.Category), muted.Render("source="+string(eff.Source)))
	if eff.TrackerStatus != "" {
		line += muted.Render("  tracker=" + eff.TrackerStatus)
	}
	fmt.Fprintln(w, line)
}

func failedCount(n int) string {
	if n == 0 {
		return muted.Render("0")
	}
	return errStyle.Render(fmt.Sprint(n))
}

func printErrors(w io.Writer, errs []string) {
	for _, e := range errs {
		fmt.Fprintf(w, "  %s %s\n", errStyle.Render("✗"), strings.TrimSpace(e))
	}
}
