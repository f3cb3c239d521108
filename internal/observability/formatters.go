// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/jobharvest/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintValidatedSites outputs the career hubs that survived validation.
func (p *Printer) PrintValidatedSites(sites []types.ValidatedSite) {
	if len(sites) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validated %d career hubs:\n\n", len(sites)))

	count := min(len(sites), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", sites[i].Hostname))
		sb.WriteString(fmt.Sprintf("  %s\n", sites[i].CareerHubURL))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(sites) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more sites", len(sites)-maxItemsToShow))
	}

	p.printBox("VALIDATED CAREER HUBS", sb.String())
}

// PrintLinks outputs harvested links grouped by kind.
func (p *Printer) PrintLinks(links []types.Link) {
	if len(links) == 0 {
		return
	}

	byKind := map[types.LinkKind]int{}
	for _, link := range links {
		byKind[link.Kind]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Harvested %d links:\n\n", len(links)))
	sb.WriteString(fmt.Sprintf("Feeds:    %d\n", byKind[types.KindFeed]))
	sb.WriteString(fmt.Sprintf("Listings: %d\n", byKind[types.KindListing]))
	sb.WriteString(fmt.Sprintf("Details:  %d\n", byKind[types.KindDetail]))

	count := min(len(links), maxItemsToShow)
	if count > 0 {
		sb.WriteString("\n")
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("• %s\n", links[i].URL))
		}
		if len(links) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more", len(links)-maxItemsToShow))
		}
	}

	p.printBox("HARVESTED LINKS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the end-of-run report with per-kind failure counts.
func (p *Printer) PrintRunSummary(summary *types.RunSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", summary.Duration().Round(time.Millisecond)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Sites processed:   %d\n", summary.SitesProcessed))
	sb.WriteString(fmt.Sprintf("Sites failed:      %d\n", summary.SitesFailed))
	sb.WriteString(fmt.Sprintf("Links found:       %d\n", summary.LinksFound))
	sb.WriteString(fmt.Sprintf("Records extracted: %d\n", summary.RecordsExtracted))
	sb.WriteString(fmt.Sprintf("Records added:     %d\n", summary.RecordsAdded))
	sb.WriteString(fmt.Sprintf("Records merged:    %d", summary.RecordsMerged))

	p.printBox("RUN SUMMARY", sb.String())
	p.PrintFailures(summary)
}

// PrintFailures outputs run failures, or a clean bill when there are none.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFailures(summary *types.RunSummary) {
	if summary == nil || len(summary.Failures) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO FAILURES")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d failures:\n", len(summary.Failures)))
	for _, kind := range []types.FailureKind{
		types.FailureTransient, types.FailurePermanent,
		types.FailureParseIncomplete, types.FailureRejected,
	} {
		if n := summary.CountByKind(kind); n > 0 {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", kind, n))
		}
	}
	sb.WriteString("\n")

	count := min(len(summary.Failures), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := summary.Failures[i]
		reason := f.Reason
		if len(reason) > 45 {
			reason = reason[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s (%s)\n", f.Site, f.Stage))
		sb.WriteString(fmt.Sprintf("  %s\n", reason))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(summary.Failures) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more failures", len(summary.Failures)-maxItemsToShow))
	}

	p.printBox("RUN FAILURES", strings.TrimSuffix(sb.String(), "\n"))
}
