package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"planetshelf/internal/shelving"
	"planetshelf/internal/transfer"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func renderSummary(s shelving.Summary, manifestsOnly bool) string {
	title := "Shelving summary"
	if s.DryRun {
		title += " (dry run)"
	}

	type line struct {
		label string
		value int
	}
	lines := []line{
		{"Master manifests", s.MastersFound},
		{"Scene manifests derived", s.ManifestsDerived},
	}
	if !manifestsOnly {
		lines = append(lines,
			line{"Scenes discovered", s.Discovered},
			line{"Manifests unreadable", s.ParseFailed},
			line{"Checksums verified", s.Verified},
			line{"Checksums failed", s.VerificationFailed},
			line{"Checksums skipped", s.ChecksumsSkipped},
			line{"Shelveable scenes", s.Shelveable},
			line{"Unshelveable scenes", s.Unshelveable},
			line{"Files shelved", s.Transferred},
			line{"Files already shelved", s.Skipped},
			line{"Files failed", s.Failed},
			line{"Sources removed", s.SourcesRemoved},
			line{"Files quarantined", s.Quarantined},
			line{"Files deleted", s.Deleted},
			line{"Ledger rows", s.LedgerRows},
		)
	}

	rows := make([][]string, 0, len(lines)+1)
	for _, l := range lines {
		rows = append(rows, []string{l.label, formatCount(l.value)})
	}
	rows = append(rows, []string{"Duration", s.Duration.Round(time.Millisecond).String()})

	var b strings.Builder
	b.WriteString(renderTable(title, []string{"Item", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteString("\n")
	if s.Discovered == 0 && s.DryRun && !manifestsOnly {
		b.WriteString("No scenes found. Run with --generate_manifests_only first to derive scene manifests.\n")
	}
	return b.String()
}

// renderFailures lists failed transfers and unshelveable files that could
// not be handled. It returns an empty string when nothing failed.
func renderFailures(s shelving.Summary) string {
	var rows [][]string
	for _, out := range s.Outcomes {
		if out.Status != transfer.StatusFailed {
			continue
		}
		rows = append(rows, []string{out.Pair.SceneID, out.Pair.Src, failureReason(out.Err)})
	}
	for _, d := range s.Dispositions {
		if d.Action != transfer.ActionFailed {
			continue
		}
		rows = append(rows, []string{"", d.Path, failureReason(d.Err)})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(fmt.Sprintf("Failures (%s)", formatCount(len(rows))), []string{"Scene", "File", "Reason"}, rows, nil)
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
