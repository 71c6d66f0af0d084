package shelving

import (
	"log/slog"
	"time"

	"planetshelf/internal/logging"
	"planetshelf/internal/transfer"
)

// Summary totals one run.
type Summary struct {
	RunID  string
	DryRun bool

	MastersFound     int
	ManifestsDerived int

	Discovered         int
	ParseFailed        int
	Verified           int
	VerificationFailed int
	ChecksumsSkipped   int
	Shelveable         int
	Unshelveable       int

	Transferred    int
	Skipped        int
	Failed         int
	SourcesRemoved int
	Quarantined    int
	Deleted        int
	LedgerRows     int

	Duration time.Duration

	Outcomes     []transfer.Outcome
	Dispositions []transfer.Disposition
}

func (s *Summary) addOutcome(out transfer.Outcome) {
	s.Outcomes = append(s.Outcomes, out)
	switch out.Status {
	case transfer.StatusCopied, transfer.StatusLinked:
		s.Transferred++
	case transfer.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

func (s *Summary) addDispositions(ds []transfer.Disposition) {
	s.Dispositions = append(s.Dispositions, ds...)
	for _, d := range ds {
		switch d.Action {
		case transfer.ActionMoved:
			s.Quarantined++
		case transfer.ActionDeleted:
			s.Deleted++
		}
	}
}

func (s Summary) log(logger *slog.Logger) {
	logger.Info("shelving summary",
		logging.String(logging.FieldEventType, "shelving_summary"),
		logging.Bool(logging.FieldDryRun, s.DryRun),
		logging.Int("masters", s.MastersFound),
		logging.Int("manifests_derived", s.ManifestsDerived),
		logging.Int("discovered", s.Discovered),
		logging.Int("parse_failed", s.ParseFailed),
		logging.Int("verified", s.Verified),
		logging.Int("verification_failed", s.VerificationFailed),
		logging.Int("checksums_skipped", s.ChecksumsSkipped),
		logging.Int("shelveable", s.Shelveable),
		logging.Int("unshelveable", s.Unshelveable),
		logging.Int("transferred", s.Transferred),
		logging.Int("skipped", s.Skipped),
		logging.Int("failed", s.Failed),
		logging.Int("sources_removed", s.SourcesRemoved),
		logging.Int("quarantined", s.Quarantined),
		logging.Int("deleted", s.Deleted),
		logging.Int("ledger_rows", s.LedgerRows),
		logging.Duration("duration", s.Duration),
	)
}
