package preflight

import (
	"strings"

	"planetshelf/internal/faults"
	"planetshelf/internal/transfer"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Request describes the run being checked.
type Request struct {
	DataDir         string
	DestinationRoot string
	QuarantineDir   string
	Method          transfer.Method
	// Mutating is true when the run writes to the data directory: deriving
	// manifests, removing sources, or quarantining.
	Mutating bool
	DryRun   bool
}

// RunAll executes all applicable preflight checks for the request.
func RunAll(req Request) []Result {
	var results []Result

	if req.Mutating && !req.DryRun {
		results = append(results, CheckDirectoryAccess("Data directory", req.DataDir))
	} else {
		results = append(results, CheckReadableDirectory("Data directory", req.DataDir))
	}

	if req.DestinationRoot != "" {
		if req.DryRun {
			results = append(results, CheckReadableDirectory("Destination directory", req.DestinationRoot))
		} else {
			results = append(results, CheckDirectoryAccess("Destination directory", req.DestinationRoot))
		}
	}

	if req.QuarantineDir != "" && !req.DryRun {
		results = append(results, CheckCreatableDirectory("Quarantine directory", req.QuarantineDir))
	}

	if req.Method == transfer.MethodLink {
		results = append(results, CheckSameVolume(req.DataDir, req.DestinationRoot))
	}

	return results
}

// Err folds failed results into one configuration error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrConfiguration, "preflight", "check paths", strings.Join(failed, "; "), nil)
}
