package shelving

// Stage names one step of a run.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageDerive   Stage = "derive"
	StageLoad     Stage = "load"
	StageVerify   Stage = "verify"
	StageClassify Stage = "classify"
	StagePlan     Stage = "plan"
	StageTransfer Stage = "transfer"
	StageCleanup  Stage = "cleanup"
	StageDone     Stage = "done"
)

// Observer receives stage progress, for example to drive a progress bar.
// Calls arrive from the goroutine running Orchestrator.Run.
type Observer interface {
	StageStarted(stage Stage, total int)
	StageAdvanced(stage Stage, done int)
	StageFinished(stage Stage)
}

type nopObserver struct{}

func (nopObserver) StageStarted(Stage, int)  {}
func (nopObserver) StageAdvanced(Stage, int) {}
func (nopObserver) StageFinished(Stage)      {}
