package constants

// OverallStatus aggregate health label reported by the worker.
// The worker may report labels outside this set; they are displayed verbatim.
type OverallStatus string

const (
	OverallStatusStarting OverallStatus = "starting"
	OverallStatusLoading  OverallStatus = "loading"
	OverallStatusReady    OverallStatus = "ready"
	OverallStatusDegraded OverallStatus = "degraded"
	OverallStatusError    OverallStatus = "error"
)

func (s OverallStatus) String() string {
	return string(s)
}

// ModelState per-model load state reported by the worker
type ModelState string

const (
	ModelStateUnloaded ModelState = "unloaded"
	ModelStateLoading  ModelState = "loading"
	ModelStateLoaded   ModelState = "loaded"
	ModelStateError    ModelState = "error"
)

func (s ModelState) String() string {
	return string(s)
}
