package buildpipeline

import "time"

// Stage describes a step of compiling one unit.
type Stage string

const (
	StageLoad    Stage = "load"    // read + decode + validate
	StageCheck   Stage = "check"   // semantic walk with codegen into a scratch buffer
	StageEmit    Stage = "emit"    // semantic walk writing the .jasm
	StagePublish Stage = "publish" // atomic rename into out_dir
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Terminal reports whether no further events follow for the unit.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCached
}

// Event reports progress for a unit (or for the whole build when Unit is empty).
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use: CompileAll reports from several workers.
type ProgressSink interface {
	OnEvent(Event)
}
