package driver

// Stage is the per-file phase a progress event refers to.
type Stage uint8

const (
	StageLoad Stage = iota
	StageParse
	StageLint
)

// Status of a file at a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is sent to a ProgressSink. An empty File describes the run itself.
type Event struct {
	File        string
	Stage       Stage
	Status      Status
	Diagnostics int
	Cached      bool
}

// ProgressSink receives events from worker goroutines; implementations must
// be safe for concurrent use.
type ProgressSink func(Event)

func (p ProgressSink) emit(ev Event) {
	if p != nil {
		p(ev)
	}
}

// ChannelSink forwards events to ch. The caller closes ch after the run.
func ChannelSink(ch chan<- Event) ProgressSink {
	return func(ev Event) { ch <- ev }
}
