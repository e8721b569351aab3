package pipeline

// Error stages reported besides supplier labels
const (
	StageRate    = "BCV"
	StageGeneral = "General"
)

// Listener receives run progress. OnError is called with a supplier label
// for per-file failures, StageRate for a missing exchange rate and
// StageGeneral for the failure that aborts the run. OnComplete is called
// only for runs that finish.
type Listener interface {
	OnProgress(message string, pct int)
	OnError(stage, message string)
	OnComplete(result *Result)
}

// Funcs adapts plain functions to Listener; nil fields are ignored
type Funcs struct {
	Progress func(message string, pct int)
	Error    func(stage, message string)
	Complete func(result *Result)
}

func (f Funcs) OnProgress(message string, pct int) {
	if f.Progress != nil {
		f.Progress(message, pct)
	}
}

func (f Funcs) OnError(stage, message string) {
	if f.Error != nil {
		f.Error(stage, message)
	}
}

func (f Funcs) OnComplete(result *Result) {
	if f.Complete != nil {
		f.Complete(result)
	}
}
