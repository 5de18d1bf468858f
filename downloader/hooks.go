package downloader

// Hooks receives the events of a run. Log may be called from any goroutine;
// Progress and Status are called in reporting order; Done is called exactly once per run.
type Hooks interface {
	Log(message string)
	Progress(done, total int)
	Status(message string)
	Done()
}

// HookFuncs adapts plain functions to Hooks. Nil fields are ignored.
type HookFuncs struct {
	LogFunc      func(message string)
	ProgressFunc func(done, total int)
	StatusFunc   func(message string)
	DoneFunc     func()
}

func (h HookFuncs) Log(message string) {
	if h.LogFunc != nil {
		h.LogFunc(message)
	}
}

func (h HookFuncs) Progress(done, total int) {
	if h.ProgressFunc != nil {
		h.ProgressFunc(done, total)
	}
}

func (h HookFuncs) Status(message string) {
	if h.StatusFunc != nil {
		h.StatusFunc(message)
	}
}

func (h HookFuncs) Done() {
	if h.DoneFunc != nil {
		h.DoneFunc()
	}
}

// NopHooks discards every event.
var NopHooks Hooks = HookFuncs{}
