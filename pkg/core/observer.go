package core

// Observer receives progress from a comparison run.
//
// Calls arrive from a single goroutine and in order: OnRowCount, OnPlan,
// one OnGroup per compared group with strictly increasing indices, and
// finally OnVerdict. A run that stops early skips the remaining calls except
// OnVerdict, which is sent for every verdict but not for input errors.
type Observer interface {
	OnRowCount(first, second int64)
	OnPlan(keyColumn string, groups [][]string)
	OnGroup(index int, group []string, equal bool)
	OnVerdict(verdict *Verdict)
}

// Observers fans out every call to each observer in order.
type Observers []Observer

func (o Observers) OnRowCount(first, second int64) {
	for _, obs := range o {
		obs.OnRowCount(first, second)
	}
}

func (o Observers) OnPlan(keyColumn string, groups [][]string) {
	for _, obs := range o {
		obs.OnPlan(keyColumn, groups)
	}
}

func (o Observers) OnGroup(index int, group []string, equal bool) {
	for _, obs := range o {
		obs.OnGroup(index, group, equal)
	}
}

func (o Observers) OnVerdict(verdict *Verdict) {
	for _, obs := range o {
		obs.OnVerdict(verdict)
	}
}

// NopObserver ignores every call.
type NopObserver struct{}

func (NopObserver) OnRowCount(int64, int64) {}
func (NopObserver) OnPlan(string, [][]string) {}
func (NopObserver) OnGroup(int, []string, bool) {}
func (NopObserver) OnVerdict(*Verdict) {}
