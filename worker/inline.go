package worker

import "sort"

// Inline runs every registered task on whatever goroutine calls
// TickWork, in priority order, spawning nothing of its own. It suits
// tests and headless rendering, where there is no audio callback
// thread to hand decoding off from.
type Inline struct {
	tasks []Task
}

// NewInline returns an empty Inline pool.
func NewInline() *Inline {
	return &Inline{}
}

// Register adds t to the pool. Safe to call from TickWork itself, e.g.
// a task that spawns a follow-up task on completion.
func (p *Inline) Register(t Task) {
	p.tasks = append(p.tasks, t)
}

// TickWork runs every registered task once, highest priority first,
// dropping each task whose Execute returns false.
func (p *Inline) TickWork() {
	sort.SliceStable(p.tasks, func(i, j int) bool {
		return p.tasks[i].Priority().Less(p.tasks[j].Priority())
	})

	current := p.tasks
	p.tasks = nil
	survivors := make([]Task, 0, len(current))
	for _, t := range current {
		if t.Execute() {
			survivors = append(survivors, t)
		}
	}
	p.tasks = append(survivors, p.tasks...)
}

// Len reports how many tasks are currently registered.
func (p *Inline) Len() int { return len(p.tasks) }
