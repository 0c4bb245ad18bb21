package mokmanager

import "time"

// topMenuTimeout is the top menu's auto-continue countdown: leaving the
// console at this prompt with no input behaves as if the operator chose
// "Continue boot".
const topMenuTimeout = 10 * time.Second

// Orchestrator is the single entry point: on entry it reads the staged
// request and decides which management items to offer; on exit it
// unconditionally clears the staging variables regardless of which path
// the operator took.
type Orchestrator struct {
	console Console
	store   VariableStore
	enroll  *EnrollScreen
	files   *FileEnrollPipeline
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(console Console, store VariableStore, enroll *EnrollScreen, files *FileEnrollPipeline) *Orchestrator {
	return &Orchestrator{console: console, store: store, enroll: enroll, files: files}
}

// Run executes one full session: build the top menu from the current
// staging variables, run it to completion, and clean up the staging
// variables unconditionally before returning.
func (o *Orchestrator) Run() error {
	defer o.cleanupStaging()

	mokNew, hasNew, err := o.store.Get(VarMokNew)
	if err != nil {
		return err
	}
	_, hasAuth, err := o.store.Get(VarMokAuth)
	if err != nil {
		return err
	}

	items := []MenuItem{{Label: "Continue boot", Action: nil}}
	switch {
	case hasNew:
		items = append(items, MenuItem{Label: "Enroll MOK", Action: func() error {
			return o.enroll.ReviewAndCommit("enroll-mok", mokNew, true)
		}})
	case hasAuth:
		items = append(items, MenuItem{Label: "Delete MOK", Action: func() error {
			return o.enroll.DeleteAll("delete-mok", true)
		}})
	}
	items = append(items,
		MenuItem{Label: "Enroll key from disk", Action: func() error {
			return o.files.Run(false)
		}},
		MenuItem{Label: "Enroll hash from disk", Action: func() error {
			return o.files.Run(true)
		}},
	)

	m := NewMenu(o.console, items)
	_, err = m.Run(topMenuTimeout)
	return err
}

// cleanupStaging deletes MokNew and MokAuth unconditionally, regardless of
// whether enrollment succeeded, was declined, or was denied.
func (o *Orchestrator) cleanupStaging() {
	_ = o.store.Delete(VarMokNew)
	_ = o.store.Delete(VarMokAuth)
}
