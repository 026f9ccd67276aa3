package cleaner

import (
	"context"
	"log"
)

// InboxSource lists the inboxes to sweep. It is asked again on every pass.
type InboxSource interface {
	Inboxes(ctx context.Context) []Folder
}

// InboxSourceFunc adapts a function to InboxSource.
type InboxSourceFunc func(ctx context.Context) []Folder

// Inboxes implements InboxSource.
func (f InboxSourceFunc) Inboxes(ctx context.Context) []Folder {
	return f(ctx)
}

// Result is the outcome of a whole run.
type Result struct {
	Tally  Tally
	Passes int
}

// Loop sweeps all inboxes repeatedly until a pass deletes nothing.
type Loop struct {
	source  InboxSource
	sweeper *Sweeper
}

// NewLoop creates a Loop.
func NewLoop(source InboxSource, sweeper *Sweeper) *Loop {
	return &Loop{source: source, sweeper: sweeper}
}

// Run performs passes until the deleted count stops growing, or ctx is done.
// Acting on one notification can change the calendar state other notifications
// resolve against, so a pass that deleted anything is followed by another.
func (l *Loop) Run(ctx context.Context) Result {
	var result Result

	for {
		deletedBefore := result.Tally.Deleted
		result.Passes++

		for _, folder := range l.source.Inboxes(ctx) {
			l.sweeper.reporter.FolderStarted(folder.Name())
			result.Tally.Add(l.sweeper.Sweep(ctx, folder))
			l.sweeper.reporter.FolderFinished(folder.Name())
		}

		if result.Tally.Deleted == deletedBefore {
			return result
		}
		if ctx.Err() != nil {
			log.Printf("Warning: Stopping after pass %d: %v", result.Passes, ctx.Err())
			return result
		}
		log.Printf("Pass %d deleted %d notifications so far, sweeping again", result.Passes, result.Tally.Deleted)
	}
}
