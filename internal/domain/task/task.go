// Package task defines the unit of work scheduled onto a worker pool: a
// named runnable plus the context handed to it while it executes.
package task

import "github.com/kestrelengine/assetpipe/internal/domain/async"

// Handle is the caller-facing future for a scheduled task's completion. A
// task's runnable returns 0 for success and a non-zero code for failure;
// the handle resolves Ok/Failed accordingly.
type Handle = async.AsyncResult[int]

// Context is passed to a running task's Runnable. Submit lets the runnable
// schedule further sub-tasks onto the same pool without either package
// importing the other.
type Context struct {
	WorkerID int
	Submit   func(t *Task, dependsOn async.Async) Handle
}

// Runnable is the task body. It returns an exit code; 0 means success.
type Runnable func(ctx *Context) int

// Task is a named unit of work. It carries no scheduling state itself;
// scheduling (and the dependency it may be gated on) is owned by the
// manager that runs it.
type Task struct {
	Name string
	Run  Runnable
}

func New(name string, run Runnable) *Task {
	return &Task{Name: name, Run: run}
}
