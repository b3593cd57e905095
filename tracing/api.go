// Package tracing lets components report tasks, such as a burst in flight,
// to any tracer attached through the hook mechanism.
package tracing

import (
	"log"
	"reflect"

	"github.com/sarchlab/ringdma/sim"
)

// NamedHookable is a component or sub-unit that can report tasks.
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// Hook positions at which tasks are reported. The Item of the HookCtx is
// always a Task.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// Task kinds reported for messages.
const (
	KindReqOut = "req_out"
	KindReqIn  = "req_in"
)

func report(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{Domain: domain, Pos: pos, Item: task})
}

// StartTask reports that domain started a task. Nothing is built when no
// hook is attached. Empty IDs, kinds and descriptions panic.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if domain == nil {
		log.Panic("a task needs a domain")
	}

	if domain.NumHooks() == 0 {
		return
	}

	switch {
	case id == "":
		log.Panic("a task needs an id")
	case kind == "":
		log.Panicf("task %s needs a kind", id)
	case what == "":
		log.Panicf("task %s needs a description", id)
	}

	location := domain.Name()
	if location == "" {
		log.Panicf("task %s is reported by an unnamed domain", id)
	}

	report(domain, HookPosTaskStart, Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: location,
		Detail:   detail,
	})
}

// AddTaskStep reports a milestone of a running task.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	report(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask reports that a task completed.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	report(domain, HookPosTaskEnd, Task{ID: id})
}

func reqOutID(msg sim.Msg) string {
	return msg.Meta().ID + "_" + KindReqOut
}

// MsgIDAtReceiver is the task ID a receiver uses for a message it handles.
func MsgIDAtReceiver(msg sim.Msg, domain NamedHookable) string {
	return msg.Meta().ID + "@" + domain.Name()
}

// TraceReqInitiate starts a KindReqOut task on the sender. The task lasts
// until TraceReqFinalize.
func TraceReqInitiate(msg sim.Msg, domain NamedHookable, taskParentID string) {
	StartTask(reqOutID(msg), taskParentID, domain, KindReqOut,
		reflect.TypeOf(msg).String(), msg)
}

// TraceReqReceive starts a KindReqIn task on the receiver, as a child of
// the sender's task.
func TraceReqReceive(msg sim.Msg, domain NamedHookable) {
	StartTask(MsgIDAtReceiver(msg, domain), reqOutID(msg), domain, KindReqIn,
		reflect.TypeOf(msg).String(), msg)
}

// TraceReqComplete ends the receiver's task.
func TraceReqComplete(msg sim.Msg, domain NamedHookable) {
	EndTask(MsgIDAtReceiver(msg, domain), domain)
}

// TraceReqFinalize ends the sender's task when the response arrives.
func TraceReqFinalize(msg sim.Msg, domain NamedHookable) {
	EndTask(reqOutID(msg), domain)
}
