package sim

// HookPos names a point where hooks are invoked, such as a message being
// sent or a bus error.
type HookPos struct {
	Name string
}

// HookCtx describes one hook invocation. Domain is the object that invoked
// the hook. Item is the main subject, usually a message or an event, and
// Detail carries whatever else the position defines.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// HookPosBeforeEvent is a hook position that triggers before handling an event
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// A Hook observes a Hookable. Hooks run synchronously inside the simulation
// and must not block.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc lets a plain function act as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookAt creates a hook that only runs f at the given position.
func HookAt(pos *HookPos, f func(ctx HookCtx)) Hook {
	return HookFunc(func(ctx HookCtx) {
		if ctx.Pos == pos {
			f(ctx)
		}
	})
}

// HookableBase can be embedded to implement Hookable.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook calls the hooks in the order they were accepted.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
