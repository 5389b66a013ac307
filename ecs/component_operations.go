package ecs

import "sync"

type componentOpKind int

const (
	componentOpAdd componentOpKind = iota
	componentOpRemove
)

type componentOperation struct {
	kind      componentOpKind
	entity    *Entity
	component any
	ctype     *ComponentType
}

// ComponentOperationHandler applies component changes to engine-owned
// entities. While deferred reports true, changes are queued with their payload
// and leave the entity untouched until ProcessOperations. Queueing is safe
// from several goroutines.
type ComponentOperationHandler struct {
	deferred func() bool

	mu         sync.Mutex
	operations []componentOperation
}

// NewComponentOperationHandler creates a handler that queues while deferred returns true.
func NewComponentOperationHandler(deferred func() bool) *ComponentOperationHandler {
	return &ComponentOperationHandler{deferred: deferred}
}

// Add attaches component to e, replacing any component of the same type.
func (h *ComponentOperationHandler) Add(e *Entity, component any) {
	c, ct := normalizeComponent(component)
	h.add(e, c, ct)
}

// Remove detaches the component of type ct from e.
func (h *ComponentOperationHandler) Remove(e *Entity, ct *ComponentType) {
	h.remove(e, ct)
}

func (h *ComponentOperationHandler) add(e *Entity, c any, ct *ComponentType) {
	op := componentOperation{kind: componentOpAdd, entity: e, component: c, ctype: ct}
	if h.deferred() {
		h.enqueue(op)
		return
	}
	h.apply(op)
}

func (h *ComponentOperationHandler) remove(e *Entity, ct *ComponentType) {
	op := componentOperation{kind: componentOpRemove, entity: e, ctype: ct}
	if h.deferred() {
		h.enqueue(op)
		return
	}
	h.apply(op)
}

func (h *ComponentOperationHandler) enqueue(op componentOperation) {
	h.mu.Lock()
	h.operations = append(h.operations, op)
	h.mu.Unlock()
}

// HasOperationsToProcess reports whether queued changes are waiting.
func (h *ComponentOperationHandler) HasOperationsToProcess() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.operations) > 0
}

// ProcessOperations applies queued changes in submission order, including any
// queued while processing. Changes to an entity that left the engine since
// they were queued are dropped.
func (h *ComponentOperationHandler) ProcessOperations() {
	for {
		op, ok := h.pop()
		if !ok {
			return
		}
		if op.entity.operations != h {
			continue
		}
		h.apply(op)
	}
}

func (h *ComponentOperationHandler) pop() (componentOperation, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.operations) == 0 {
		h.operations = nil
		return componentOperation{}, false
	}
	op := h.operations[0]
	h.operations[0] = componentOperation{}
	h.operations = h.operations[1:]
	return op, true
}

func (h *ComponentOperationHandler) apply(op componentOperation) {
	e := op.entity
	switch op.kind {
	case componentOpAdd:
		if e.addInternal(op.component, op.ctype) {
			e.ComponentAdded.Dispatch(e)
		}
	case componentOpRemove:
		if e.removeInternal(op.ctype) {
			e.ComponentRemoved.Dispatch(e)
		}
	}
}
