package sim

import (
	"fmt"
	"strings"
)

// Lifecycle hooks. A component that embeds *ModelElement and passes itself as the owner to
// NewModelElement receives the hooks it implements.
//
// BeforeExperiment, Initialize and WarmUp run in pre-order: a parent completes before any of
// its children starts. ReplicationEnded, AfterReplication and AfterExperiment run in reverse
// pre-order: children (later siblings first) before their parent.
type (
	BeforeExperimenter interface{ BeforeExperiment() error }
	Initializer        interface{ Initialize() error }
	WarmUpper          interface{ WarmUp() }
	ReplicationEnder   interface{ ReplicationEnded() }
	AfterReplicationer interface{ AfterReplication() }
	AfterExperimenter  interface{ AfterExperiment() }
)

// ModelElement is a node of the model tree.
type ModelElement struct {
	id       int64
	name     string
	parent   *ModelElement
	children []*ModelElement
	model    *Model
	owner    any

	initOption   bool
	warmUpOption bool
}

// NewModelElement creates an element named name under parent. owner receives lifecycle hooks;
// it is normally the component embedding the returned element. An empty name is replaced by a
// generated one. Names must be unique within a model.
func NewModelElement(parent *ModelElement, name string, owner any) (*ModelElement, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: model element %q has no parent", ErrConfiguration, name)
	}
	m := parent.model
	if m.locked {
		return nil, fmt.Errorf("%w: cannot add %q to %q after the experiment started", ErrInvalidState, name, parent.name)
	}
	m.nextElementID++
	id := m.nextElementID
	if name == "" {
		name = fmt.Sprintf("%T_%d", owner, id)
		name = strings.TrimPrefix(name, "*")
	}
	if _, dup := m.elements[name]; dup {
		return nil, fmt.Errorf("%w: duplicate model element name %q", ErrConfiguration, name)
	}
	e := &ModelElement{
		id:           id,
		name:         name,
		parent:       parent,
		model:        m,
		owner:        owner,
		initOption:   true,
		warmUpOption: true,
	}
	parent.children = append(parent.children, e)
	m.elements[name] = e
	return e, nil
}

// ID returns the element's model-unique id. The model itself has id 0.
func (e *ModelElement) ID() int64 { return e.id }

// Name returns the element's model-unique name.
func (e *ModelElement) Name() string { return e.name }

// Parent returns the parent element, or nil for the model.
func (e *ModelElement) Parent() *ModelElement { return e.parent }

// Model returns the model the element belongs to.
func (e *ModelElement) Model() *Model { return e.model }

// Owner returns the component receiving this element's lifecycle hooks.
func (e *ModelElement) Owner() any { return e.owner }

// Children returns a copy of the element's children in insertion order.
func (e *ModelElement) Children() []*ModelElement {
	out := make([]*ModelElement, len(e.children))
	copy(out, e.children)
	return out
}

// Executive returns the executive driving the element's model.
func (e *ModelElement) Executive() *Executive { return e.model.executive }

// Time returns the current simulation time.
func (e *ModelElement) Time() float64 { return e.model.executive.Time() }

// Schedule schedules action after delay, named after the element.
func (e *ModelElement) Schedule(action EventAction, delay float64) (*Event, error) {
	return e.model.executive.ScheduleWith(action, delay, DefaultPriority, nil, e.name)
}

// ScheduleWith schedules action with an explicit priority, message and event name.
func (e *ModelElement) ScheduleWith(action EventAction, delay float64, priority int, message any, name string) (*Event, error) {
	if name == "" {
		name = e.name
	}
	return e.model.executive.ScheduleWith(action, delay, priority, message, name)
}

// SetInitializationOption controls whether Initialize is called on the element.
func (e *ModelElement) SetInitializationOption(on bool) { e.initOption = on }

// SetWarmUpOption controls whether WarmUp is called on the element.
func (e *ModelElement) SetWarmUpOption(on bool) { e.warmUpOption = on }

// ChangeParent moves the element (and its subtree) under newParent.
// It fails with ErrInvalidState once the experiment has started.
func (e *ModelElement) ChangeParent(newParent *ModelElement) error {
	if e.parent == nil {
		return fmt.Errorf("%w: the model cannot be re-parented", ErrConfiguration)
	}
	if newParent == nil || newParent.model != e.model {
		return fmt.Errorf("%w: new parent of %q must belong to the same model", ErrConfiguration, e.name)
	}
	if e.model.locked {
		return fmt.Errorf("%w: cannot re-parent %q after the experiment started", ErrInvalidState, e.name)
	}
	for p := newParent; p != nil; p = p.parent {
		if p == e {
			return fmt.Errorf("%w: %q cannot become a descendant of itself", ErrConfiguration, e.name)
		}
	}
	old := e.parent
	for i, c := range old.children {
		if c == e {
			old.children = append(old.children[:i], old.children[i+1:]...)
			break
		}
	}
	e.parent = newParent
	newParent.children = append(newParent.children, e)
	return nil
}

// PreOrder returns the element's subtree in pre-order, the element first.
func (e *ModelElement) PreOrder() []*ModelElement {
	var out []*ModelElement
	stack := []*ModelElement{e}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return out
}

func (e *ModelElement) String() string {
	if e.parent == nil {
		return fmt.Sprintf("ModelElement(%d, %s)", e.id, e.name)
	}
	return fmt.Sprintf("ModelElement(%d, %s, parent=%s)", e.id, e.name, e.parent.name)
}
