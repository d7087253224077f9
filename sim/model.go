package sim

import (
	"fmt"
	"strings"
)

// Model is the root of the model element tree. It owns the element registry and binds the
// tree to an Executive.
type Model struct {
	*ModelElement
	executive *Executive

	nextElementID int64
	elements      map[string]*ModelElement
	locked        bool
	order         []*ModelElement // pre-order, fixed while locked

	responses []ResponseReporter
}

// NewModel creates an empty model driven by ex. A nil executive gets a heap-calendar executive.
func NewModel(name string, ex *Executive) *Model {
	if ex == nil {
		ex = NewExecutive(nil)
	}
	if name == "" {
		name = "Model"
	}
	m := &Model{
		executive: ex,
		elements:  make(map[string]*ModelElement),
	}
	m.ModelElement = &ModelElement{
		name:         name,
		model:        m,
		owner:        m,
		initOption:   true,
		warmUpOption: true,
	}
	m.elements[name] = m.ModelElement
	return m
}

// Executive returns the model's executive.
func (m *Model) Executive() *Executive { return m.executive }

// Element looks up an element by name.
func (m *Model) Element(name string) (*ModelElement, bool) {
	e, ok := m.elements[name]
	return e, ok
}

// NumElements returns the number of elements, the model included.
func (m *Model) NumElements() int { return len(m.elements) }

// Locked reports whether the tree is frozen for a running experiment.
func (m *Model) Locked() bool { return m.locked }

// Responses returns the response collectors registered with the model, in creation order.
func (m *Model) Responses() []ResponseReporter {
	out := make([]ResponseReporter, len(m.responses))
	copy(out, m.responses)
	return out
}

func (m *Model) registerResponse(r ResponseReporter) {
	m.responses = append(m.responses, r)
}

// InitializationOrder lists element names in the order Initialize is called.
func (m *Model) InitializationOrder() []string {
	order := m.order
	if !m.locked {
		order = m.PreOrder()
	}
	names := make([]string, len(order))
	for i, e := range order {
		names[i] = e.name
	}
	return names
}

// TreeString renders the element hierarchy, one element per line, indented by depth.
func (m *Model) TreeString() string {
	var sb strings.Builder
	var walk func(e *ModelElement, depth int)
	walk = func(e *ModelElement, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(e.name)
		sb.WriteString("\n")
		for _, c := range e.children {
			walk(c, depth+1)
		}
	}
	walk(m.ModelElement, 0)
	return sb.String()
}

// lock freezes the tree structure and fixes the traversal order for the experiment.
func (m *Model) lock() {
	m.locked = true
	m.order = m.PreOrder()
}

func (m *Model) unlock() {
	m.locked = false
	m.order = nil
}

func (m *Model) forward(fn func(e *ModelElement) error) error {
	for _, e := range m.order {
		if e == m.ModelElement {
			continue
		}
		if err := fn(e); err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
	}
	return nil
}

func (m *Model) reverse(fn func(e *ModelElement)) {
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.order[i] == m.ModelElement {
			continue
		}
		fn(m.order[i])
	}
}

func (m *Model) beforeExperiment() error {
	return m.forward(func(e *ModelElement) error {
		if h, ok := e.owner.(BeforeExperimenter); ok {
			return h.BeforeExperiment()
		}
		return nil
	})
}

func (m *Model) initializeElements() error {
	return m.forward(func(e *ModelElement) error {
		if !e.initOption {
			return nil
		}
		if h, ok := e.owner.(Initializer); ok {
			return h.Initialize()
		}
		return nil
	})
}

func (m *Model) warmUpElements() {
	_ = m.forward(func(e *ModelElement) error {
		if !e.warmUpOption {
			return nil
		}
		if h, ok := e.owner.(WarmUpper); ok {
			h.WarmUp()
		}
		return nil
	})
}

func (m *Model) replicationEnded() {
	m.reverse(func(e *ModelElement) {
		if h, ok := e.owner.(ReplicationEnder); ok {
			h.ReplicationEnded()
		}
	})
}

func (m *Model) afterReplication() {
	m.reverse(func(e *ModelElement) {
		if h, ok := e.owner.(AfterReplicationer); ok {
			h.AfterReplication()
		}
	})
}

func (m *Model) afterExperiment() {
	m.reverse(func(e *ModelElement) {
		if h, ok := e.owner.(AfterExperimenter); ok {
			h.AfterExperiment()
		}
	})
}
