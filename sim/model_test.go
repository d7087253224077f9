package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookLog records lifecycle calls across a model.
type hookLog struct{ calls []string }

// hooked is an element that logs every lifecycle hook it receives.
type hooked struct {
	*ModelElement
	log     *hookLog
	initErr error
}

func newHooked(t *testing.T, parent *ModelElement, name string, log *hookLog) *hooked {
	t.Helper()
	h := &hooked{log: log}
	e, err := NewModelElement(parent, name, h)
	require.NoError(t, err)
	h.ModelElement = e
	return h
}

func (h *hooked) add(hook string) { h.log.calls = append(h.log.calls, hook+":"+h.Name()) }

func (h *hooked) BeforeExperiment() error { h.add("before"); return nil }
func (h *hooked) Initialize() error       { h.add("init"); return h.initErr }
func (h *hooked) WarmUp()                 { h.add("warmup") }
func (h *hooked) ReplicationEnded()       { h.add("ended") }
func (h *hooked) AfterReplication()       { h.add("after") }
func (h *hooked) AfterExperiment()        { h.add("done") }

func TestModel_HookOrder_PreOrderForwardReverseBackward(t *testing.T) {
	// GIVEN the tree M -> A -> (A1, A2), M -> B
	var log hookLog
	m := NewModel("M", nil)
	a := newHooked(t, m.ModelElement, "A", &log)
	newHooked(t, a.ModelElement, "A1", &log)
	newHooked(t, a.ModelElement, "A2", &log)
	newHooked(t, m.ModelElement, "B", &log)

	// WHEN one replication runs
	s, err := NewSimulation(m, NewExperiment("order"))
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	// THEN forward hooks see parents first and backward hooks see children first
	assert.Equal(t, []string{
		"before:A", "before:A1", "before:A2", "before:B",
		"init:A", "init:A1", "init:A2", "init:B",
		"ended:B", "ended:A2", "ended:A1", "ended:A",
		"after:B", "after:A2", "after:A1", "after:A",
		"done:B", "done:A2", "done:A1", "done:A",
	}, log.calls)
	assert.Equal(t, []string{"M", "A", "A1", "A2", "B"}, m.InitializationOrder())
}

func TestModel_InitializationOption_SkipsElement(t *testing.T) {
	var log hookLog
	m := NewModel("M", nil)
	newHooked(t, m.ModelElement, "A", &log)
	b := newHooked(t, m.ModelElement, "B", &log)
	b.SetInitializationOption(false)

	s, err := NewSimulation(m, NewExperiment("skip"))
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, log.calls, "init:A")
	assert.NotContains(t, log.calls, "init:B")
}

func TestModelElement_DuplicateName_ReturnsErrConfiguration(t *testing.T) {
	m := NewModel("M", nil)
	_, err := NewModelElement(m.ModelElement, "X", nil)
	require.NoError(t, err)

	_, err = NewModelElement(m.ModelElement, "X", nil)

	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestModelElement_EmptyName_IsGenerated(t *testing.T) {
	m := NewModel("M", nil)
	e, err := NewModelElement(m.ModelElement, "", &hooked{})
	require.NoError(t, err)
	assert.Equal(t, "sim.hooked_1", e.Name())
}

func TestModelElement_StructureFrozenDuringExperiment(t *testing.T) {
	// GIVEN an element that tries to change the tree while the experiment runs
	m := NewModel("M", nil)
	other, err := NewModelElement(m.ModelElement, "Other", nil)
	require.NoError(t, err)
	var addErr, moveErr error
	hooked := &hookElement{fn: func(e *ModelElement) {
		_, addErr = NewModelElement(e, "Late", nil)
		moveErr = other.ChangeParent(e)
	}}
	hooked.ModelElement, err = NewModelElement(m.ModelElement, "Hooked", hooked)
	require.NoError(t, err)

	// WHEN it runs
	s, err := NewSimulation(m, NewExperiment("frozen"))
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	// THEN both mutations were refused and the model unlocks afterwards
	assert.ErrorIs(t, addErr, ErrInvalidState)
	assert.ErrorIs(t, moveErr, ErrInvalidState)
	assert.False(t, m.Locked())
	assert.NoError(t, other.ChangeParent(hooked.ModelElement))
}

type hookElement struct {
	*ModelElement
	fn func(e *ModelElement)
}

func (p *hookElement) Initialize() error {
	p.fn(p.ModelElement)
	return nil
}

func TestModelElement_ChangeParent_MovesSubtree(t *testing.T) {
	m := NewModel("M", nil)
	a, _ := NewModelElement(m.ModelElement, "A", nil)
	b, _ := NewModelElement(m.ModelElement, "B", nil)
	c, _ := NewModelElement(a, "C", nil)

	require.NoError(t, a.ChangeParent(b))

	assert.Equal(t, []string{"M", "B", "A", "C"}, m.InitializationOrder())
	assert.Equal(t, b, a.Parent())
	assert.Equal(t, a, c.Parent())
	assert.ErrorIs(t, b.ChangeParent(c), ErrConfiguration, "cycles are refused")
	assert.Equal(t, "M\n  B\n    A\n      C\n", m.TreeString())
}

func TestModel_InitializeError_FailsReplication(t *testing.T) {
	var log hookLog
	m := NewModel("M", nil)
	h := newHooked(t, m.ModelElement, "A", &log)
	boom := errors.New("boom")
	h.initErr = boom

	s, err := NewSimulation(m, NewExperiment("fail"))
	require.NoError(t, err)
	report, err := s.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "replication 1")
	require.NotNil(t, report)
	assert.Equal(t, 1, report.FailedReplication)
}
