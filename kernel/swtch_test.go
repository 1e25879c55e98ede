package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwtchBetweenCoroutines(t *testing.T) {
	var boot, a, b Context
	bootContext(&boot)
	var trace []string

	initContext(&a, func() {
		trace = append(trace, "a1")
		Swtch(&a, &b)
		trace = append(trace, "a2")
		Swtch(&a, &boot)
		trace = append(trace, "a3")
		swtchExit(&a, &boot)
	}, 0)
	initContext(&b, func() {
		trace = append(trace, "b1")
		Swtch(&b, &a)
		trace = append(trace, "b2")
		swtchExit(&b, &boot)
	}, 0)

	Swtch(&boot, &a)
	assert.Equal(t, []string{"a1", "b1", "a2"}, trace)

	Swtch(&boot, &b)
	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, trace)

	Swtch(&boot, &a)
	assert.Equal(t, []string{"a1", "b1", "a2", "b2", "a3"}, trace)
}

func TestSwtchMisuse(t *testing.T) {
	var boot, c Context
	bootContext(&boot)
	assert.PanicsWithValue(t, "swtch: switch to self", func() { Swtch(&boot, &boot) })
	assert.PanicsWithValue(t, "swtch: uninitialized context", func() { Swtch(&boot, &c) })

	initContext(&c, nil, 0)
	assert.PanicsWithValue(t, "swtch: context has no entry", func() { c.resume() })

	bootContext(&c)
	c.baton <- struct{}{}
	assert.PanicsWithValue(t, "swtch: context already running", func() { c.resume() })
}
