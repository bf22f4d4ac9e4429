package world

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dop251/goja"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/stretchr/testify/require"
)

var robot = strips.Entity{ID: "robot"}

func battery(v int) *strips.State {
	return strips.MustState("battery", strips.TypeInt, strips.EqualTo, strips.Int(v), robot)
}

func TestSnapshot_BasicOperations(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	require.Nil(t, w.Get("battery(robot)"))
	require.Empty(t, w.Keys())
	require.Equal(t, 0, w.Len())

	w.Set(battery(80))
	require.True(t, w.Has("battery(robot)"))
	require.Equal(t, strips.Value(strips.Int(80)), w.Get("battery(robot)").Value())
	require.Equal(t, 1, w.Len())

	w.Set(battery(60))
	require.Equal(t, strips.Value(strips.Int(60)), w.Get("battery(robot)").Value())
	require.Equal(t, 1, w.Len())

	w.Set(strips.MustState("at", strips.TypeEntity, strips.EqualTo, strips.Entity{ID: "kitchen"}, robot))
	require.Equal(t, []string{"at(robot)", "battery(robot)"}, w.Keys())

	w.Delete("at(robot)")
	require.False(t, w.Has("at(robot)"))

	w.Clear()
	require.Equal(t, 0, w.Len())
}

func TestSnapshot_CopiesInAndOut(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	s := battery(80)
	w.Set(s)

	require.NoError(t, s.Assign(strips.Int(1)))
	got := w.Get("battery(robot)")
	require.NoError(t, got.Assign(strips.Int(2)))
	require.Equal(t, strips.Value(strips.Int(80)), w.Get("battery(robot)").Value())

	snap := w.Snapshot()
	require.NoError(t, snap["battery(robot)"].Assign(strips.Int(3)))
	require.Equal(t, strips.Value(strips.Int(80)), w.Get("battery(robot)").Value())

	c := w.Clone()
	c.Set(battery(5))
	require.Equal(t, strips.Value(strips.Int(80)), w.Get("battery(robot)").Value())
	require.Equal(t, strips.Value(strips.Int(5)), c.Get("battery(robot)").Value())
}

func TestSnapshot_DropsInquiry(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	w.Set(battery(80).SetInquiry(func([]strips.Value) strips.Value { return strips.Int(1) }))

	got := w.Get("battery(robot)")
	require.False(t, got.HasInquiry())
	require.Equal(t, strips.Value(strips.Int(80)), got.Value())
}

func TestSnapshot_LookupAndCommit(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	_, ok := w.Lookup(battery(0))
	require.False(t, ok)

	w.Commit(battery(50), nil)
	fact, ok := w.Lookup(battery(0))
	require.True(t, ok)
	require.Equal(t, strips.Value(strips.Int(50)), fact.Value())
}

func TestSnapshot_Inquiry(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	live := strips.MustState("battery", strips.TypeInt, strips.GreaterThan, strips.Int(20), robot).
		SetInquiry(w.Inquiry("battery", strips.TypeInt))

	// no fact: the cached value stands
	require.Equal(t, strips.Value(strips.Int(20)), live.Value())

	w.Set(battery(75))
	require.Equal(t, strips.Value(strips.Int(75)), live.Value())

	// a fact of another type is ignored
	wrongType := w.Inquiry("battery", strips.TypeFloat)
	require.Nil(t, wrongType([]strips.Value{robot}))
}

func TestSnapshot_Concurrent(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				owner := strips.Entity{ID: fmt.Sprintf("r%d", i)}
				w.Set(strips.MustState("battery", strips.TypeInt, strips.EqualTo, strips.Int(j), owner))
				_ = w.Get(strips.StateKey("battery", owner))
				_ = w.Keys()
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 8, w.Len())
}

func TestSnapshot_ExposeToJS(t *testing.T) {
	t.Parallel()

	w := new(Snapshot)
	w.Set(battery(80))

	vm := goja.New()
	require.NoError(t, vm.Set("world", w.ExposeToJS(vm)))

	v, err := vm.RunString(`world.get("battery(robot)")`)
	require.NoError(t, err)
	require.Equal(t, "80", v.Export())

	v, err = vm.RunString(`world.get("missing()") === null && world.has("battery(robot)") && world.len()`)
	require.NoError(t, err)
	require.EqualValues(t, 1, v.Export())
}
