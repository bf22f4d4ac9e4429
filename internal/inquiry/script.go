package inquiry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
	"github.com/joeycumines/strips/internal/strips"
)

// JSExposer is implemented by world snapshots that can publish themselves
// to a JavaScript runtime.
type JSExposer interface {
	ExposeToJS(vm *goja.Runtime) goja.Value
}

// Script is an inquiry backed by a JavaScript function. The source must
// evaluate to a function; it is called with the canonical owner ids and may
// read the world through the global "world" object.
//
//	(owners) => Number(world.get("battery(" + owners[0] + ")")) - 10
//
// goja runtimes are not safe for concurrent use, so calls are serialised.
type Script struct {
	mu        sync.Mutex
	name      string
	valueType strips.ValueType
	vm        *goja.Runtime
	fn        goja.Callable
}

// NewScript compiles and evaluates source in a fresh runtime. world may be
// nil.
func NewScript(name, source string, valueType strips.ValueType, world JSExposer) (*Script, error) {
	prg, err := goja.Compile(name, source, true)
	if err != nil {
		return nil, fmt.Errorf("inquiry: failed to compile %s: %w", name, err)
	}
	vm := goja.New()
	if world != nil {
		if err := vm.Set("world", world.ExposeToJS(vm)); err != nil {
			return nil, fmt.Errorf("inquiry: %s: %w", name, err)
		}
	}
	val, err := vm.RunProgram(prg)
	if err != nil {
		return nil, fmt.Errorf("inquiry: failed to run %s: %w", name, err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, fmt.Errorf("inquiry: %s does not evaluate to a function", name)
	}
	return &Script{name: name, valueType: valueType, vm: vm, fn: fn}, nil
}

// Eval calls the function for owners.
func (s *Script) Eval(owners []strips.Value) (strips.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.fn(goja.Undefined(), s.vm.ToValue(ownerIDs(owners)))
	if err != nil {
		return nil, fmt.Errorf("inquiry: %s: %w", s.name, err)
	}
	if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
		return nil, nil
	}
	return FromNative(s.valueType, res.Export())
}

// Func adapts the script to a strips.InquiryFunc. Failures are logged and
// answer nil.
func (s *Script) Func() strips.InquiryFunc {
	return func(owners []strips.Value) strips.Value {
		v, err := s.Eval(owners)
		if err != nil {
			slog.Warn("inquiry script failed", "script", s.name, "error", err)
			return nil
		}
		return v
	}
}
