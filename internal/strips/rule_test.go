package strips

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// moveRule: $entity_var0 moves to $entity_var1 when it can move, at a cost
// of 1 plus twice the travelled distance.
func moveRule(t *testing.T) *Rule {
	t.Helper()
	who, dest := EntityVar(0), EntityVar(1)
	to := ActionParameter{Name: "to", Type: TypeEntity, Value: dest}
	r, err := NewRule(who, Action{Name: "move", Parameters: []ActionParameter{to}}, 1)
	require.NoError(t, err)
	r.AddPrecondition(MustState("canMove", TypeBoolean, EqualTo, Bool(true), who))
	r.AddEffect(to, MustEffect(MustState("at", TypeEntity, EqualTo, dest, who), OpAssign, dest))
	r.AddCostHeuristic(MustState("distance", TypeFloat, EqualTo, FloatVar(0), who, dest), 2)
	return r
}

func moveGrounding() Grounding {
	return Grounding{}.
		Bind(EntityVar(0), robot).
		Bind(EntityVar(1), kitchen).
		Bind(FloatVar(0), Float(3.5))
}

func TestNewRule_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewRule(nil, Action{Name: "move"}, 1)
	require.Error(t, err)

	_, err = NewRule(robot, Action{}, 1)
	require.Error(t, err)

	_, err = NewRule(robot, Action{Name: "move", Parameters: []ActionParameter{
		{Name: "to", Type: TypeEntity, Value: String("kitchen")},
	}}, 1)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRule_ParameterIndex(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	idx := r.Index()

	require.Equal(t, []string{"$entity_var0", "$entity_var1"}, r.Placeholders())
	require.Equal(t, []Location{
		{Container: InActor},
		{Container: InPreconditionOwner, Item: 0, Slot: 0},
		{Container: InEffectOwner, Item: 0, Slot: 0},
	}, idx.Locations("$entity_var0"))
	require.Equal(t, []Location{
		{Container: InActionParameter, Item: 0},
		{Container: InEffectValue, Item: 0},
		{Container: InEffectOperand, Item: 0},
	}, idx.Locations("$entity_var1"))

	// cost heuristics are grounded on demand, not indexed
	require.Empty(t, idx.Locations("$float_var0"))

	// the returned index is a copy
	delete(idx, "$entity_var0")
	require.Len(t, r.Index(), 2)
}

func TestRule_Ground(t *testing.T) {
	t.Parallel()

	template := moveRule(t)
	require.False(t, template.IsFullyGrounded())

	g, err := template.Ground(moveGrounding())
	require.NoError(t, err)
	require.True(t, g.IsFullyGrounded())
	require.Empty(t, g.Placeholders())

	require.Equal(t, Value(robot), g.Actor())
	require.Equal(t, Value(kitchen), g.Action().Parameters[0].Value)
	require.Equal(t, "canMove(robot)", g.Preconditions()[0].Key())
	eff := g.Effects()[0].Effect
	require.Equal(t, "at(robot)", eff.State().Key())
	require.Equal(t, Value(kitchen), eff.State().Value())
	require.Equal(t, Value(kitchen), eff.Operand())
	require.Equal(t, "distance(robot,kitchen)", g.CostHeuristics()[0].State.Key())

	// the template is untouched
	require.False(t, template.IsFullyGrounded())
	require.Equal(t, Value(EntityVar(0)), template.Actor())
	require.Equal(t, "canMove($entity_var0)", template.Preconditions()[0].Key())
	require.Len(t, template.Placeholders(), 2)
}

func TestRule_GroundMissingBinding(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	g := Grounding{}.Bind(EntityVar(0), robot)

	require.Equal(t, []string{"$entity_var1"}, r.Unbound(g))
	_, err := r.Ground(g)
	require.ErrorIs(t, err, ErrUngroundable)
	require.Contains(t, err.Error(), "$entity_var1")
}

func TestRule_GroundTypeMismatch(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	g := Grounding{}.Bind(EntityVar(0), robot).Bind(EntityVar(1), Int(3))

	_, err := r.Ground(g)
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.False(t, r.IsFullyGrounded())
}

func TestRule_GroundState(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	template := MustState("distance", TypeFloat, LessThan, FloatVar(0), EntityVar(0), EntityVar(1))

	s, ok := r.GroundState(template, moveGrounding())
	require.True(t, ok)
	require.Equal(t, "distance(robot,kitchen)", s.Key())
	require.Equal(t, Value(Float(3.5)), s.Value())
	require.Equal(t, LessThan, s.Qualifier())
	require.Equal(t, "distance($entity_var0,$entity_var1)", template.Key())

	_, ok = r.GroundState(template, Grounding{}.Bind(EntityVar(0), robot).Bind(EntityVar(1), kitchen))
	require.False(t, ok)
}

func TestRule_GroundStateWrongTypedValue(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	template := MustState("distance", TypeFloat, EqualTo, FloatVar(0), EntityVar(0), EntityVar(1))
	g := Grounding{}.Bind(EntityVar(0), robot).Bind(EntityVar(1), kitchen).Bind(FloatVar(0), Entity{ID: "far"})

	s, ok := r.GroundState(template, g)
	require.False(t, ok)
	require.Nil(t, s)

	_, err := groundState(template, g)
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.NotErrorIs(t, err, ErrUngroundable)
}

func TestRule_Cost(t *testing.T) {
	t.Parallel()

	r := moveRule(t)

	cost, err := r.Cost(moveGrounding())
	require.NoError(t, err)
	require.Equal(t, 8.0, cost)

	_, err = r.Cost(Grounding{}.Bind(EntityVar(0), robot).Bind(EntityVar(1), kitchen))
	require.ErrorIs(t, err, ErrUngroundable)

	grounded, err := r.Ground(moveGrounding())
	require.NoError(t, err)
	cost, err = grounded.Cost(Grounding{})
	require.NoError(t, err)
	require.Equal(t, 8.0, cost)

	r.AddCostHeuristic(MustState("room", TypeString, EqualTo, String("hall")), 1)
	_, err = r.Cost(moveGrounding())
	require.ErrorIs(t, err, ErrNotNumeric)

	plain, err := NewRule(robot, Action{Name: "wait"}, 2.5)
	require.NoError(t, err)
	cost, err = plain.Cost(nil)
	require.NoError(t, err)
	require.Equal(t, 2.5, cost)
}

func TestRule_IsRecursive(t *testing.T) {
	t.Parallel()

	a, b, c := EntityVar(0), EntityVar(1), EntityVar(2)
	reach := func(from, to Value) *State {
		return MustState("canReach", TypeBoolean, EqualTo, Bool(true), from, to)
	}

	r, err := NewRule(a, Action{Name: "chain"}, 0)
	require.NoError(t, err)
	require.False(t, r.IsRecursive())

	r.AddPrecondition(reach(a, b)).AddPrecondition(reach(b, c))
	require.False(t, r.IsRecursive(), "no effects yet")

	r.AddEffect(ActionParameter{}, MustEffect(reach(a, c), OpAssign, Bool(true)))
	require.True(t, r.IsRecursive())

	g, err := r.Ground(Grounding{}.
		Bind(a, Entity{ID: "x"}).Bind(b, Entity{ID: "y"}).Bind(c, Entity{ID: "z"}))
	require.NoError(t, err)
	require.True(t, g.IsRecursive())

	r.AddPrecondition(MustState("open", TypeBoolean, EqualTo, Bool(true), b))
	require.False(t, r.IsRecursive())

	require.False(t, moveRule(t).IsRecursive())
}

func TestRule_CloneIndependence(t *testing.T) {
	t.Parallel()

	r := moveRule(t)
	c := r.Clone()

	require.NoError(t, c.Effects()[0].Effect.Apply())
	require.NoError(t, c.Preconditions()[0].Assign(Bool(false)))
	c.AddPrecondition(MustState("awake", TypeBoolean, EqualTo, Bool(true), robot))

	require.Len(t, r.Preconditions(), 1)
	require.Equal(t, Value(Bool(true)), r.Preconditions()[0].Value())
	require.Equal(t, Value(EntityVar(1)), r.Effects()[0].Effect.State().Value())
	require.Equal(t, r.Index(), moveRule(t).Index())
}

func TestRule_String(t *testing.T) {
	t.Parallel()

	g, err := moveRule(t).Ground(moveGrounding())
	require.NoError(t, err)
	require.Equal(t, "move(kitchen) by robot", g.String())
}
