package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeycumines/strips/internal/pabt"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadHouse(t *testing.T) *Domain {
	t.Helper()
	d, err := Load(filepath.Join("testdata", "house.yaml"))
	require.NoError(t, err)
	return d
}

func TestLoad_House(t *testing.T) {
	t.Parallel()

	d := loadHouse(t)

	require.Equal(t, []string{
		"at(robot)",
		"battery(robot)",
		"distance(robot,garage)",
		"distance(robot,hall)",
		"distance(robot,kitchen)",
	}, d.World.Keys())
	require.Len(t, d.Objects[strips.TypeEntity], 4)

	move := d.Rule("move")
	require.NotNil(t, move)
	require.Nil(t, d.Rule("fly"))
	assert.Equal(t, 1.0, move.BaseCost())
	assert.Equal(t, []string{"$entity_var0", "$entity_var1"}, move.Placeholders())
	assert.False(t, move.IsRecursive())
	assert.False(t, move.IsFullyGrounded())
	require.Len(t, move.Preconditions(), 1)
	assert.True(t, move.Preconditions()[0].HasInquiry())
	require.Len(t, move.Effects(), 2)
	assert.Equal(t, "to", move.Effects()[0].Parameter.Name)
	assert.Equal(t, strips.OpSub, move.Effects()[1].Effect.Operator())

	cost, err := move.Cost(strips.Grounding{}.
		Bind(strips.EntityVar(0), strips.Entity{ID: "robot"}).
		Bind(strips.EntityVar(1), strips.Entity{ID: "garage"}).
		Bind(strips.FloatVar(0), strips.Float(9)))
	require.NoError(t, err)
	assert.Equal(t, 10.0, cost)

	require.Len(t, d.Goals, 2)
	assert.Empty(t, d.Goals[0].Expr)
	assert.Equal(t, "value >= 50", d.Goals[1].Expr)

	conds := d.Conditions()
	require.Len(t, conds, 2)
	assert.IsType(t, &pabt.Condition{}, conds[0])
	assert.IsType(t, &pabt.ExprCondition{}, conds[1])
}

func TestDomain_Plan(t *testing.T) {
	t.Parallel()

	d := loadHouse(t)
	node, err := pabt.NewPlanFromConditions(d.Planner(), d.Conditions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = pabt.Execute(ctx, node, time.Millisecond, 100)
	require.NoError(t, err)

	assert.Equal(t, "kitchen", strips.Canonical(d.World.Get("at(robot)").Value()))
	assert.Equal(t, strips.Value(strips.Int(70)), d.World.Get("battery(robot)").Value())
}

func TestDomain_ScriptInquiry(t *testing.T) {
	t.Parallel()

	const doc = `
facts:
  - {state: battery, type: int, owners: [robot], value: 5}
inquiries:
  - state: charged
    type: boolean
    script: '(owners) => Number(world.get("battery(" + owners[0] + ")")) > 20'
rules:
  - name: work
    actor: robot
    preconditions:
      - {state: charged, type: boolean, owners: [robot], value: true}
    effects:
      - {state: done, type: boolean, owners: [robot], operand: true}
`
	d, err := Parse("inline", []byte(doc))
	require.NoError(t, err)

	work := d.Rule("work")
	require.NotNil(t, work)
	require.True(t, work.IsFullyGrounded())

	attempt := strips.NewAttempt(work, strips.Grounding{})
	_, err = attempt.Run(d.World)
	require.ErrorIs(t, err, strips.ErrBlocked)

	d.World.Set(strips.MustState("battery", strips.TypeInt, strips.EqualTo, strips.Int(90), strips.Entity{ID: "robot"}))
	attempt = strips.NewAttempt(work, strips.Grounding{})
	out, err := attempt.Run(d.World)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, strips.Value(strips.Bool(true)), out[0].Value())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"yaml", "rules: [{"},
		{"object type", "objects: {colour: [red]}"},
		{"object placeholder", "objects: {entity: [$entity_var0]}"},
		{"fact type", "facts: [{state: at, type: place, value: x}]"},
		{"fact name", "facts: [{type: int, value: 1}]"},
		{"fact value", "facts: [{state: n, type: int, value: many}]"},
		{"fact placeholder", "facts: [{state: n, type: int, value: $int_var0}]"},
		{"qualifier", "facts: [{state: n, type: int, value: 1, qualifier: about}]"},
		{"owner types", "facts: [{state: n, type: int, value: 1, owner_types: [int]}]"},
		{"inquiry source", "inquiries: [{state: ok, type: boolean}]"},
		{"inquiry both", "inquiries: [{state: ok, type: boolean, expr: 'true', script: '() => true'}]"},
		{"inquiry twice", "inquiries: [{state: ok, type: boolean, expr: 'true'}, {state: ok, type: boolean, expr: 'false'}]"},
		{"inquiry type", `
inquiries: [{state: ok, type: int, expr: '1'}]
rules: [{name: r, actor: a, preconditions: [{state: ok, type: boolean, value: true}]}]`},
		{"rule name", "rules: [{actor: a}]"},
		{"rule twice", "rules: [{name: r, actor: a}, {name: r, actor: b}]"},
		{"actor", "rules: [{name: r, actor: ''}]"},
		{"operator", "rules: [{name: r, actor: a, effects: [{state: n, type: int, operator: pow, operand: 2}]}]"},
		{"operand", "rules: [{name: r, actor: a, effects: [{state: n, type: string, operator: add, operand: x}]}]"},
		{"parameter", "rules: [{name: r, actor: a, effects: [{parameter: to, state: n, type: int, operand: 2}]}]"},
		{"cost", "rules: [{name: r, actor: a, cost: [{state: name, type: string, value: x, coefficient: 1}]}]"},
		{"goal", "goals: [{state: at, type: entity}]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.name, []byte(tc.doc))
			require.Error(t, err)
		})
	}
}

func TestParse_WrapsInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse("bad.yaml", []byte("rules: [{name: r, actor: a}, {name: r, actor: b}]"))
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "bad.yaml")
	require.Contains(t, err.Error(), `rule "r"`)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
