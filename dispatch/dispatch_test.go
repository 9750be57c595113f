package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shibukawa/scrapbook/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parseOne(t *testing.T, script string) *command.Command {
	t.Helper()

	commands := command.Parse(script)
	require.Len(t, commands, 1)

	return &commands[0]
}

func TestPlanConvertsArguments(t *testing.T) {
	cmd := parseOne(t, `db.users.find({_id: ObjectId("5f1d7f8e9b1e8a3c4d5e6f70"), age: {$gt: 20}, born: ISODate("2020-01-02T03:04:05Z")}, {name: 1})`)

	op, err := Plan(cmd, Options{})
	require.NoError(t, err)

	assert.Equal(t, "users", op.Collection)
	assert.Equal(t, "find", op.Method)
	assert.Equal(t, KindRead, op.Kind)
	assert.NotEmpty(t, op.ID)
	require.Len(t, op.Arguments, 2)

	filter, ok := op.Arguments[0].(bson.D)
	require.True(t, ok)

	values := filter.Map()
	id, err := primitive.ObjectIDFromHex("5f1d7f8e9b1e8a3c4d5e6f70")
	require.NoError(t, err)
	assert.Equal(t, id, values["_id"])
	assert.Equal(t, bson.D{{Key: "$gt", Value: int32(20)}}, values["age"])

	born := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, primitive.NewDateTimeFromTime(born), values["born"])

	assert.Equal(t, bson.D{{Key: "name", Value: int32(1)}}, op.Arguments[1])
}

func TestPlanConvertsDateAndRegex(t *testing.T) {
	cmd := parseOne(t, `db.logs.find({at: Date("2020-01-02T03:04:05Z"), msg: /^err/gi})`)

	op, err := Plan(cmd, Options{})
	require.NoError(t, err)

	values := op.Arguments[0].(bson.D).Map()
	born := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, primitive.NewDateTimeFromTime(born), values["at"])
	assert.Equal(t, primitive.Regex{Pattern: "^err", Options: "i"}, values["msg"])
}

func TestPlanRefusals(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		options Options
		err     error
	}{
		{name: "syntax error", script: "db.a.find({a: })", err: ErrCommandHasErrors},
		{name: "value error", script: "db.a.find({a: Foo()})", err: ErrCommandHasErrors},
		{name: "no function call", script: "db.a;", err: ErrCommandHasErrors},
		{name: "unknown method", script: "db.a.explode()", err: ErrUnknownOperation},
		{name: "drop", script: "db.a.drop()", err: ErrDangerousOperation},
		{name: "delete everything", script: "db.a.deleteMany({})", err: ErrDangerousOperation},
		{name: "update without filter", script: "db.a.updateMany()", err: ErrDangerousOperation},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			op, err := Plan(parseOne(t, test.script), test.options)
			assert.Nil(t, op)
			assert.True(t, errors.Is(err, test.err), "got %v", err)
		})
	}
}

func TestPlanAllowances(t *testing.T) {
	op, err := Plan(parseOne(t, "db.a.explode()"), Options{AllowUnknown: true})
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, op.Kind)

	op, err = Plan(parseOne(t, "db.a.drop()"), Options{AllowDangerous: true})
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, op.Kind)

	op, err = Plan(parseOne(t, "db.a.deleteMany({a: 1})"), Options{})
	require.NoError(t, err)
	assert.Equal(t, KindWrite, op.Kind)
}

func TestPlanWithoutName(t *testing.T) {
	_, err := Plan(&command.Command{Collection: "a"}, Options{})
	assert.True(t, errors.Is(err, ErrNoOperation))
}

func TestOperationExtJSON(t *testing.T) {
	op, err := Plan(parseOne(t, `db.c.insertOne({_id: ObjectId("5f1d7f8e9b1e8a3c4d5e6f70"), n: 1.5})`), Options{})
	require.NoError(t, err)

	op.ID = "fixed"

	text, err := op.ExtJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"fixed","collection":"c","method":"insertOne","kind":"write","arguments":[{"_id":{"$oid":"5f1d7f8e9b1e8a3c4d5e6f70"},"n":1.5}]}`, text)
}

type fakeExecutor struct {
	executed []string
	fail     map[string]error
}

func (f *fakeExecutor) Execute(ctx context.Context, op *Operation) (any, error) {
	f.executed = append(f.executed, op.Collection+"."+op.Method)
	if err := f.fail[op.Method]; err != nil {
		return nil, err
	}

	return len(op.Arguments), nil
}

func TestRunAll(t *testing.T) {
	commands := command.Parse("db.a.find({x: 1})\ndb.b.find({x: })\ndb.c.countDocuments()\ndb.d.insertOne({})")

	executor := &fakeExecutor{fail: map[string]error{"insertOne": errors.New("duplicate key")}}

	results, err := RunAll(context.Background(), executor, commands, Options{})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"a.find", "c.countDocuments", "d.insertOne"}, executor.executed)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Value)

	assert.True(t, results[1].Skipped())
	assert.True(t, errors.Is(results[1].Err, ErrCommandHasErrors))

	assert.Equal(t, 0, results[2].Value)

	assert.True(t, errors.Is(results[3].Err, ErrExecution))
	assert.Contains(t, results[3].Err.Error(), "duplicate key")
}

func TestRunAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	executor := ExecutorFunc(func(ctx context.Context, op *Operation) (any, error) {
		cancel()
		return nil, ctx.Err()
	})

	results, err := RunAll(ctx, executor, command.Parse("db.a.find()\ndb.b.find()"), Options{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, results, 1)
}

func TestRunAppliesTimeout(t *testing.T) {
	executor := ExecutorFunc(func(ctx context.Context, op *Operation) (any, error) {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Minute, nil
	})

	result := Run(context.Background(), executor, parseOne(t, "db.a.find()"), Options{Timeout: time.Minute})
	require.NoError(t, result.Err)
	assert.Equal(t, true, result.Value)
}

func TestDryRun(t *testing.T) {
	result := Run(context.Background(), DryRun, parseOne(t, "db.a.find({x: 1})"), Options{})
	require.NoError(t, result.Err)
	assert.Contains(t, result.Value.(string), `"arguments":[{"x":1}]`)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRead, KindOf("aggregate"))
	assert.Equal(t, KindWrite, KindOf("bulkWrite"))
	assert.Equal(t, KindAdmin, KindOf("createIndex"))
	assert.Equal(t, KindUnknown, KindOf("nope"))
}
