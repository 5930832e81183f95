package wire

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver-go/types"
)

var valueDiffOpts = cmp.Options{
	cmp.Comparer(func(a, b types.TimestampValue) bool {
		return time.Time(a).Equal(time.Time(b))
	}),
	cmpopts.EquateEmpty(),
}

func TestRunRoundTrip(t *testing.T) {
	run := &Run{
		ID:    "q-1",
		Query: "MATCH (p:Person {id: $id}) SET p.age = $age RETURN p",
		Params: map[string]types.Value{
			"id":    types.NewBigintValue(3),
			"age":   types.NewDoubleValue(30.5),
			"name":  types.NewTextValue(`quo"ted`),
			"alive": types.NewBoolValue(true),
			"none":  types.NewNullValue(),
			"tags":  types.NewListValue(types.NewTextValue("a"), types.NewBigintValue(2)),
			"since": types.NewTimestampValue(time.Date(2023, 5, 4, 10, 30, 0, 0, time.UTC)),
		},
	}

	frame, err := EncodeRun(run)
	require.NoError(t, err)

	got, err := DecodeRun(frame)
	require.NoError(t, err)
	require.Equal(t, run.ID, got.ID)
	require.Equal(t, run.Query, got.Query)
	require.Empty(t, cmp.Diff(run.Params, got.Params, valueDiffOpts))
}

func TestRunRoundTripNoParams(t *testing.T) {
	frame, err := EncodeRun(&Run{ID: "q-2", Query: "CREATE (:Person)"})
	require.NoError(t, err)

	got, err := DecodeRun(frame)
	require.NoError(t, err)
	require.Equal(t, "CREATE (:Person)", got.Query)
	require.Empty(t, got.Params)
}

func TestMessageRoundTrip(t *testing.T) {
	node := types.NewNodeValue(12, []string{"Person", "Agent"}, map[string]types.Value{
		"name": types.NewTextValue("Nick Fury"),
		"id":   types.NewBigintValue(1),
	})

	msgs := []Message{
		&Header{Fields: []string{"p", "x"}},
		&Record{Values: []types.Value{node, types.NewBigintValue(10)}},
		&Summary{Meta: map[string]string{"type": "rw"}},
		&Failure{Code: "Quiver.ClientError.Statement.SyntaxError", Message: "invalid input"},
	}

	for _, msg := range msgs {
		frame, err := EncodeMessage(msg)
		require.NoError(t, err)

		got, err := DecodeMessage(frame)
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(msg, got, valueDiffOpts))
	}
}

func TestSummaryWithoutMeta(t *testing.T) {
	frame, err := EncodeMessage(&Summary{})
	require.NoError(t, err)

	got, err := DecodeMessage(frame)
	require.NoError(t, err)
	sum, ok := got.(*Summary)
	require.True(t, ok)
	require.Empty(t, sum.Meta)
}

func TestValueRoundTrip(t *testing.T) {
	v := types.NewListValue(
		types.NewNullValue(),
		types.NewListValue(types.NewBoolValue(false)),
		types.NewNodeValue(1, nil, nil),
	)

	data, err := EncodeValue(v)
	require.NoError(t, err)

	got, err := DecodeValue(data)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(v, got, valueDiffOpts))
}

func TestDecodeMessageErrors(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"no":"type"}`))
	require.Error(t, err)

	_, err = DecodeMessage([]byte(`{"type":"bogus"}`))
	require.Error(t, err)

	_, err = DecodeMessage([]byte(`{"type":"record","values":[{"t":"wat","v":1}]}`))
	require.Error(t, err)

	_, err = DecodeRun([]byte(`{"type":"run","id":"x"}`))
	require.Error(t, err)
}
