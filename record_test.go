package quiver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver-go/types"
)

func TestRecordAccess(t *testing.T) {
	rec := newRecord(
		[]string{"name", "age"},
		[]types.Value{types.NewTextValue("Nick Fury"), types.NewBigintValue(95)},
	)

	require.Equal(t, 2, rec.Len())
	require.Equal(t, []string{"name", "age"}, rec.Fields())
	require.Equal(t, "Nick Fury", rec.Index(0).V())

	v, ok := rec.Get("age")
	require.True(t, ok)
	require.Equal(t, int64(95), v.V())

	_, ok = rec.Get("missing")
	require.False(t, ok)

	require.Equal(t, `{name: "Nick Fury", age: 95}`, rec.String())
}
