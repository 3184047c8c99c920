package order

import (
	"encoding/json"
	"testing"

	"restaurant_order/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNumber_Unmarshal(t *testing.T) {
	cases := []struct {
		body string
		want TableNumber
	}{
		{`{"table_number":"A3"}`, "A3"},
		{`{"table_number":12}`, "12"},
		{`{"table_number":null}`, ""},
		{`{}`, ""},
		{`{"table_number":"  "}`, ""},
	}
	for _, c := range cases {
		var req CreateRequest
		require.NoError(t, json.Unmarshal([]byte(c.body), &req), c.body)
		assert.Equal(t, c.want, req.TableNumber, c.body)
	}

	var req CreateRequest
	assert.Error(t, json.Unmarshal([]byte(`{"table_number":true}`), &req))
}

func TestTableNumber_Ptr(t *testing.T) {
	assert.Nil(t, TableNumber("").ptr())
	assert.Equal(t, "5", *TableNumber("5").ptr())
}

func TestPolicy_Allows(t *testing.T) {
	cases := []struct {
		policy   TransitionPolicy
		from, to model.OrderStatus
		want     bool
	}{
		{PolicyPermissive, model.StatusCompleted, model.StatusPending, true},
		{PolicyPermissive, model.StatusPending, model.StatusReady, true},
		{PolicyStrict, model.StatusPending, model.StatusConfirmed, true},
		{PolicyStrict, model.StatusPending, model.StatusCancelled, true},
		{PolicyStrict, model.StatusPending, model.StatusPreparing, false},
		{PolicyStrict, model.StatusConfirmed, model.StatusCancelled, false},
		{PolicyStrict, model.StatusReady, model.StatusCompleted, true},
		{PolicyStrict, model.StatusCompleted, model.StatusCompleted, true},
		{PolicyStrict, model.StatusCancelled, model.StatusPending, false},
		{PolicyStrict, model.StatusPreparing, model.StatusConfirmed, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.policy.Allows(c.from, c.to), "%s: %s -> %s", c.policy, c.from, c.to)
	}
}
