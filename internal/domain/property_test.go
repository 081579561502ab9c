package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyValueZero(t *testing.T) {
	var v PropertyValue
	assert.False(t, v.IsSet())
	_, err := v.Value()
	assert.ErrorIs(t, err, ErrNoValue)

	_, err = json.Marshal(v)
	assert.Error(t, err)
}

func TestPropertyValueVariants(t *testing.T) {
	tests := []struct {
		name  string
		value PropertyValue
		kind  PropertyKind
		want  any
	}{
		{"string", StringValue("x"), KindString, "x"},
		{"number", NumberValue(decimal.RequireFromString("1.25")), KindNumber, decimal.RequireFromString("1.25")},
		{"bool", BoolValue(true), KindBool, true},
		{"time", TimeValue(t0), KindTime, t0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			got, err := tt.value.Value()
			require.NoError(t, err)
			switch want := tt.want.(type) {
			case decimal.Decimal:
				assert.True(t, want.Equal(got.(decimal.Decimal)))
			case time.Time:
				assert.True(t, want.Equal(got.(time.Time)))
			default:
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestPropertyValueJSON(t *testing.T) {
	props := Properties{
		"name":   StringValue("Alice"),
		"gold":   NumberValue(decimal.RequireFromString("12.50")),
		"alive":  BoolValue(false),
		"joined": TimeValue(t0),
	}
	data, err := json.Marshal(props)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"gold":{"number":"12.5"}`)
	assert.Contains(t, string(data), `"alive":{"boolean":false}`)

	var decoded Properties
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(props, decoded); diff != "" {
		t.Fatalf("decoded properties mismatch (-want +got):\n%s", diff)
	}
}

func TestPropertyValueJSONRejectsAmbiguous(t *testing.T) {
	var v PropertyValue
	assert.Error(t, json.Unmarshal([]byte(`{}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"string":"a","boolean":true}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"number":"abc"}`), &v))
}

func TestPropertyFromAny(t *testing.T) {
	v, err := PropertyFromAny(3)
	require.NoError(t, err)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.True(t, n.Equal(decimal.NewFromInt(3)))

	_, err = PropertyFromAny([]string{"a"})
	assert.Error(t, err)

	props, err := PropertiesFromMap(map[string]any{"a": "x", "b": nil, "c": true})
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func TestStateDeltaJSON(t *testing.T) {
	id := uuid.New()
	delta := StateDelta{
		GlobalChanges: Properties{"x": IntValue(1)},
		EntityChanges: map[uuid.UUID]Properties{id: {"hp": IntValue(7)}},
	}
	data, err := json.Marshal(delta)
	require.NoError(t, err)

	var decoded StateDelta
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(delta, decoded); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
}
