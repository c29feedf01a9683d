package customfield

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		kind Kind
		out  any
	}{
		{"null", nil, KindNull, nil},
		{"text", "Berlin", KindText, "Berlin"},
		{"date", "2024-03-01", KindDate, "2024-03-01"},
		{"not quite a date", "2024-13-01", KindText, "2024-13-01"},
		{"number", 1.5, KindNumber, 1.5},
		{"json number", json.Number("42"), KindNumber, float64(42)},
		{"bool", true, KindBool, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := FromAny(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.kind, v.Kind())
			require.Equal(t, tc.out, v.Interface())
		})
	}

	_, err := FromAny([]any{1})
	require.Error(t, err)
}

func TestValue_NullEncodesAsJSONNull(t *testing.T) {
	b, err := json.Marshal(map[string]Value{"k": Null()})
	require.NoError(t, err)
	require.JSONEq(t, `{"k":null}`, string(b))

	b, err = json.Marshal(Text("null"))
	require.NoError(t, err)
	require.Equal(t, `"null"`, string(b))
}

func TestValue_DateDropsTime(t *testing.T) {
	v := Date(time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC))
	require.Equal(t, "2024-05-06", v.String())
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var fields map[string]Value
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":null,"c":3}`), &fields))
	require.Equal(t, KindText, fields["a"].Kind())
	require.True(t, fields["b"].IsNull())
	require.Equal(t, KindNumber, fields["c"].Kind())
}

func TestEntity_Table(t *testing.T) {
	require.Equal(t, "persons", EntityPerson.Table())
	_, err := ParseEntity("location")
	require.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"badge", "start date", "a.b", "Zürich"} {
		require.NoError(t, ValidateKey(key), key)
	}
	for _, key := range []string{"", "  ", `say "hi"`, "tab\there"} {
		require.Error(t, ValidateKey(key), key)
	}
}
