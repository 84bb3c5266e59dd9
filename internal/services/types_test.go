package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerSetDecodesEachKind(t *testing.T) {
	var set AnswerSet
	err := json.Unmarshal([]byte(`{"a":0,"b":["home","school"],"c":"notes","d":[]}`), &set)
	require.NoError(t, err)

	assert.Equal(t, NumberAnswer(0), set["a"])
	assert.Equal(t, ChoicesAnswer("home", "school"), set["b"])
	assert.Equal(t, TextAnswer("notes"), set["c"])
	assert.Equal(t, AnswerChoices, set["d"].Kind)

	v, ok := set.ScaleValue("a")
	assert.True(t, ok, "zero is a present answer")
	assert.Equal(t, 0, v)
	_, ok = set.ScaleValue("c")
	assert.False(t, ok)
	_, ok = set.ScaleValue("missing")
	assert.False(t, ok)
}

func TestAnswerRejectsBadValues(t *testing.T) {
	for _, raw := range []string{`{"a":null}`, `{"a":2.5}`, `{"a":true}`, `{"a":[1,2]}`} {
		var set AnswerSet
		assert.Error(t, json.Unmarshal([]byte(raw), &set), raw)
	}
}

func TestAnswerMarshalKeepsKind(t *testing.T) {
	b, err := json.Marshal(AnswerSet{"n": NumberAnswer(3), "c": ChoicesAnswer(), "t": TextAnswer("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3,"c":[],"t":"x"}`, string(b))
}

func TestOptionValueJSON(t *testing.T) {
	var opts []Option
	require.NoError(t, json.Unmarshal([]byte(`[{"value":0,"label":"Never"},{"value":"home","label":"At home"}]`), &opts))
	assert.Equal(t, IntValue(0), opts[0].Value)
	assert.Equal(t, StringValue("home"), opts[1].Value)
	assert.Equal(t, "0", opts[0].Value.String())

	b, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"value":0,"label":"Never"},{"value":"home","label":"At home"}]`, string(b))
}
