// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		expectErr  bool
		expectedID ID
	}{
		{name: "simple", raw: "topic:A", expectedID: New("topic", "A")},
		{name: "name with dots", raw: "schema:a.b.c", expectedID: New("schema", "a.b.c")},
		{name: "name with separator is rejected", raw: "topic:a:b", expectErr: true},
		{name: "error - empty string", raw: "", expectErr: true},
		{name: "error - no separator", raw: "topicA", expectErr: true},
		{name: "error - empty type", raw: ":A", expectErr: true},
		{name: "error - empty name", raw: "topic:", expectErr: true},
		{name: "error - invalid character", raw: "topic:a b", expectErr: true},
		{name: "error - just hyphen", raw: "topic:-", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedID, id)
		})
	}
}

func TestParseRelative(t *testing.T) {
	id, err := ParseRelative("A", "topic")
	require.NoError(t, err)
	assert.Equal(t, New("topic", "A"), id)

	id, err = ParseRelative("schema:order", "topic")
	require.NoError(t, err)
	assert.Equal(t, New("schema", "order"), id)

	_, err = ParseRelative("", "topic")
	assert.Error(t, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
	assert.NotPanics(t, func() { MustParse("topic:ok") })
}
