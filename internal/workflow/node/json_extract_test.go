package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"array", `[1,2,3]`, `[1,2,3]`},
		{"no json at all", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateByRunes("abcdef", 3))
	assert.Equal(t, "abcdef", TruncateByRunes("abcdef", 10))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	assert.Equal(t, "héll", TruncateByRunes("héllo", 4))
}
