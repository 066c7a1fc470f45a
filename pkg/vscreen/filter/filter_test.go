package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr    string
		kind    string
		match   []string
		noMatch []string
	}{
		{"", "always:true", []string{"anything", ""}, nil},
		{"Tech,banks", "exact:banks,tech", []string{"tech", "BANKS"}, []string{"tech/semis"}},
		{"us/*", "glob:us/*", []string{"us/mega"}, []string{"us/mega/tech", "eu"}},
		{"/^us/", "regex:^us", []string{"us/mega/tech"}, []string{"eu/us"}},
		{"Semi", "substr-ci:semi", []string{"tech/semis"}, []string{"banks"}},
		{"!banks", "not:substr-ci:banks", []string{"tech"}, []string{"us/banks"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, fmt.Sprint(f))
			for _, n := range tt.match {
				assert.True(t, f.Match(n), n)
			}
			for _, n := range tt.noMatch {
				assert.False(t, f.Match(n), n)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("/[/")
	assert.Error(t, err)
	_, err = Parse("a[")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	lists := []types.Universe{{Name: "tech"}, {Name: "banks"}, {Name: "tech/semis"}}
	f, err := Parse("tech*")
	require.NoError(t, err)
	got := Apply(f, lists)
	require.Len(t, got, 1)
	assert.Equal(t, "tech", got[0].Name)
	assert.Len(t, Apply(nil, lists), 3)
}
