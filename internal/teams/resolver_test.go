package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultRules(t *testing.T) {
	resolver, err := NewResolver(DefaultRules())
	require.NoError(t, err)

	cases := []struct {
		in   string
		want string
	}{
		{"Manchester City", "manchester-city"},
		{"Man City", "manchester-city"},
		{"MAN CITY FC", "manchester-city"},
		{"Manchester United", "manchester-united"},
		{"Man Utd", "manchester-united"},
		{"Liverpool FC", "liverpool"},
		{"  Arsenal  ", "arsenal"},
		{"Tottenham Hotspur", "tottenham"},
		{"Spurs", "tottenham"},
		{"Real Madrid CF", "real-madrid"},
		{"Atlético de Madrid", "atletico-madrid"},
		{"FC Barcelona", "barcelona"},
		{"PSG", "paris-saint-germain"},
		{"Smalltown Rovers", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolver.Resolve(tc.in), "input %q", tc.in)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	resolver, err := NewResolver([]Rule{
		{Pattern: `city`, Canonical: "first"},
		{Pattern: `man\s*city`, Canonical: "second"},
	})
	require.NoError(t, err)

	// Rule order decides, even when a later rule is more specific.
	assert.Equal(t, "first", resolver.Resolve("Man City"))
}

func TestManCityNeverResolvesAsUnited(t *testing.T) {
	resolver, err := NewResolver(DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, "manchester-city", resolver.Resolve("Manchester City"))
	assert.Equal(t, "manchester-united", resolver.Resolve("Manchester Utd"))
}

func TestNewResolverRejectsBadPattern(t *testing.T) {
	_, err := NewResolver([]Rule{{Pattern: `(`, Canonical: "broken"}})
	assert.Error(t, err)
}
