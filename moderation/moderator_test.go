package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"merde", "idiot"}, '*')
	req.NoError(err)

	cases := map[string]string{
		"tu es un idiot":      "tu es un *****",
		"quelle merde alors":  "quelle ***** alors",
		"rien à signaler ici": "rien à signaler ici",
		"IDIOT":               "*****",
	}
	for input, expected := range cases {
		req.Equal(expected, moderator.Censor(input), input)
	}
}

func TestModerator_Censor_Obfuscated(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"idiot"}, '*')
	req.NoError(err)

	// Leet substitutions and separator noise must not bypass the filter
	req.NotEqual("1d10t", moderator.Censor("1d10t"))
	req.NotEqual("i.d.i.o.t", moderator.Censor("i.d.i.o.t"))
}

func TestModerator_Nil_Passes_Through(t *testing.T) {
	req := require.New(t)

	// An empty word list disables moderation entirely
	moderator, err := NewModerator(nil, '*')
	req.NoError(err)
	req.Nil(moderator)
	req.Equal("anything goes", moderator.Censor("anything goes"))
}
