package moderation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor(t *testing.T) {
	req := require.New(t)
	c, err := New([]string{"badger", "snake", "mushroom"}, '*')
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple word", input: "The badger is here", expected: "The ****** is here"},
		{name: "repeated words", input: "badger badger", expected: "****** ******"},
		{name: "leet and punctuation", input: "Look at B.4.d.g.3r !", expected: "Look at ********** !"},
		{name: "uppercase with dashes", input: "S-N-A-K-E is near", expected: "********* is near"},
		{name: "accents untouched", input: "Un été avec un badger", expected: "Un été avec un ******"},
		{name: "clean text", input: "nothing to see", expected: "nothing to see"},
		{name: "only noise", input: "!!! ...", expected: "!!! ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, c.Censor(tt.input))
		})
	}
}

func TestCensorWithoutWords(t *testing.T) {
	req := require.New(t)
	c, err := New([]string{"", "  "}, '#')
	req.NoError(err)
	req.Equal("badger", c.Censor("badger"))
}

func TestCensorConcurrentUse(t *testing.T) {
	c, err := New([]string{"snake"}, '*')
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if got := c.Censor("a snake"); got != "a *****" {
					t.Errorf("unexpected censor output %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
