package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	t.Run("track url", func(t *testing.T) {
		typ, id, err := ParseID("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc")
		require.NoError(t, err)
		assert.Equal(t, "track", typ)
		assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", string(id))
	})

	t.Run("uri", func(t *testing.T) {
		typ, id, err := ParseID("spotify:track:4uLU6hMCjMI75M1A2tKUQC")
		require.NoError(t, err)
		assert.Equal(t, "track", typ)
		assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", string(id))
	})

	t.Run("foreign host", func(t *testing.T) {
		_, _, err := ParseID("https://www.youtube.com/watch?v=x")
		assert.Error(t, err)
	})

	t.Run("bad uri", func(t *testing.T) {
		_, _, err := ParseID("spotify:track")
		assert.Error(t, err)
	})
}

func TestIsSpotify(t *testing.T) {
	assert.True(t, IsSpotify("https://open.spotify.com/track/x"))
	assert.True(t, IsSpotify("spotify:track:x"))
	assert.False(t, IsSpotify("never gonna give you up"))
}

func TestSearchQuery(t *testing.T) {
	tr := Track{Name: "Never Gonna Give You Up", Artist: "Rick Astley"}
	assert.Equal(t, `ytsearch1:"Never Gonna Give You Up" "Rick Astley"`, tr.SearchQuery())
}

func TestNewClientCredentialsRequiresCredentials(t *testing.T) {
	_, err := NewClientCredentials("", "")
	assert.Error(t, err)
}
