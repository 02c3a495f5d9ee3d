package host

import "github.com/sonroyaalmerol/rconjukebox/internal/player"

const (
	TypeChangeSong    = "changeSong"
	TypeSongPlaying   = "songPlaying"
	TypeSongFinished  = "songFinished"
	TypeSkipSong      = "skipSong"
	TypeFixMicrophone = "fixMicrophone"
)

// Message is the JSON envelope exchanged with player pages. Song is set on
// outbound changeSong. Pages may echo EntryID on playback events so a late
// report about an earlier song is ignored.
type Message struct {
	Type    string             `json:"type"`
	Song    *player.QueuedSong `json:"song,omitempty"`
	EntryID string             `json:"entryId,omitempty"`
}
