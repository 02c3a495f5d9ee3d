package player

// Song is a playable track as returned by the media lookup. It is never
// mutated after creation.
type Song struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Channel       string `json:"channel"`
	URL           string `json:"url"`              // watch page
	AudioURL      string `json:"audioUrl"`         // direct stream the host plays
	Duration      int    `json:"duration"`         // seconds that will be played
	HumanDuration string `json:"humanDuration"`
	Offset        int    `json:"offset,omitempty"` // start position, seconds
	EndAt         int    `json:"endAt,omitempty"`  // stop position, 0 plays to the end
}

// QueuedSong is one enqueue. EntryID distinguishes the same song requested
// twice.
type QueuedSong struct {
	EntryID     string `json:"entryId"`
	Song        Song   `json:"song"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

type Snapshot struct {
	Current   *QueuedSong  `json:"current"`
	Queue     []QueuedSong `json:"queue"`
	SkipVotes int          `json:"skipVotes"`
	Threshold int          `json:"threshold"`
}
