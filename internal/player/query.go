package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/sponsorblock"
	"github.com/sonroyaalmerol/rconjukebox/internal/spotify"
	"github.com/sonroyaalmerol/rconjukebox/internal/stream"
	"github.com/sonroyaalmerol/rconjukebox/internal/utils"
)

var ErrEmptyQuery = errors.New("empty query")

// Lookup resolves chat queries to songs through yt-dlp. Spotify track links
// are translated to a YouTube search when credentials are configured.
type Lookup struct {
	cfg     *config.Config
	getInfo func(ctx context.Context, target string) (*stream.YTDLPInfo, error)
	sb      trimmer

	spOnce sync.Once
	sp     *spotify.Client
	spErr  error
}

type trimmer interface {
	Adjust(ctx context.Context, youtubeID string, lengthSec int) (offset, length int, changed bool)
}

func NewLookup(cfg *config.Config) *Lookup {
	l := &Lookup{cfg: cfg, getInfo: stream.YtdlpGetInfo}
	if cfg.EnableSponsorBlock {
		l.sb = sponsorblock.NewApplier(cfg.SponsorBlockTimeoutMin)
	}
	return l
}

func (l *Lookup) Resolve(ctx context.Context, query string) (Song, error) {
	target, err := l.target(ctx, strings.TrimSpace(query))
	if err != nil {
		return Song{}, err
	}
	info, err := l.getInfo(ctx, target)
	if err != nil {
		return Song{}, err
	}
	song := ytInfoToSong(info)
	if song.AudioURL == "" {
		return Song{}, fmt.Errorf("no usable media URL for %q", query)
	}
	l.applySponsorBlock(ctx, &song, info)
	return song, nil
}

func (l *Lookup) applySponsorBlock(ctx context.Context, song *Song, info *stream.YTDLPInfo) {
	if l.sb == nil || info.IsLive || !isYouTube(info.WebpageUrl) {
		return
	}
	offset, length, changed := l.sb.Adjust(ctx, song.ID, song.Duration)
	if !changed {
		return
	}
	if offset+length < song.Duration {
		song.EndAt = offset + length
	}
	song.Offset = offset
	song.Duration = length
	song.HumanDuration = utils.HumanDuration(length)
}

func isYouTube(u string) bool {
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}

func (l *Lookup) target(ctx context.Context, q string) (string, error) {
	if q == "" {
		return "", ErrEmptyQuery
	}

	if spotify.IsSpotify(q) {
		sp, err := l.spotifyClient()
		if err != nil {
			return "", err
		}
		typ, id, err := spotify.ParseID(q)
		if err != nil {
			return "", fmt.Errorf("invalid spotify identifier")
		}
		if typ != "track" {
			return "", fmt.Errorf("unsupported spotify type: %s", typ)
		}
		t, err := sp.GetTrack(ctx, id)
		if err != nil {
			return "", fmt.Errorf("spotify track: %w", err)
		}
		return t.SearchQuery(), nil
	}

	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
		return q, nil
	}
	return "ytsearch1:" + q, nil
}

func (l *Lookup) spotifyClient() (*spotify.Client, error) {
	l.spOnce.Do(func() {
		l.sp, l.spErr = spotify.NewClientCredentials(l.cfg.SpotifyClientID, l.cfg.SpotifyClientSecret)
	})
	return l.sp, l.spErr
}

func ytInfoToSong(info *stream.YTDLPInfo) Song {
	length := max(0, int(info.Duration))
	return Song{
		ID:            info.Id,
		Title:         info.Title,
		Channel:       info.Artist(),
		URL:           info.WebpageUrl,
		AudioURL:      stream.YtdlpAudioURL(info),
		Duration:      length,
		HumanDuration: utils.HumanDuration(length),
	}
}
