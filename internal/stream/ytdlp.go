package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

type YTDLPFormat struct {
	Url string `json:"url"`
}

type YTDLPInfo struct {
	Id               string        `json:"id"`
	Title            string        `json:"title"`
	Channel          string        `json:"channel"`
	Uploader         string        `json:"uploader"`
	Duration         float64       `json:"duration"`
	IsLive           bool          `json:"is_live"`
	WebpageUrl       string        `json:"webpage_url"`
	Formats          []YTDLPFormat `json:"formats"`
	RequestedFormats []YTDLPFormat `json:"requested_formats"`
	Url              string        `json:"url"`
}

// Artist is the channel name, or the uploader for sites without channels.
func (i *YTDLPInfo) Artist() string {
	if i.Channel != "" {
		return i.Channel
	}
	return i.Uploader
}

var installOnce sync.Once

// helpers to safely read pointer fields with defaults
func s(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
func f(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}
func b(ptr *bool) bool {
	if ptr == nil {
		return false
	}
	return *ptr
}

func mapFormats(fs []*ytdlp.ExtractedFormat) []YTDLPFormat {
	if len(fs) == 0 {
		return nil
	}
	out := make([]YTDLPFormat, 0, len(fs))
	for _, f := range fs {
		if f == nil {
			continue
		}
		out = append(out, YTDLPFormat{Url: f.URL})
	}
	return out
}

func infoFrom(ext *ytdlp.ExtractedInfo) *YTDLPInfo {
	return &YTDLPInfo{
		Id:               ext.ID,
		Title:            s(ext.Title),
		Channel:          s(ext.Channel),
		Uploader:         s(ext.Uploader),
		Duration:         f(ext.Duration),
		IsLive:           b(ext.IsLive),
		WebpageUrl:       s(ext.WebpageURL),
		Url:              s(ext.URL),
		Formats:          mapFormats(ext.Formats),
		RequestedFormats: mapFormats(ext.RequestedFormats),
	}
}

// YtdlpGetInfo runs yt-dlp -J for a URL or a "ytsearch1:" query and returns
// the first result.
func YtdlpGetInfo(ctx context.Context, target string) (*YTDLPInfo, error) {
	installOnce.Do(func() {
		// cmd.Run surfaces a missing binary on its own
		_, _ = ytdlp.Install(ctx, nil)
	})

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoPlaylist().
		NoCheckCertificates().
		Referer("https://google.com").
		DumpJSON()

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("parse yt-dlp json: no info returned")
	}
	ext := infos[0]

	// search container: mirror the first entry
	if len(ext.Entries) > 0 {
		for _, e := range ext.Entries {
			if e != nil {
				return infoFrom(e), nil
			}
		}
		return nil, fmt.Errorf("no results for %q", target)
	}
	return infoFrom(ext), nil
}

// YtdlpAudioURL returns the best playable URL.
// Preferred order: requested_formats, top-level url, then formats[].
func YtdlpAudioURL(info *YTDLPInfo) string {
	for _, rf := range info.RequestedFormats {
		if strings.HasPrefix(rf.Url, "http") {
			return rf.Url
		}
	}
	if strings.HasPrefix(info.Url, "http") {
		return info.Url
	}
	for _, f := range info.Formats {
		if strings.HasPrefix(f.Url, "http") {
			return f.Url
		}
	}
	return ""
}
