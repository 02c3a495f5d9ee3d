// Package command turns raw console log lines into chat commands.
package command

import (
	"regexp"
	"strings"
)

type Kind int

const (
	None Kind = iota
	PlaySong
	VoteSkip
)

func (k Kind) String() string {
	switch k {
	case PlaySong:
		return "play"
	case VoteSkip:
		return "skip"
	default:
		return "none"
	}
}

const (
	playToken = "?play "
	skipToken = "?skip"
)

// Command is the result of parsing one log line. Actor is whatever text
// precedes the token; the log is trusted to attribute chat lines correctly.
type Command struct {
	Kind  Kind
	Query string
	Actor string
	Line  string // raw line as read from the log
}

var reDisallowed = regexp.MustCompile(`[^a-zA-Z0-9 ?:/&.=]`)

// Sanitize drops every character outside [A-Za-z0-9 ?:/&.=].
func Sanitize(line string) string {
	return reDisallowed.ReplaceAllString(line, "")
}

// Parse classifies a raw line. "?play " wins over "?skip" when both appear.
func Parse(line string) Command {
	clean := Sanitize(line)

	if before, after, ok := strings.Cut(clean, playToken); ok {
		return Command{Kind: PlaySong, Query: after, Actor: actorName(before), Line: line}
	}
	if before, _, ok := strings.Cut(clean, skipToken); ok {
		return Command{Kind: VoteSkip, Actor: actorName(before), Line: line}
	}
	return Command{Kind: None, Line: line}
}

func actorName(s string) string {
	return strings.NewReplacer(" ", "", ":", "").Replace(s)
}
