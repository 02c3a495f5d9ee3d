package notifier

import (
	"context"
	"log/slog"
	"strings"
)

// Executor runs one console command over RCON.
type Executor interface {
	Execute(ctx context.Context, cmd string) (string, error)
}

type Notifier struct {
	exec Executor
}

func New(exec Executor) *Notifier {
	return &Notifier{exec: exec}
}

var unsafeChars = strings.NewReplacer(`"`, "", ";", "", "\r", "", "\n", "")

// Announce posts text to in-game chat, to the team channel when team is set.
// Failures are logged and dropped.
func (n *Notifier) Announce(ctx context.Context, text string, team bool) {
	cmd := Command(text, team)
	if _, err := n.exec.Execute(ctx, cmd); err != nil {
		slog.Warn("announce failed", "cmd", cmd, "err", err)
		return
	}
	slog.Debug("announced", "cmd", cmd)
}

// Command builds the console command for an announcement. Quotes, semicolons
// and line breaks are removed so the text stays a single say argument.
func Command(text string, team bool) string {
	verb := "say"
	if team {
		verb = "say_team"
	}
	return verb + ` "` + unsafeChars.Replace(text) + `"`
}
