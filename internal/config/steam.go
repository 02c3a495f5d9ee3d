package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/andygrunwald/vdf"
)

const (
	tf2AppID   = "440"
	tf2Install = "Team Fortress 2"
)

// steamRoot is the Steam client install directory for this OS.
func steamRoot() string {
	switch runtime.GOOS {
	case "windows":
		base := getenv("ProgramFiles(x86)", `C:\Program Files (x86)`)
		return filepath.Join(base, "Steam")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "Library", "Application Support", "Steam")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".local", "share", "Steam")
	}
}

// steamGameDir finds the TF2 install across every library listed in
// <root>/steamapps/libraryfolders.vdf. A library that lists app 440 wins;
// otherwise the first library holding the game directory. With no match it
// returns the path under root itself.
func steamGameDir(root string) string {
	if root == "" {
		return ""
	}
	fallback := filepath.Join(root, "steamapps", "common", tf2Install)

	libs, err := steamLibraries(filepath.Join(root, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		slog.Debug("steam libraries unavailable", "root", root, "err", err)
		return fallback
	}

	for _, lib := range libs {
		if lib.hasApp(tf2AppID) {
			return filepath.Join(lib.path, "steamapps", "common", tf2Install)
		}
	}
	for _, lib := range libs {
		dir := filepath.Join(lib.path, "steamapps", "common", tf2Install)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir
		}
	}
	return fallback
}

type steamLibrary struct {
	path string
	apps map[string]any
}

func (l steamLibrary) hasApp(id string) bool {
	_, ok := l.apps[id]
	return ok
}

// steamLibraries reads both layouts of libraryfolders.vdf: the current one
// with a block per library ("path", "apps") and the older one mapping
// "1", "2", ... straight to a path.
func steamLibraries(vdfPath string) ([]steamLibrary, error) {
	f, err := os.Open(vdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, err
	}

	var folders map[string]any
	for k, v := range doc {
		if strings.EqualFold(k, "libraryfolders") {
			folders, _ = v.(map[string]any)
		}
	}

	keys := make([]string, 0, len(folders))
	for k := range folders {
		keys = append(keys, k)
	}
	// "10" after "9"
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})

	var libs []steamLibrary
	for _, k := range keys {
		switch v := folders[k].(type) {
		case string:
			if isDigits(k) {
				libs = append(libs, steamLibrary{path: unescapeVDF(v)})
			}
		case map[string]any:
			path, _ := v["path"].(string)
			if path == "" {
				continue
			}
			apps, _ := v["apps"].(map[string]any)
			libs = append(libs, steamLibrary{path: unescapeVDF(path), apps: apps})
		}
	}
	return libs, nil
}

func unescapeVDF(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
