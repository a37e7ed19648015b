// Package buildinfo reports the commit and build date baked into the binary.
package buildinfo

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Commit may be set with -ldflags "-X tinyboard/internal/buildinfo.Commit=...".
var Commit = "dev"

// Date may be set the same way as Commit.
var Date = ""

var once sync.Once

func load() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "dev" && s.Value != "" {
					Commit = s.Value
					if len(Commit) > 7 {
						Commit = Commit[:7]
					}
				}
			case "vcs.time":
				if Date == "" && s.Value != "" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						Date = t.Format("2006-01-02")
					}
				}
			}
		}
	}
	if Commit == "dev" {
		if c, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
			Commit = strings.TrimSpace(string(c))
		}
	}
	if Date == "" {
		Date = time.Now().Format("2006-01-02")
	}
}

// String renders "commit (date)".
func String() string {
	once.Do(load)
	return Commit + " (" + Date + ")"
}
