// Package version describes a gonesapu build: the source it came from and
// the audio paths it can drive.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"

	"gonesapu/internal/apu"
	"gonesapu/internal/cartridge"
	"gonesapu/internal/sink"
	"gonesapu/internal/trace"
)

// Set with -ldflags "-X gonesapu/internal/version.Version=v0.3.0".
var (
	Version = "dev"
	Commit  = ""
)

// audioModules are the dependencies reported alongside a build, in print
// order.
var audioModules = []string{
	"github.com/ebitengine/oto/v3",
	"github.com/hajimehoshi/ebiten/v2",
	"github.com/go-audio/wav",
	"github.com/hajimehoshi/go-mp3",
	"github.com/yuin/gopher-lua",
}

// Info describes one build.
type Info struct {
	Version   string            `json:"version"`
	Commit    string            `json:"commit,omitempty"`
	Modified  bool              `json:"modified,omitempty"`
	GoVersion string            `json:"go_version"`
	Target    string            `json:"target"`
	LiveAudio bool              `json:"live_audio"`
	Backends  []string          `json:"backends"`
	Regions   []string          `json:"regions"`
	Mappers   []uint8           `json:"mappers"`
	Demos     []string          `json:"demos"`
	Modules   map[string]string `json:"modules,omitempty"`
}

// Get collects the description of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Target:    runtime.GOOS + "/" + runtime.GOARCH,
		LiveAudio: sink.LiveAudio(),
		Regions:   []string{apu.NTSC.String(), apu.PAL.String()},
		Mappers:   cartridge.Mappers(),
		Demos:     trace.Names(),
	}
	for _, bt := range sink.BackendTypes() {
		info.Backends = append(info.Backends, string(bt))
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fromBuildInfo(bi)
	}
	return info
}

// fromBuildInfo fills the VCS stamp and the audio module versions. An
// ldflags commit wins over the VCS one.
func (info *Info) fromBuildInfo(bi *debug.BuildInfo) {
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if !slices.Contains(audioModules, dep.Path) {
			continue
		}
		if info.Modules == nil {
			info.Modules = make(map[string]string)
		}
		v := dep.Version
		if dep.Replace != nil {
			v = dep.Replace.Version + " (replaced)"
		}
		info.Modules[dep.Path] = v
	}
}

// Short returns the version, or dev plus the abbreviated commit.
func (info Info) Short() string {
	if info.Version != "dev" || info.Commit == "" {
		return info.Version
	}
	s := "dev-" + abbrev(info.Commit)
	if info.Modified {
		s += "+dirty"
	}
	return s
}

func abbrev(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// Print writes the -version report.
func (info Info) Print(w io.Writer) {
	fmt.Fprintf(w, "gonesapu %s (%s, %s)\n", info.Short(), info.GoVersion, info.Target)

	live := "yes"
	if !info.LiveAudio {
		live = "no (headless build)"
	}
	fmt.Fprintf(w, "  live audio: %s\n", live)
	fmt.Fprintf(w, "  backends:   %s\n", strings.Join(info.Backends, ", "))
	fmt.Fprintf(w, "  regions:    %s\n", strings.Join(info.Regions, ", "))

	mappers := make([]string, len(info.Mappers))
	for i, id := range info.Mappers {
		mappers[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(w, "  mappers:    %s\n", strings.Join(mappers, ", "))
	fmt.Fprintf(w, "  demos:      %s\n", strings.Join(info.Demos, ", "))

	for _, path := range audioModules {
		if v, ok := info.Modules[path]; ok {
			fmt.Fprintf(w, "  %s %s\n", path, v)
		}
	}
}

// PrintBuildInfo writes the report for the running binary.
func PrintBuildInfo(w io.Writer) {
	Get().Print(w)
}
