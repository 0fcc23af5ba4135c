package buildvars

import (
	"runtime/debug"
)

type Info struct {
	Version   string `json:",omitempty"`
	GitCommit string `json:",omitempty"`
	BuildDate string `json:",omitempty"`
	GoVersion string `json:",omitempty"`
	MainPath  string `json:",omitempty"`
}

func GetInfo() Info {
	result := Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
	if BuildDate != nil {
		result.BuildDate = BuildDate.UTC().String()
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		result.GoVersion = bi.GoVersion
		result.MainPath = bi.Main.Path
	}
	return result
}
