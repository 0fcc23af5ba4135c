package buildvars

import (
	"strconv"
	"time"
)

// These are set with "-ldflags -X".
var (
	GitCommit       string
	Version         string
	BuildDateString string
	BuildDate       *time.Time
)

func init() {
	BuildDate = parseBuildDate(BuildDateString)
}

func parseBuildDate(s string) *time.Time {
	unixTS, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(unixTS, 0)
	return &t
}
