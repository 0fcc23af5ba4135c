package main

import (
	"encoding/json"
	"io"

	"github.com/xaionaro-go/notespanel/pkg/buildvars"
)

func printBuildInfo(out io.Writer) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", " ")
	if err := enc.Encode(buildvars.GetInfo()); err != nil {
		panic(err)
	}
}
