package xpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Setenv("HOME", "/home/user")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	for _, tc := range []struct {
		in  string
		out string
	}{
		{in: "/etc/notespanel.yaml", out: "/etc/notespanel.yaml"},
		{in: "~", out: "/home/user"},
		{in: "~/.notespanel.yaml", out: filepath.Join("/home/user", ".notespanel.yaml")},
		{in: "$XDG_RUNTIME_DIR/notespanel", out: "/run/user/1000/notespanel"},
		{in: "relative/path", out: "relative/path"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			out, err := Expand(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.out, out)
		})
	}
}
