package instance

import (
	"fmt"
	"strconv"
	"strings"
)

// DisplayOrdinal extracts the screen number from an X display string,
// for example ":0" is 0, ":1.2" is 2 and "host:0.1" is 1.
func DisplayOrdinal(display string) (int, error) {
	idx := strings.LastIndex(display, ":")
	if idx < 0 {
		return 0, fmt.Errorf("invalid display '%s': no ':' found", display)
	}
	rest := display[idx+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		if _, err := strconv.ParseUint(rest, 10, 31); err != nil {
			return 0, fmt.Errorf("invalid display number in '%s': %w", display, err)
		}
		return 0, nil
	}
	screen, err := strconv.ParseUint(rest[dot+1:], 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid screen number in '%s': %w", display, err)
	}
	return int(screen), nil
}
