package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Exit ends a command that failed with err. A request for help exits 0
// silently, since the flag set already printed usage.
func Exit(name string, err error) {
	os.Exit(report(os.Stderr, name, err))
}

func report(w io.Writer, name string, err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(w, "%s: %v\n", name, err)
		return 1
	}
}
