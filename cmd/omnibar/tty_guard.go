package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal.
//
// Lipgloss/Termenv background detection can emit OSC/DSR control sequences
// to stdout under some PTY capture environments, which breaks JSON parsers
// reading robot output. Robot invocations are treated as non-interactive:
// CI=1 disables termenv's TTY probing and OMNIBAR_ROBOT=1 silences loader
// warnings.
func init() {
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("OMNIBAR_ROBOT") == "1", os.Getenv("OMNIBAR_TEST_MODE") != "") {
		return
	}
	if os.Getenv("CI") == "" {
		_ = os.Setenv("CI", "1")
	}
	_ = os.Setenv("OMNIBAR_ROBOT", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "--robot-") {
			return true
		}
		switch arg {
		case "--version", "--help", "-h", "--saved", "--history":
			return true
		}
	}

	return false
}
