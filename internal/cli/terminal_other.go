//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package cli

// isTerminal always reports false; progress=auto draws no bar here.
func isTerminal(any) bool { return false }
