// Command tempo changes the tempo of 16-bit WAV files without changing
// their pitch, and provides an interactive console for the session
// administration commands.
//
// Usage:
//
//	tempo stretch --speed 1 input.wav output.wav     # 1.25x faster
//	tempo stretch --speed -2 input.wav output.wav    # half speed
//	tempo stretch --tempo 1.1 input.wav output.wav   # explicit multiplier
//	tempo console                                     # admin REPL on stdin
//
// Settings are read from a YAML file given with --config:
//
//	default-enabled: true
//	min-tempo: 0.5
//	max-tempo: 2.0
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
