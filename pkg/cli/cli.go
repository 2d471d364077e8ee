// Package cli parses command line arguments and environment fallbacks.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings parsed from the command line.
type Config struct {
	MIDIFile  string        // path to the MIDI file to play
	SoundFont string        // optional .sf2 file; empty uses the built-in synthesizer
	Waveform  string        // oscillator shape for the built-in synthesizer
	Lenient   bool          // skip unsupported system events instead of failing
	Timeout   time.Duration // stop playback after this long (0 is unlimited)
	LogLevel  string        // debug, info, warn or error
	Headless  bool          // render without a window or audio device
	ShowHelp  bool
}

// ParseArgs parses args into a Config. Flags may appear before or after the
// positional MIDI file path.
func ParseArgs(args []string) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("splay", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "stop after this many seconds")
	fs.IntVar(&timeoutSec, "t", 0, "stop after this many seconds (shorthand)")
	fs.StringVar(&config.SoundFont, "soundfont", "", "render through a SoundFont (.sf2) file")
	fs.StringVar(&config.Waveform, "waveform", "sawtooth", "oscillator shape: sine, square, triangle, sawtooth")
	fs.BoolVar(&config.Lenient, "lenient", false, "skip unsupported system events instead of failing")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.Headless, "headless", false, "run without a window or audio device")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment fallbacks; command line flags win.
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.MIDIFile = fs.Arg(0)
	}
	if config.MIDIFile == "" && !config.ShowHelp {
		return nil, fmt.Errorf("no MIDI file given")
	}

	return config, nil
}

// reorderArgs moves flags in front of positional arguments so the standard
// flag package accepts either order.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// A value may follow (as in "-t 5"), except after boolean flags.
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				switch strings.TrimLeft(arg, "-") {
				case "h", "help", "headless", "lenient":
				default:
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the usage message to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `splay - MIDI file synthesizer

Usage:
  splay [options] <midi-file>

Arguments:
  midi-file     Standard MIDI File (format 1) to play

Options:
  --soundfont <file.sf2>      render through a SoundFont instead of the
                              built-in synthesizer
  --waveform <shape>          oscillator shape: sine, square, triangle,
                              sawtooth (default: sawtooth)
  --lenient                   skip unsupported system events instead of
                              rejecting the file
  -t, --timeout <seconds>     stop playback after this long (default: play
                              to the end)
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --headless                  render without a window or audio device
  -h, --help                  show this help

Environment Variables:
  HEADLESS=1                  enable headless mode
  TIMEOUT=<seconds>           playback timeout
  LOG_LEVEL=<level>           log level

Examples:
  splay song.mid                      play with the built-in synthesizer
  splay --waveform square song.mid    square wave voices
  splay --soundfont gm.sf2 song.mid   SoundFont rendering
  splay --headless -t 10 song.mid     decode and render 10 seconds, no audio
`)
}
