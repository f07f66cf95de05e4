// Command bridge is the rootless X11 window manager binary: it parses
// its arguments, loads configuration, starts the dual-protocol
// bridge, and runs its single cooperative poll loop until Xwayland
// exits or a signal requests shutdown.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"xwaylandbridge/internal/bridge"
	"xwaylandbridge/internal/config"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts == nil {
		// --test-listenfd-support: a feature probe, not a run.
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridge: load configuration: %s\n", err)
		os.Exit(1)
	}

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridge: %s\n", err)
		os.Exit(1)
	}

	b, err := bridge.New(cfg, log, *opts)
	if err != nil {
		log.Error("bridge: startup failed: %s", err)
		os.Exit(1)
	}
	defer b.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		b.RequestQuit()
	}()

	if err := b.Run(); err != nil {
		log.Error("bridge: %s", err)
		os.Exit(1)
	}
}

// parseArgs handles an optional positional X display name, repeated
// "-listenfd <N>" pairs, and the "--test-listenfd-support" feature
// probe. Returns (nil, nil) for the probe case, signaling main to
// exit 0 without starting the bridge.
func parseArgs(args []string) (*bridge.Options, error) {
	opts := &bridge.Options{}
	sawDisplay := false

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--test-listenfd-support":
			return nil, nil
		case "-listenfd":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("bridge: -listenfd requires an argument")
			}
			fd, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("bridge: -listenfd: %s", err)
			}
			opts.ListenFDs = append(opts.ListenFDs, fd)
		default:
			if len(arg) > 0 && arg[0] == '-' {
				return nil, fmt.Errorf("bridge: unrecognized argument %q", arg)
			}
			if sawDisplay {
				return nil, fmt.Errorf("bridge: unexpected extra argument %q", arg)
			}
			opts.DisplayName = arg
			sawDisplay = true
		}
	}
	return opts, nil
}
