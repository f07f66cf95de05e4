// Package xserver launches and supervises the Xwayland child process:
// it owns the inherited WM socket pair, the display-ready pipe, and
// the single background goroutine that reads the child's stderr to
// log it and detect its exit.
package xserver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	xlog "xwaylandbridge/internal/log"
)

// Server supervises one Xwayland child process.
type Server struct {
	log *xlog.Logger
	cmd *exec.Cmd

	// WMConn is the bridge's end of the inherited socket pair; the
	// other end is passed to the child as -wm <fd>. The bridge reads X
	// Window Manager protocol traffic on it.
	WMConn *os.File

	displayReadR *os.File
	exited       chan error
}

// Options configures the spawned Xwayland invocation.
type Options struct {
	// DisplayName is the optional positional CLI argument naming a
	// specific X display (e.g. ":0"); empty lets Xwayland choose and
	// reports the choice back over -displayfd.
	DisplayName string

	// ListenFDs are pre-bound listening sockets inherited from the
	// environment, passed as repeated -listenfd <fd>.
	ListenFDs []int

	// WaylandDisplay names the bridge's own Wayland socket; set as
	// WAYLAND_DISPLAY in the child's environment so Xwayland connects
	// back to the bridge.
	WaylandDisplay string
}

// Launch forks Xwayland: -rootless, -wm <fd>, -displayfd <fd>,
// repeated -listenfd <fd>, -force-xrandr-emulation.
func Launch(log *xlog.Logger, opts Options) (*Server, error) {
	wmBridge, wmChild, err := socketpair()
	if err != nil {
		return nil, fmt.Errorf("xserver: create wm socketpair: %w", err)
	}

	displayReadR, displayWriteW, err := os.Pipe()
	if err != nil {
		wmBridge.Close()
		wmChild.Close()
		return nil, fmt.Errorf("xserver: create displayfd pipe: %w", err)
	}

	args := []string{"-rootless", "-force-xrandr-emulation"}
	if opts.DisplayName != "" {
		args = append([]string{opts.DisplayName}, args...)
	}

	extraFiles := []*os.File{wmChild, displayWriteW}
	// ExtraFiles starts at fd 3 in the child; -wm/-displayfd reference
	// those positions.
	args = append(args, "-wm", "3", "-displayfd", "4")
	for _, fd := range opts.ListenFDs {
		f := os.NewFile(uintptr(fd), fmt.Sprintf("listenfd-%d", fd))
		extraFiles = append(extraFiles, f)
		args = append(args, "-listenfd", strconv.Itoa(len(extraFiles)+2))
	}

	cmd := exec.Command("Xwayland", args...)
	cmd.ExtraFiles = extraFiles
	cmd.Env = append(os.Environ(), "WAYLAND_DISPLAY="+opts.WaylandDisplay)
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		wmBridge.Close()
		wmChild.Close()
		displayReadR.Close()
		displayWriteW.Close()
		return nil, fmt.Errorf("xserver: attach stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		wmBridge.Close()
		wmChild.Close()
		displayReadR.Close()
		displayWriteW.Close()
		return nil, fmt.Errorf("xserver: start Xwayland: %w", err)
	}

	// The child's ends are only needed until exec; close our copies so
	// the bridge doesn't hold the child's fds open past its exit.
	wmChild.Close()
	displayWriteW.Close()
	for _, f := range extraFiles[2:] {
		f.Close()
	}

	s := &Server{
		log:          log,
		cmd:          cmd,
		WMConn:       wmBridge,
		displayReadR: displayReadR,
		exited:       make(chan error, 1),
	}

	// The one background goroutine: it reads Xwayland's stderr to log
	// it and learns of exit via Wait. It never touches shared bridge
	// state.
	go s.watch(stderr)

	return s, nil
}

func (s *Server) watch(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		s.log.Info("Xwayland: %s", scanner.Text())
	}
	s.exited <- s.cmd.Wait()
}

// WaitReady blocks until Xwayland has written its display number (and
// a trailing newline) to -displayfd.
func (s *Server) WaitReady() (displayName string, err error) {
	reader := bufio.NewReader(s.displayReadR)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("xserver: read displayfd: %w", err)
	}
	return ":" + strings.TrimSpace(line), nil
}

// Exited returns a channel that receives the child's exit error (nil
// on clean exit) exactly once.
func (s *Server) Exited() <-chan error { return s.exited }

// Kill terminates the Xwayland child, for bridge shutdown.
func (s *Server) Kill() error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

func socketpair() (bridgeEnd, childEnd *os.File, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(fds[0]), "xwm-bridge"), os.NewFile(uintptr(fds[1]), "xwm-child"), nil
}
