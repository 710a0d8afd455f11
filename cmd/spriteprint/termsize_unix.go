//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

var kittySizeReply = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

func GetTermSize() (TermSize, error) {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666)
	if err == nil {
		// based on snippet: https://sw.kovidgoyal.net/kitty/graphics-protocol/#getting-the-window-size
		defer f.Close()
		var sz *unix.Winsize
		if sz, err = unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil {
			if sz.Xpixel == 0 && sz.Ypixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
				if w, h, ok := askKittyPixels(int(f.Fd())); ok {
					sz.Xpixel, sz.Ypixel = uint16(w), uint16(h)
				}
			}
			return TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}, nil
		}
	}
	var w, h int
	if w, h, err = term.GetSize(int(os.Stdin.Fd())); err == nil {
		return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
	}
	return TermSize{}, err
}

// askKittyPixels asks the terminal for its size in pixels with CSI 14 t. The
// reply is <ESC>[4;<height>;<width>t.
func askKittyPixels(fd int) (width, height int, ok bool) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return 0, 0, false
	}
	defer term.Restore(fd, state)

	fmt.Printf("\033[14t")
	// TODO: read the reply with a timeout; terminals that ignore CSI 14 t block here.
	reader := bufio.NewReader(os.Stdin)
	if b, err := reader.ReadByte(); err != nil || b != 033 {
		return 0, 0, false
	}
	s, err := reader.ReadString('t')
	if err != nil {
		return 0, 0, false
	}
	matches := kittySizeReply.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, 0, false
	}
	height, errH := strconv.Atoi(matches[1])
	width, errW := strconv.Atoi(matches[2])
	if errH != nil || errW != nil {
		return 0, 0, false
	}
	return width, height, true
}
