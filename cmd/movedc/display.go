package main

import (
	"io"

	"github.com/pterm/pterm"
)

var (
	successStyle = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnStyle    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorStyle   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// display prints tagged status lines. Status goes to w so that listings
// written to stdout stay clean.
type display struct {
	w     io.Writer
	quiet bool
}

func (d *display) line(style *pterm.Style, color pterm.Color, tag, msg string) {
	pterm.Fprint(d.w, style.Sprint(tag), color.Sprint(" "+msg), "\n")
}

func (d *display) fail(tag string, err error) {
	d.line(errorStyle, pterm.FgRed, tag, err.Error())
}

func (d *display) warn(tag, msg string) {
	d.line(warnStyle, pterm.FgYellow, tag, msg)
}

func (d *display) info(tag, msg string) {
	if d.quiet {
		return
	}
	d.line(successStyle, pterm.FgLightGreen, tag, msg)
}
