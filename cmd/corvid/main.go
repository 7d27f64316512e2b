package main

import (
	"os"

	"github.com/mna/corvid/internal/clirun"
	"github.com/mna/corvid/internal/diag"
	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := clirun.Cmd{
		BuildVersion: version,
		BuildDate:    buildDate,
		Log:          diag.New(logrus.InfoLevel, os.Stderr),
	}
	os.Exit(c.Main(os.Args, mainer.CurrentStdio()))
}
