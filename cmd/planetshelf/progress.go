package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"planetshelf/internal/shelving"
)

// progressObserver draws one bar per stage while a run is in flight.
type progressObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// newProgressObserver returns nil unless w is a terminal, so piped and
// logged runs stay free of control sequences.
func newProgressObserver(w io.Writer) shelving.Observer {
	if !isTerminal(w) {
		return nil
	}
	return &progressObserver{out: w}
}

func (p *progressObserver) StageStarted(stage shelving.Stage, total int) {
	p.finish()
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(stageLabel(stage)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) StageAdvanced(_ shelving.Stage, done int) {
	if p.bar != nil {
		_ = p.bar.Set(done)
	}
}

func (p *progressObserver) StageFinished(shelving.Stage) {
	p.finish()
}

func (p *progressObserver) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

func stageLabel(stage shelving.Stage) string {
	return cases.Title(language.Und).String(string(stage))
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
