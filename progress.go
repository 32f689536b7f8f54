package main

import (
	"os"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/dotnetbio/bio-sub011/assembler"
)

// stageProgress shows one bar advanced by every finished assembly stage.
type stageProgress struct {
	pbs   *mpb.Progress
	bar   *mpb.Bar
	stage atomic.Value
}

func newStageProgress(total int) *stageProgress {
	sp := &stageProgress{pbs: mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))}
	sp.stage.Store("")
	sp.bar = sp.pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("stages: ", decor.WC{W: len("stages: "), C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string { return sp.stage.Load().(string) }, decor.WCSyncSpaceR),
			decor.Elapsed(decor.ET_STYLE_GO),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return sp
}

func (sp *stageProgress) Status(s assembler.Stage, started bool, msg string) {
	if started {
		sp.stage.Store(string(s))
		return
	}
	sp.bar.Increment()
}

// Wait completes the bar, whatever the number of stages that ran.
func (sp *stageProgress) Wait() {
	sp.bar.SetTotal(-1, true)
	sp.pbs.Wait()
}
