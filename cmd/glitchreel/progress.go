package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
)

// passBars shows one progress bar per engine pass, replacing it when the
// next pass starts.
type passBars struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	index int
}

func newPassBars(w io.Writer) *passBars {
	return &passBars{w: w, index: -1}
}

func (b *passBars) Update(pass string, index, total int, p *ffmpeg.Progress) {
	if index != b.index {
		b.Close()
		b.index = index
		b.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(fmt.Sprintf("[%d/%d] %s", index+1, total, pass)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	_ = b.bar.Set(int(p.Percentage))
}

func (b *passBars) Close() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	fmt.Fprintln(b.w)
	b.bar = nil
}
