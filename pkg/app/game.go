package app

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/mras0/splay/pkg/player"
	"github.com/mras0/splay/pkg/vis"
)

const (
	screenWidth  = 1000
	screenHeight = 400

	// The spectrum pane sits top left, the waveform pane top right, with
	// the status label under the spectrum.
	visWidth     = 400
	visHeight    = 300
	waveformLeft = 500
)

var (
	backgroundColor = color.RGBA{0x10, 0x10, 0x18, 0xFF}
	traceColor      = color.RGBA{0x58, 0xC8, 0x7A, 0xFF}
	defaultFace     = text.NewGoXFace(basicfont.Face7x13)
)

// game implements the Ebitengine game loop around a playing stream. All
// synthesizer access goes through the job queue; the game only reads the
// snapshot the block tap publishes from the audio callback.
type game struct {
	app      *Application
	stream   *player.Stream
	analyzer *vis.SpectrumAnalyzer
	start    time.Time
	total    int64

	mu    sync.Mutex
	block []int16
	tick  int64
	edit  bool

	peakFreq float64
}

func runGame(app *Application, stream *player.Stream) error {
	g := &game{
		app:      app,
		stream:   stream,
		analyzer: vis.NewSpectrumAnalyzer(),
		start:    time.Now(),
		total:    app.sequencer.TotalTicks(),
	}
	stream.SetOnBlock(g.tapBlock)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("splay")
	return ebiten.RunGame(g)
}

// tapBlock runs on the audio path, where sequencer and source state is
// stable. It publishes everything Draw needs under the snapshot lock, so the
// GUI thread never touches playback state directly.
func (g *game) tapBlock(block []int16) {
	g.mu.Lock()
	g.block = append(g.block[:0], block...)
	g.tick = g.app.sequencer.CurrentTick()
	if src := g.app.synthSrc; src != nil {
		g.edit = src.EditMode()
	}
	g.mu.Unlock()
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if timeout := g.app.config.Timeout; timeout > 0 && time.Since(g.start) >= timeout {
		g.app.log.Infow("timeout reached")
		return ebiten.Termination
	}
	if g.stream.Finished() {
		return ebiten.Termination
	}

	if src := g.app.synthSrc; src != nil {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			g.app.jobs.Push(func() { src.SetEditMode(!src.EditMode()) })
		}
		for _, k := range liveKeys {
			note := liveNote(k.offset)
			if inpututil.IsKeyJustPressed(k.key) {
				g.app.jobs.Push(func() { src.Live().NoteOn(note, 127) })
			}
			if inpututil.IsKeyJustReleased(k.key) {
				g.app.jobs.Push(func() { src.Live().NoteOff(note, 0) })
			}
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.mu.Lock()
	block := append([]int16(nil), g.block...)
	tick, edit := g.tick, g.edit
	g.mu.Unlock()

	if len(block) >= 4 {
		mono := vis.MonoMix(block)
		spectrum, peak := g.analyzer.Analyze(mono)
		g.peakFreq = peak
		g.drawSpectrum(screen, vis.BestFitResample(spectrum, visWidth))
		g.drawWaveform(screen, mono)
	}

	status := g.statusText(tick, edit)
	op := &text.DrawOptions{}
	op.GeoM.Translate(10, visHeight+20)
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, status, defaultFace, op)
}

// statusText formats the label under the spectrum pane from a published
// snapshot, never from live playback state.
func (g *game) statusText(tick int64, edit bool) string {
	status := fmt.Sprintf("peak %6.0f Hz", g.peakFreq)
	if g.app.synthSrc == nil {
		return status
	}
	if edit {
		return status + "  [edit: Z-M play notes, Enter resumes]"
	}
	return fmt.Sprintf("%s  tick %d/%d", status, tick, g.total)
}

func (g *game) drawSpectrum(screen *ebiten.Image, spectrum []float64) {
	for x := 0; x < visWidth; x++ {
		samp := spectrum[x*len(spectrum)/visWidth] * 20
		if samp > 1 {
			samp = 1
		}
		h := float32(samp * (visHeight - 1))
		if h < 1 {
			continue
		}
		fx := float32(x)
		vector.StrokeLine(screen, fx, visHeight, fx, visHeight-h, 1, traceColor, false)
	}
}

func (g *game) drawWaveform(screen *ebiten.Image, mono []int16) {
	const mid = visHeight / 2
	lx, ly := float32(waveformLeft), float32(mid)
	for x := 0; x < visWidth; x++ {
		samp := float64(mono[x*len(mono)/visWidth]) / 32767.0
		fx := float32(waveformLeft + x)
		fy := float32(mid + samp*(mid-1))
		vector.StrokeLine(screen, lx, ly, fx, fy, 1, traceColor, false)
		lx, ly = fx, fy
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
