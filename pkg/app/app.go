// Package app wires the decoder, sequencer, synthesizer and player together
// and runs either the visualizer window or a headless render loop.
package app

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mras0/splay/pkg/cli"
	"github.com/mras0/splay/pkg/jobqueue"
	"github.com/mras0/splay/pkg/logger"
	"github.com/mras0/splay/pkg/player"
	"github.com/mras0/splay/pkg/seq"
	"github.com/mras0/splay/pkg/smf"
	"github.com/mras0/splay/pkg/synth"
)

// Application holds everything assembled from one command line invocation.
type Application struct {
	config    *cli.Config
	log       *zap.SugaredLogger
	sequencer *seq.Sequencer
	source    player.Source
	synthSrc  *player.SynthSource // nil when playing through a SoundFont
	jobs      *jobqueue.Queue
}

func New() *Application {
	return &Application{jobs: &jobqueue.Queue{}}
}

// Run parses args, loads the MIDI file and plays it to completion (or the
// configured timeout).
func (app *Application) Run(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	if err := app.load(); err != nil {
		return err
	}

	if app.config.Headless {
		return app.runHeadless()
	}
	return app.runWindow()
}

// load decodes the file and assembles the playback source.
func (app *Application) load() error {
	data, err := os.ReadFile(app.config.MIDIFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", app.config.MIDIFile, err)
	}

	file, err := smf.Load(bytes.NewReader(data), smf.Options{
		Lenient: app.config.Lenient,
		Log:     app.log,
	})
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", app.config.MIDIFile, err)
	}

	app.sequencer, err = seq.New(file, app.log)
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", app.config.MIDIFile, err)
	}
	app.log.Infow("MIDI file ready",
		"file", app.config.MIDIFile,
		"duration", app.sequencer.Duration().Round(time.Millisecond))

	if app.config.SoundFont != "" {
		src, err := player.NewSoundFontSource(app.config.SoundFont, data, app.sequencer.Duration(), app.log)
		if err != nil {
			return err
		}
		app.source = src
		return nil
	}

	waveform, err := synth.ParseWaveform(app.config.Waveform)
	if err != nil {
		return err
	}
	engine := synth.NewEngine(app.log)
	engine.SetWaveform(waveform)
	if err := engine.AttachTo(app.sequencer); err != nil {
		return err
	}
	app.synthSrc = player.NewSynthSource(app.sequencer, engine)
	app.synthSrc.Live().SetWaveform(waveform)
	app.source = app.synthSrc
	return nil
}

// runWindow plays through the audio device with the visualizer window.
func (app *Application) runWindow() error {
	p := player.New(app.source, app.jobs, app.log)
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	return runGame(app, p.Stream())
}

// headlessBlock is the render granularity when no audio device drives the
// stream.
const headlessBlock = 4096

// runHeadless pulls the stream directly, with no window and no audio
// device. Useful for validating files and for timing runs.
func (app *Application) runHeadless() error {
	stream := player.NewStream(app.source, app.jobs)

	buf := make([]byte, headlessBlock)
	var rendered time.Duration
	frameTime := time.Second / synth.SampleRate

	for !stream.Finished() {
		n, err := stream.Read(buf)
		if err != nil {
			break
		}
		rendered += time.Duration(n/4) * frameTime
		if app.config.Timeout > 0 && rendered >= app.config.Timeout {
			app.log.Infow("timeout reached", "rendered", rendered.Round(time.Millisecond))
			return nil
		}
	}

	app.log.Infow("playback finished", "rendered", rendered.Round(time.Millisecond))
	return nil
}
