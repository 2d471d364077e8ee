package player

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"

	"github.com/mras0/splay/pkg/jobqueue"
	"github.com/mras0/splay/pkg/synth"
)

var (
	// Ebiten allows only one audio context per process.
	globalAudioContext *audio.Context
	audioContextMutex  sync.Mutex
)

func audioContext() *audio.Context {
	audioContextMutex.Lock()
	defer audioContextMutex.Unlock()
	if globalAudioContext == nil {
		globalAudioContext = audio.NewContext(synth.SampleRate)
	}
	return globalAudioContext
}

// Player owns the audio device side of playback: it feeds a Stream to the
// audio context and controls start and teardown. Teardown closes the device
// player before the stream state can be dropped, so the audio callback never
// observes a torn-down source.
type Player struct {
	log    *zap.SugaredLogger
	stream *Stream
	player *audio.Player
}

func New(src Source, jobs *jobqueue.Queue, log *zap.SugaredLogger) *Player {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Player{log: log, stream: NewStream(src, jobs)}
}

// Stream returns the underlying sample stream, e.g. to attach a
// visualization tap or to drain it manually in headless mode.
func (p *Player) Stream() *Stream { return p.stream }

// Start opens the device player over the stream and begins playback. A
// previous device player is closed first.
func (p *Player) Start() error {
	if p.player != nil {
		p.Stop()
	}
	pl, err := audioContext().NewPlayer(p.stream)
	if err != nil {
		return fmt.Errorf("player: opening audio device: %w", err)
	}
	p.player = pl
	pl.Play()
	p.log.Infow("playback started", "sampleRate", synth.SampleRate)
	return nil
}

// Stop closes the device player. Safe to call repeatedly.
func (p *Player) Stop() {
	if p.player == nil {
		return
	}
	if err := p.player.Close(); err != nil {
		p.log.Warnw("closing audio player", "error", err)
	}
	p.player = nil
	p.log.Infow("playback stopped")
}

// IsPlaying reports whether the device player is open and running.
func (p *Player) IsPlaying() bool {
	return p.player != nil && p.player.IsPlaying()
}
