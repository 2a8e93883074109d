package portaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/sunday/core/audio"
)

var errPlaybackStopped = errors.New("playback already stopped")

// playback pumps one clip into its own output stream.
type playback struct {
	clip            *audio.Clip
	cursor          *audio.Cursor
	framesPerBuffer int

	mu      sync.Mutex
	stream  *portaudio.Stream
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	terminal sync.Once
}

func newPlayback(clip *audio.Clip, framesPerBuffer int) *playback {
	return &playback{
		clip:            clip,
		cursor:          audio.NewCursor(clip),
		framesPerBuffer: framesPerBuffer,
	}
}

func (p *playback) Play(onEnded func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return errPlaybackStopped
	} else if p.stream != nil {
		return fmt.Errorf("playback already started")
	}

	out := make([]int16, p.framesPerBuffer*p.clip.Channels)
	stream, err := portaudio.OpenDefaultStream(0, p.clip.Channels, float64(p.clip.SampleRate), p.framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start PortAudio output stream: %w", err)
	}

	p.stream = stream
	p.quit = make(chan struct{})
	p.done = make(chan struct{})
	go p.pump(stream, out, onEnded, onError)

	return nil
}

func (p *playback) pump(stream *portaudio.Stream, out []int16, onEnded func(), onError func(error)) {
	defer close(p.done)

	chunk := make([]byte, len(out)*2)
	for {
		select {
		case <-p.quit:
			return
		default:
		}

		exhausted := p.cursor.Fill(chunk)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
		}

		if err := stream.Write(); err != nil {
			go p.finish(func() { onError(fmt.Errorf("failed to write to PortAudio stream: %w", err)) })
			return
		}
		if exhausted {
			go p.finish(onEnded)
			return
		}
	}
}

func (p *playback) Stop() error {
	p.mu.Lock()
	alreadyStopped := p.stopped
	p.stopped = true
	p.mu.Unlock()

	p.terminal.Do(func() {})
	if alreadyStopped {
		return nil
	}

	return p.release()
}

func (p *playback) finish(report func()) {
	p.terminal.Do(func() {
		p.mu.Lock()
		stopped := p.stopped
		p.stopped = true
		p.mu.Unlock()

		if err := p.release(); err != nil {
			log.Printf("Failed to release PortAudio output stream: %v", err)
		}
		if !stopped {
			report()
		}
	})
}

func (p *playback) release() error {
	p.mu.Lock()
	stream, quit, done := p.stream, p.quit, p.done
	p.stream, p.quit = nil, nil
	p.mu.Unlock()

	if stream == nil {
		return nil
	}

	close(quit)
	<-done

	var errs error
	if err := stream.Stop(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := stream.Close(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}
