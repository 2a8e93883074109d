package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/sunday/core/audio"
)

var (
	errPlaybackStopped = errors.New("playback already stopped")
	errDeviceStopped   = errors.New("playback device stopped unexpectedly")
)

// playback owns one malgo output device for the lifetime of a single clip.
type playback struct {
	audioContext *malgo.AllocatedContext
	clip         *audio.Clip
	cursor       *audio.Cursor

	mu      sync.Mutex
	device  *malgo.Device
	stopped bool

	terminal sync.Once
}

func newPlayback(audioContext *malgo.AllocatedContext, clip *audio.Clip) *playback {
	return &playback{
		audioContext: audioContext,
		clip:         clip,
		cursor:       audio.NewCursor(clip),
	}
}

func (p *playback) Play(onEnded func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return errPlaybackStopped
	} else if p.device != nil {
		return fmt.Errorf("playback already started")
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(p.clip.SampleRate)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = uint32(p.clip.Channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = config.SampleRate / 10 // ~100ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(p.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, _ uint32) {
			if p.cursor.Drain(pOutput, int(config.Periods)) {
				// The device cannot be torn down from its own callback.
				go p.finish(onEnded)
			}
		},
		Stop: func() {
			go p.finish(func() { onError(errDeviceStopped) })
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		p.stopped = true
		device.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	p.device = device
	return nil
}

func (p *playback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	device := p.device
	p.device = nil
	p.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	p.terminal.Do(func() {})

	return nil
}

func (p *playback) finish(report func()) {
	p.terminal.Do(func() {
		p.mu.Lock()
		stopped := p.stopped
		p.stopped = true
		device := p.device
		p.device = nil
		p.mu.Unlock()

		if device != nil {
			device.Uninit()
		}
		if !stopped {
			report()
		}
	})
}
