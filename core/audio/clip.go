package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyClip is returned when there is no audio to decode.
var ErrEmptyClip = errors.New("empty audio clip")

// Clip is decoded interleaved linear16 PCM ready to be handed to an output
// device.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// BytesPerFrame is the size of one interleaved sample frame.
func (c *Clip) BytesPerFrame() int {
	return c.Channels * EncodingLinear16.ByteSize()
}

func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.PCM) / c.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// DecodeMP3 decodes an MPEG audio reply, as returned by the synthesis
// endpoint, into stereo linear16 PCM.
func DecodeMP3(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, ErrEmptyClip
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}
	if len(pcm) == 0 {
		return nil, ErrEmptyClip
	}

	// go-mp3 always produces 16-bit little endian stereo.
	return &Clip{PCM: pcm, SampleRate: decoder.SampleRate(), Channels: 2}, nil
}
