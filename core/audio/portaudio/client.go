package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/sunday/core/audio"
)

// inputStream is the part of a PortAudio stream used for capture.
type inputStream interface {
	Start() error
	Stop() error
	Read() error
	Close() error
}

// Client captures microphone audio through PortAudio's default input and
// plays synthesized replies on the default output.
type Client struct {
	bufferSize int
	openInput  func(in []int16) (inputStream, error)

	mu     sync.Mutex
	stream inputStream
	in     []int16
	reader *reader
}

// reader is one capture goroutine bound to the context of the attempt that
// started it.
type reader struct {
	quit    chan struct{}
	stopped chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Client{bufferSize: bufferSize, openInput: openDefaultInput}, nil
}

func openDefaultInput(in []int16) (inputStream, error) {
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, len(in), in)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// StartCapture reads the default input device on its own goroutine until
// StopCapture is called or ctx is done. A reader left from an earlier call
// is stopped first, so onAudio always receives the frames.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stopReader(); err != nil {
		log.Printf("Failed to stop previous PortAudio capture: %v", err)
	}

	if c.stream == nil {
		c.in = make([]int16, c.bufferSize)
		stream, err := c.openInput(c.in)
		if err != nil {
			return fmt.Errorf("failed to open PortAudio input stream: %w", err)
		}
		c.stream = stream
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio input stream: %w", err)
	}

	r := &reader{quit: make(chan struct{}), stopped: make(chan struct{})}
	c.reader = r
	go r.read(ctx, c.stream, c.in, onAudio)

	return nil
}

func (r *reader) read(ctx context.Context, stream inputStream, in []int16, onAudio func([]byte)) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			log.Printf("Failed to read from PortAudio stream: %v", err)
			continue
		}

		frame := make([]byte, len(in)*2)
		for i, sample := range in {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
		}
		onAudio(frame)
	}
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopReader()
}

// stopReader waits for the current reader, which may already have exited
// with its context, and stops the input stream. Callers hold c.mu.
func (c *Client) stopReader() error {
	if c.reader == nil {
		return nil
	}

	close(c.reader.quit)
	<-c.reader.stopped
	c.reader = nil

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio input stream: %w", err)
	}
	return nil
}

// Load decodes a synthesized reply into a playback handle.
func (c *Client) Load(data []byte) (audio.Playback, error) {
	clip, err := audio.DecodeMP3(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reply audio: %w", err)
	}

	return newPlayback(clip, c.bufferSize), nil
}

func (c *Client) Close() {
	_ = c.StopCapture()

	c.mu.Lock()
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.mu.Unlock()

	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
