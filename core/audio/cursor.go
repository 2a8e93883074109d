package audio

import "sync"

// Cursor hands out successive chunks of a clip to a device callback.
type Cursor struct {
	mu     sync.Mutex
	pcm    []byte
	offset int
	silent int
}

func NewCursor(clip *Clip) *Cursor {
	if clip == nil {
		return &Cursor{}
	}
	return &Cursor{pcm: clip.PCM}
}

// Fill copies the next len(dst) bytes into dst and pads the remainder with
// silence. It reports whether the clip is exhausted.
func (c *Cursor) Fill(dst []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fill(dst)
}

// Drain is Fill for devices that queue periods ahead of playback: it only
// reports completion after tail chunks of silence followed the last audio,
// so queued periods are heard before the device is torn down.
func (c *Cursor) Drain(dst []byte, tail int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fill(dst) {
		return false
	}
	if c.silent >= tail {
		return true
	}
	c.silent++
	return false
}

func (c *Cursor) fill(dst []byte) bool {
	n := copy(dst, c.pcm[c.offset:])
	c.offset += n
	clear(dst[n:])

	return c.offset >= len(c.pcm)
}

func (c *Cursor) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pcm) - c.offset
}
