package audio

import (
	"bytes"
	"testing"
)

func TestCursorFillPadsWithSilenceAndReportsExhaustion(t *testing.T) {
	cursor := NewCursor(&Clip{PCM: []byte{1, 2, 3, 4, 5}, SampleRate: 8000, Channels: 1})

	dst := make([]byte, 4)
	if exhausted := cursor.Fill(dst); exhausted {
		t.Fatalf("expected cursor not exhausted after first chunk")
	}
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Fatalf("expected first chunk [1 2 3 4], got %v", dst)
	}

	for i := range dst {
		dst[i] = 0xAA
	}
	if exhausted := cursor.Fill(dst); !exhausted {
		t.Fatalf("expected cursor exhausted after second chunk")
	}
	if !bytes.Equal(dst, []byte{5, 0, 0, 0}) {
		t.Fatalf("expected padded chunk [5 0 0 0], got %v", dst)
	}
	if got := cursor.Remaining(); got != 0 {
		t.Fatalf("expected nothing remaining, got %d", got)
	}

	if exhausted := cursor.Fill(dst); !exhausted {
		t.Fatalf("expected exhausted cursor to stay exhausted")
	}
}

func TestCursorWithoutClipIsExhausted(t *testing.T) {
	dst := []byte{9, 9}
	if exhausted := NewCursor(nil).Fill(dst); !exhausted {
		t.Fatalf("expected empty cursor to be exhausted")
	}
	if !bytes.Equal(dst, []byte{0, 0}) {
		t.Fatalf("expected silence, got %v", dst)
	}
}

func TestCursorDrainWaitsForQueuedPeriods(t *testing.T) {
	cursor := NewCursor(&Clip{PCM: []byte{1, 2, 3}, SampleRate: 8000, Channels: 1})
	dst := make([]byte, 4)

	if done := cursor.Drain(dst, 2); done {
		t.Fatalf("expected the chunk carrying the last samples not to finish playback")
	}
	if !bytes.Equal(dst, []byte{1, 2, 3, 0}) {
		t.Fatalf("expected last samples to be handed out, got %v", dst)
	}
	if done := cursor.Drain(dst, 2); done {
		t.Fatalf("expected first silent chunk not to finish playback")
	}
	if done := cursor.Drain(dst, 2); !done {
		t.Fatalf("expected playback finished after the tail")
	}
	if !bytes.Equal(dst, []byte{0, 0, 0, 0}) {
		t.Fatalf("expected silence in the tail, got %v", dst)
	}
}

func TestCursorDrainWithoutTailMatchesFill(t *testing.T) {
	cursor := NewCursor(&Clip{PCM: []byte{1, 2}, SampleRate: 8000, Channels: 1})

	if done := cursor.Drain(make([]byte, 4), 0); !done {
		t.Fatalf("expected no tail to finish with the last samples")
	}
}
