package audio

import "testing"

func TestMicrophone_SessionGetsFreshBlockChannel(t *testing.T) {
	m := &Microphone{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultSampleRate / 10,
		blocks:     make(chan []float32, 4),
	}

	// A block queued after the previous session's consumer stopped
	// reading must not be replayed to the next session.
	m.blocks <- make([]float32, m.blockSize)
	previous := m.Blocks()

	m.mu.Lock()
	session := m.beginSession()
	m.mu.Unlock()

	if m.Blocks() == previous {
		t.Fatal("new session reuses the previous block channel")
	}
	select {
	case <-m.Blocks():
		t.Fatal("stale audio visible in the new session")
	default:
	}

	// The capture loop feeds the channel handed out at session start.
	session <- make([]float32, m.blockSize)
	select {
	case block := <-m.Blocks():
		if len(block) != m.blockSize {
			t.Errorf("block length = %d, want %d", len(block), m.blockSize)
		}
	default:
		t.Fatal("session block not visible on Blocks()")
	}
}
