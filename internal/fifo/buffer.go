// Package fifo implements the interleaved sample FIFO used between the tempo
// engine's stages.
//
// Unlike a ring buffer, the readable region is always one contiguous slice,
// which lets the overlap search correlate directly against buffered input.
// Consumed space at the front is reclaimed lazily on the next write.
package fifo

// Buffer is a first-in first-out store of interleaved float32 frames.
// A frame holds one sample per channel.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	data     []float32
	begin    int // first readable sample
	end      int // one past the last readable sample
	channels int
}

// New creates a buffer for the given channel count with room for at least
// capacityFrames frames before it has to grow.
func New(channels, capacityFrames int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	if capacityFrames < minCapacityFrames {
		capacityFrames = minCapacityFrames
	}

	return &Buffer{
		data:     make([]float32, capacityFrames*channels),
		channels: channels,
	}
}

// Channels returns the number of interleaved channels.
func (b *Buffer) Channels() int {
	return b.channels
}

// SetChannels changes the channel count. Buffered samples are discarded
// because their frame alignment no longer holds.
func (b *Buffer) SetChannels(channels int) {
	if channels < 1 {
		channels = 1
	}
	if channels == b.channels {
		return
	}
	b.channels = channels
	b.Clear()
}

// Frames returns the number of buffered frames.
func (b *Buffer) Frames() int {
	return (b.end - b.begin) / b.channels
}

// Put appends the first frames frames of samples.
// If samples holds fewer than frames*channels values, only whole frames
// present in samples are appended.
func (b *Buffer) Put(samples []float32, frames int) {
	n := min(frames*b.channels, len(samples))
	n -= n % b.channels
	if n <= 0 {
		return
	}
	b.reserve(n)
	copy(b.data[b.end:], samples[:n])
	b.end += n
}

// PutZeros appends frames frames of silence.
func (b *Buffer) PutZeros(frames int) {
	n := frames * b.channels
	if n <= 0 {
		return
	}
	b.reserve(n)
	clear(b.data[b.end : b.end+n])
	b.end += n
}

// Samples returns the readable region as one contiguous slice.
// The slice aliases internal storage and is only valid until the next
// call that modifies the buffer.
func (b *Buffer) Samples() []float32 {
	return b.data[b.begin:b.end]
}

// Skip drops up to frames frames from the front and returns how many were
// dropped.
func (b *Buffer) Skip(frames int) int {
	frames = max(0, min(frames, b.Frames()))
	b.begin += frames * b.channels
	if b.begin == b.end {
		b.begin, b.end = 0, 0
	}
	return frames
}

// Receive copies up to maxFrames frames into dst, removes them from the
// buffer and returns the number of frames copied. The copy is also limited
// by the capacity of dst in whole frames.
func (b *Buffer) Receive(dst []float32, maxFrames int) int {
	frames := min(maxFrames, b.Frames(), len(dst)/b.channels)
	if frames <= 0 {
		return 0
	}
	copy(dst, b.data[b.begin:b.begin+frames*b.channels])
	return b.Skip(frames)
}

// DropTail removes up to frames frames from the back and returns how many
// were removed.
func (b *Buffer) DropTail(frames int) int {
	frames = max(0, min(frames, b.Frames()))
	b.end -= frames * b.channels
	if b.begin == b.end {
		b.begin, b.end = 0, 0
	}
	return frames
}

// Clear removes all samples from the buffer.
func (b *Buffer) Clear() {
	b.begin = 0
	b.end = 0
}

// Capacity returns the current storage size in frames.
func (b *Buffer) Capacity() int {
	return len(b.data) / b.channels
}

// reserve makes room for n more samples after end, first by compacting the
// consumed front and then by growing.
func (b *Buffer) reserve(n int) {
	if b.end+n <= len(b.data) {
		return
	}

	size := b.end - b.begin
	if size+n <= len(b.data) {
		copy(b.data, b.data[b.begin:b.end])
		b.begin, b.end = 0, size
		return
	}

	// Double until sufficient
	newCapacity := max(len(b.data), minCapacityFrames*b.channels)
	for newCapacity < size+n {
		newCapacity *= growthFactor
	}

	newData := make([]float32, newCapacity)
	copy(newData, b.data[b.begin:b.end])
	b.data = newData
	b.begin, b.end = 0, size
}
