package tempo

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-tempo/internal/testutil"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func newFakeProcessor(f *fakeFactory) *Processor {
	return NewProcessor(ProcessorConfig{NewEngine: f.New, Logger: discardLogger()})
}

func constant(value int16, n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = value
	}
	return s
}

func TestProcess_FirstCallCreatesState(t *testing.T) {
	p := NewProcessor(ProcessorConfig{Logger: discardLogger()})
	sess := NewSession("sess1")
	var out bytes.Buffer

	err := p.Process(sess, constant(1000, 160), &out, Params{Speed: 0, Rate: 8000, Channels: 1})
	require.NoError(t, err)

	st := sess.State()
	require.NotNil(t, st)
	assert.Equal(t, 1.0, st.Tempo())
	assert.Equal(t, 8000, st.Rate())
	assert.Equal(t, 1, st.Channels())
	assert.Equal(t, 1, st.Reconfigurations())
	assert.Zero(t, out.Len()%2, "output holds whole int16 samples")
}

func TestProcess_PassesSamplesThroughEngine(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	input := []int16{0, 1000, -1000, math.MaxInt16, math.MinInt16, 12345}
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, input, &out, Params{Rate: 8000, Channels: 1}))
	assert.Equal(t, input, Int16sFromLE(out.Bytes()))
}

func TestProcess_IngestChunksAreBounded(t *testing.T) {
	for _, channels := range []int{1, 2, 3} {
		f := &fakeFactory{}
		p := newFakeProcessor(f)
		sess := NewSession("s")
		input := testutil.SineInt16(440, 0.5, 8000, channels, 10000)
		var out bytes.Buffer

		require.NoError(t, p.Process(sess, input, &out, Params{Rate: 8000, Channels: channels}))

		e := f.last()
		total := 0
		for _, frames := range e.putFrames {
			assert.LessOrEqual(t, frames*channels, BufferSamples, "channels %d", channels)
			total += frames
		}
		assert.Equal(t, 10000, total, "channels %d", channels)
		assert.LessOrEqual(t, e.maxRequest, BufferSamples/channels, "channels %d", channels)
		assert.Equal(t, input, Int16sFromLE(out.Bytes()), "channels %d", channels)
	}
}

func TestProcess_PartialFrameCarriedToNextCall(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	params := Params{Rate: 8000, Channels: 2}
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, []int16{1, 2, 3, 4, 5}, &out, params))
	assert.Equal(t, 1, sess.State().Pending())
	assert.Equal(t, []int16{1, 2, 3, 4}, Int16sFromLE(out.Bytes()))

	require.NoError(t, p.Process(sess, []int16{6, 7, 8}, &out, params))
	assert.Zero(t, sess.State().Pending())
	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6, 7, 8}, Int16sFromLE(out.Bytes()))
}

func TestProcess_PartialFrameAcrossShortCalls(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	params := Params{Rate: 8000, Channels: 3}
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, []int16{1}, &out, params))
	require.NoError(t, p.Process(sess, []int16{2}, &out, params))
	assert.Zero(t, out.Len())
	assert.Equal(t, 2, sess.State().Pending())

	require.NoError(t, p.Process(sess, []int16{3, 4}, &out, params))
	assert.Equal(t, []int16{1, 2, 3}, Int16sFromLE(out.Bytes()))
	assert.Equal(t, 1, sess.State().Pending())
}

func TestProcess_ChannelChangeDropsPartialFrame(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, []int16{1, 2, 3}, &out, Params{Rate: 8000, Channels: 2}))
	require.Equal(t, 1, sess.State().Pending())

	out.Reset()
	require.NoError(t, p.Process(sess, []int16{7, 8}, &out, Params{Rate: 8000, Channels: 1}))
	assert.Zero(t, sess.State().Pending())
	assert.Equal(t, []int16{7, 8}, Int16sFromLE(out.Bytes()))
}

func TestProcess_ReconfiguresOncePerRateChange(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	input := constant(100, 320)
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, input, &out, Params{Rate: 8000, Channels: 2}))
	require.NoError(t, p.Process(sess, input, &out, Params{Rate: 16000, Channels: 2}))

	assert.Equal(t, 2, sess.State().Reconfigurations())
	assert.Equal(t, []int{8000, 16000}, f.last().rates)
}

func TestProcess_SameParametersDoNotReconfigure(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	for range 5 {
		require.NoError(t, p.Process(sess, constant(100, 160), &out, Params{Speed: 1, Rate: 8000, Channels: 1}))
	}
	assert.Equal(t, 1, sess.State().Reconfigurations())
	assert.Len(t, f.engines, 1)
}

func TestProcess_SpeedIsClamped(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, constant(1, 10), &out, Params{Speed: 9, Rate: 8000, Channels: 1}))
	require.NoError(t, p.Process(sess, constant(1, 10), &out, Params{Speed: 2, Rate: 8000, Channels: 1}))

	assert.Equal(t, []float64{1.5}, f.last().tempos)
}

func TestProcess_EngineCreateFailure(t *testing.T) {
	f := &fakeFactory{err: errors.New("out of memory")}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	err := p.Process(sess, constant(1, 10), &out, Params{Rate: 8000, Channels: 1})
	assert.ErrorIs(t, err, ErrEngineCreate)
	assert.Nil(t, sess.State())
	assert.Zero(t, out.Len())
}

func TestProcess_HungUpSession(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	sess.Hangup()

	err := p.Process(sess, constant(1, 10), &bytes.Buffer{}, Params{Rate: 8000, Channels: 1})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Empty(t, f.engines)
}

func TestProcess_RejectsTooManyChannels(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- p.Process(sess, make([]int16, 10000), &out, Params{Rate: 8000, Channels: 10000})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrInvalidConfig)
	case <-time.After(3 * time.Second):
		t.Fatal("Process did not return")
	}
	assert.Nil(t, sess.State(), "no state for rejected layouts")
	assert.Empty(t, f.engines)
	assert.Zero(t, out.Len())
}

func TestProcess_MaxChannelsFrameAcrossCalls(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	params := Params{Rate: 8000, Channels: MaxChannels}
	input := testutil.SineInt16(440, 0.5, 8000, 1, MaxChannels+10)
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, input[:10], &out, params))
	assert.Equal(t, 10, sess.State().Pending())
	require.NoError(t, p.Process(sess, input[10:], &out, params))

	assert.Equal(t, []int{1}, f.last().putFrames, "only the completed frame reaches the engine")
	assert.Equal(t, 10, sess.State().Pending())
	assert.Equal(t, input[:MaxChannels], Int16sFromLE(out.Bytes()))
}

func TestProcess_WriteError(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	boom := errors.New("disk full")

	err := p.Process(sess, constant(1, 10), failingWriter{boom}, Params{Rate: 8000, Channels: 1})
	assert.ErrorIs(t, err, boom)
}

func TestProcess_OutputContinuousAcrossCalls(t *testing.T) {
	const rate = 8000
	input := testutil.SineInt16(440, 0.5, rate, 1, rate)
	params := Params{Speed: 1, Rate: rate, Channels: 1}
	p := NewProcessor(ProcessorConfig{Logger: discardLogger()})

	var whole bytes.Buffer
	require.NoError(t, p.Process(NewSession("whole"), input, &whole, params))

	var chunked bytes.Buffer
	sess := NewSession("chunked")
	for pos := 0; pos < len(input); pos += 160 {
		require.NoError(t, p.Process(sess, input[pos:pos+160], &chunked, params))
	}

	n := min(whole.Len(), chunked.Len())
	require.Positive(t, n)
	assert.Equal(t, whole.Bytes()[:n], chunked.Bytes()[:n])
	assert.Equal(t, 1, sess.State().Reconfigurations())
}

func TestFlush_OutputLengthFollowsTempo(t *testing.T) {
	const rate = 8000
	input := testutil.SineInt16(440, 0.5, rate, 1, 2*rate)
	p := NewProcessor(ProcessorConfig{Logger: discardLogger()})

	for _, speed := range []int{-2, 0, 2} {
		sess := NewSession("s")
		var out bytes.Buffer
		params := Params{Speed: speed, Rate: rate, Channels: 1}

		for pos := 0; pos < len(input); pos += 160 {
			require.NoError(t, p.Process(sess, input[pos:pos+160], &out, params))
		}
		require.NoError(t, p.Flush(sess, &out))

		expected := math.Round(float64(len(input)) / Multiplier(speed))
		assert.InDelta(t, expected, float64(out.Len()/2), 2, "speed %d", speed)
	}
}

func TestFlush_PreservesPitch(t *testing.T) {
	const (
		rate = 8000
		freq = 440.0
	)
	input := testutil.SineInt16(freq, 0.5, rate, 1, 3*rate)
	p := NewProcessor(ProcessorConfig{Logger: discardLogger()})
	sess := NewSession("s")
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, input, &out, Params{Speed: 2, Rate: rate, Channels: 1}))
	require.NoError(t, p.Flush(sess, &out))

	samples := Int16sFromLE(out.Bytes())
	require.Greater(t, len(samples), rate)
	stretched := testutil.Channel(samples[rate/4:], 1, 0)
	got := testutil.DominantFrequency(stretched, rate)
	testutil.AssertRelativeError(t, freq, got, testutil.FrequencyTolerance)

	level := testutil.RMS(stretched) / testutil.RMS(testutil.Channel(input, 1, 0))
	testutil.AssertInRange(t, level, 0.8, 1.1)
}

func TestFlush_WithoutState(t *testing.T) {
	p := NewProcessor(ProcessorConfig{Logger: discardLogger()})
	var out bytes.Buffer

	require.NoError(t, p.Flush(NewSession("s"), &out))
	assert.Zero(t, out.Len())
}

func TestFlush_DiscardsPartialFrame(t *testing.T) {
	f := &fakeFactory{}
	p := newFakeProcessor(f)
	sess := NewSession("s")
	var out bytes.Buffer

	require.NoError(t, p.Process(sess, []int16{1, 2, 3}, &out, Params{Rate: 8000, Channels: 2}))
	require.NoError(t, p.Flush(sess, &out))

	assert.Zero(t, sess.State().Pending())
	assert.Equal(t, 1, f.last().flushes)
	assert.Equal(t, []int16{1, 2}, Int16sFromLE(out.Bytes()))
}
