package app

import (
	"time"

	"gonesapu/internal/apu"
	"gonesapu/internal/bus"
	"gonesapu/internal/sink"
	"gonesapu/internal/trace"
)

// Emulator steps the bus one video frame at a time, feeding each frame's
// trace writes in before generating its samples and handing the result to
// the output backend.
type Emulator struct {
	bus     *bus.Bus
	backend sink.Backend
	meter   sink.Meter

	trace *trace.Trace
	pos   int // next trace frame
	loop  bool
	limit int // 0 means the trace length

	// Timing
	targetFrameTime time.Duration
	frameTimes      *CircularTimingBuffer
	emulationTime   time.Duration

	frameCount  uint64
	sampleCount uint64
	writeCount  uint64
	loops       int
}

// NewEmulator creates an emulator writing to backend.
func NewEmulator(b *bus.Bus, backend sink.Backend, frameRate int) *Emulator {
	return &Emulator{
		bus:             b,
		backend:         backend,
		targetFrameTime: time.Second / time.Duration(frameRate),
		frameTimes:      NewCircularTimingBuffer(120),
	}
}

// SetTrace replaces the register-write source and rewinds it.
func (e *Emulator) SetTrace(t *trace.Trace) {
	e.trace = t
	e.pos = 0
}

// SetLimit stops the emulator after frames frames; 0 plays the trace once
// (or forever when looping).
func (e *Emulator) SetLimit(frames int) {
	e.limit = frames
}

// SetLoop restarts the trace from its first frame when it ends.
func (e *Emulator) SetLoop(loop bool) {
	e.loop = loop
}

// Done reports whether there is nothing left to play.
func (e *Emulator) Done() bool {
	if e.limit > 0 {
		return e.frameCount >= uint64(e.limit)
	}
	if e.trace == nil {
		return true
	}
	return !e.loop && e.pos >= e.trace.Frames
}

// Update generates one frame.
func (e *Emulator) Update() (*apu.SampleBuffer, error) {
	start := time.Now()

	if e.trace != nil {
		if e.pos >= e.trace.Frames && e.loop && e.trace.Frames > 0 {
			e.pos = 0
			e.loops++
		}
		if e.pos < e.trace.Frames {
			e.writeCount += uint64(e.trace.Apply(e.pos, e.bus))
			e.pos++
		}
	}

	buf := e.bus.RunFrame()
	e.meter.Update(buf)
	e.frameCount++
	e.sampleCount += uint64(buf.Len())

	elapsed := time.Since(start)
	e.emulationTime += elapsed
	e.frameTimes.Add(elapsed)

	if err := e.backend.Queue(buf); err != nil {
		return buf, err
	}
	return buf, nil
}

// Reset rewinds the trace and clears the counters.
func (e *Emulator) Reset() {
	e.pos = 0
	e.frameCount = 0
	e.sampleCount = 0
	e.writeCount = 0
	e.loops = 0
	e.emulationTime = 0
	e.frameTimes.Reset()
}

// GetTargetFrameTime returns the wall-clock duration of one frame
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetAverageFrameTime returns how long generating a frame takes on average
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.frameTimes.GetAverage()
}

// GetEmulationSpeed returns generation speed relative to real time
func (e *Emulator) GetEmulationSpeed() float64 {
	avg := e.frameTimes.GetAverage()
	if avg == 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(avg)
}

// CircularTimingBuffer keeps the most recent durations for averaging
type CircularTimingBuffer struct {
	buffer   []time.Duration
	index    int
	count    int
	capacity int
}

// NewCircularTimingBuffer creates a new circular timing buffer
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add adds a duration to the buffer
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity
	if ctb.count < ctb.capacity {
		ctb.count++
	}
}

// GetAverage returns the average of the buffered durations
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	if ctb.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < ctb.count; i++ {
		total += ctb.buffer[i]
	}
	return total / time.Duration(ctb.count)
}

// GetMax returns the largest buffered duration
func (ctb *CircularTimingBuffer) GetMax() time.Duration {
	var m time.Duration
	for i := 0; i < ctb.count; i++ {
		m = max(m, ctb.buffer[i])
	}
	return m
}

// Reset clears the buffer
func (ctb *CircularTimingBuffer) Reset() {
	ctb.index = 0
	ctb.count = 0
	for i := range ctb.buffer {
		ctb.buffer[i] = 0
	}
}
