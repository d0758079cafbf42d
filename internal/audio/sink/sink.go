// Package sink implements the device collaborator the audio core pulls
// finished buffers into: a thin PortAudio-backed adapter satisfying the
// engine's DeviceSink interface. Stream parameters are chosen by
// sample-format bit depth, reconfiguration on a format change is
// mutex-guarded, and a ring-buffer decouples the caller handing over
// PCM from the goroutine that actually blocks on the device.
package sink

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/drgolem/ringbuffer"

	"github.com/drgolem/musictools/internal/audio/format"
)

// ringBufferFrames sizes the outbound ring buffer as a multiple of one
// device period, giving Update's producer side headroom over the
// consumer goroutine's device-paced drain.
const ringBufferFrames = 8

// DeviceSink is the engine's view of the platform audio output: it
// accepts interleaved PCM frames in a fixed format and reports how many
// it actually consumed.
type DeviceSink interface {
	// Configure (re)opens the device for f, closing any previously open
	// stream at a different format.
	Configure(f format.Format, framesPerBuffer int) error
	// Write blocks until frames of raw interleaved PCM have been accepted
	// by the sink (or returns an error).
	Write(raw []byte, frames int) error
	Close() error
}

// PortAudioSink is a DeviceSink backed by github.com/drgolem/go-portaudio.
// Write hands PCM to an internal ring buffer; a dedicated goroutine
// drains it and performs the blocking device write, so a slow or
// briefly stalled device never backs up the engine's Update step.
type PortAudioSink struct {
	mu              sync.Mutex
	log             *slog.Logger
	deviceIndex     int
	stream          *portaudio.PaStream
	current         format.Format
	framesPerBuffer int

	rb       *ringbuffer.RingBuffer
	stopCh   chan struct{}
	doneCh   chan struct{}
	frameSz  int
	underrun uint64
}

// NewPortAudioSink creates a sink targeting deviceIndex. Configure must
// be called before the first Write.
func NewPortAudioSink(deviceIndex int, log *slog.Logger) *PortAudioSink {
	if log == nil {
		log = slog.Default()
	}
	return &PortAudioSink{deviceIndex: deviceIndex, log: log}
}

// sampleFormatFor maps a graph SampleType to the PortAudio binding's
// sample format. Only Int16/Int32 are supported here; a Float32 graph
// output is rejected, and no element in the graph converts Float32
// samples to an integer type.
func sampleFormatFor(st format.SampleType) (portaudio.PaSampleFormat, error) {
	switch st {
	case format.Int16:
		return portaudio.SampleFmtInt16, nil
	case format.Int32:
		return portaudio.SampleFmtInt32, nil
	default:
		return 0, fmt.Errorf("sink: unsupported sample type %s", st)
	}
}

// Configure implements DeviceSink.
func (s *PortAudioSink) Configure(f format.Format, framesPerBuffer int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil && s.current == f && s.framesPerBuffer == framesPerBuffer {
		return nil
	}

	sampleFormat, err := sampleFormatFor(f.SampleType)
	if err != nil {
		return err
	}

	s.stopConsumerLocked()
	if s.stream != nil {
		if err := s.stream.StopStream(); err != nil {
			s.log.Warn("failed to stop previous audio stream", "err", err)
		}
		if err := s.stream.Close(); err != nil {
			s.log.Warn("failed to close previous audio stream", "err", err)
		}
		s.stream = nil
	}

	params := portaudio.PaStreamParameters{
		DeviceIndex:  s.deviceIndex,
		ChannelCount: f.Channels,
		SampleFormat: sampleFormat,
	}
	stream, err := portaudio.NewStream(params, float64(f.SampleRate))
	if err != nil {
		return fmt.Errorf("sink: create stream: %w", err)
	}
	if err := stream.Open(framesPerBuffer); err != nil {
		return fmt.Errorf("sink: open stream: %w", err)
	}
	if err := stream.StartStream(); err != nil {
		return fmt.Errorf("sink: start stream: %w", err)
	}

	s.stream = stream
	s.current = f
	s.framesPerBuffer = framesPerBuffer
	s.frameSz = f.FrameSize()
	s.rb = ringbuffer.New(s.frameSz * framesPerBuffer * ringBufferFrames)
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.consume(stream, s.frameSz*framesPerBuffer, s.stopCh, s.doneCh)

	s.log.Info("audio sink configured", "format", f.String(), "frames_per_buffer", framesPerBuffer)
	return nil
}

// stopConsumerLocked signals the running consumer goroutine (if any) to
// exit and waits for it, so the stream it was writing to can be safely
// closed or replaced. Caller must hold s.mu.
func (s *PortAudioSink) stopConsumerLocked() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.mu.Unlock()
	<-s.doneCh
	s.mu.Lock()
	s.stopCh = nil
	s.doneCh = nil
}

// consume drains rb in periodSize chunks and blocks writing each to
// stream: a short sleep and retry on underrun rather than writing a
// partial period.
func (s *PortAudioSink) consume(stream *portaudio.PaStream, periodSize int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, periodSize)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := s.rb.Read(buf)
		if err != nil || n < periodSize {
			s.underrun++
			time.Sleep(time.Millisecond)
			continue
		}

		frames := periodSize / s.frameSz
		if err := stream.Write(frames, buf); err != nil {
			s.log.Warn("failed to write to audio stream", "err", err)
			return
		}
	}
}

// Write implements DeviceSink. It hands raw to the outbound ring buffer
// (blocking briefly if the consumer goroutine is behind) rather than
// writing to the device directly.
func (s *PortAudioSink) Write(raw []byte, frames int) error {
	s.mu.Lock()
	rb := s.rb
	s.mu.Unlock()
	if rb == nil {
		return fmt.Errorf("sink: write before configure")
	}

	need := frames * s.frameSz
	for {
		if _, err := rb.Write(raw[:need]); err == nil {
			return nil
		}
		// Ring buffer full: consumer goroutine is behind. Wait briefly
		// and retry the whole period.
		time.Sleep(time.Millisecond)
	}
}

// Close implements DeviceSink.
func (s *PortAudioSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopConsumerLocked()
	if s.stream == nil {
		return nil
	}
	if err := s.stream.StopStream(); err != nil {
		s.log.Warn("failed to stop audio stream", "err", err)
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}
