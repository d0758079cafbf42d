package element

import (
	"bytes"
	"log/slog"

	soxr "github.com/zaf/resample"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Resampler converts Float32 PCM from its input rate to a configured
// output rate using a sinc-based resampler (github.com/zaf/resample),
// run one step at a time instead of over a whole file offline.
//
// Known limitation, kept deliberately: a fresh resampler instance runs
// each step so no internal filter state or unconsumed input carries
// across steps. Any input frames the library does not fully drain into
// output during the step are discarded rather than held for the next
// step, which can glitch at non-integer rate ratios.
type Resampler struct {
	base
	outRate  int
	channels int
	log      *slog.Logger
}

// NewResampler creates a Resampler targeting outRate.
func NewResampler(name, id string, outRate int) *Resampler {
	r := &Resampler{base: newBase("Resampler", name, id), outRate: outRate, log: slog.Default()}
	r.addInput(NewPort("in"), r)
	r.addOutput(NewPort("out"), r)
	return r
}

// Prepare implements Element. The input format must be Float32.
func (r *Resampler) Prepare(loader source.Loader, params PrepareParams) bool {
	in := r.in[0].Format()
	if in.SampleType != format.Float32 {
		return false
	}
	r.channels = in.Channels
	r.out[0].SetFormat(format.Format{SampleRate: r.outRate, Channels: in.Channels, SampleType: format.Float32})
	return true
}

// Process implements Element.
func (r *Resampler) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := r.in[0]
	out := r.out[0]
	if !in.HasBuffer() || out.HasBuffer() {
		return
	}
	src := in.PullBuffer()
	defer src.Release()

	inFormat := src.Format()
	frameSize := 4 * r.channels
	inputFrames := src.ByteSize() / frameSize

	var sink bytes.Buffer
	resampler, err := soxr.New(&sink, float64(inFormat.SampleRate), float64(r.outRate), r.channels, soxr.F32, soxr.HighQ)
	if err != nil {
		r.log.Error("resampler create failed", "elem", r.name, "err", err)
		return
	}
	if _, err := resampler.Write(src.Bytes()); err != nil {
		r.log.Error("resampler write failed", "elem", r.name, "err", err)
		resampler.Close()
		return
	}
	if err := resampler.Close(); err != nil {
		r.log.Error("resampler close failed", "elem", r.name, "err", err)
		return
	}

	outBytes := sink.Bytes()
	wantFrames := r.outRate / 1000 * ms
	gotFrames := len(outBytes) / frameSize
	if gotFrames > wantFrames {
		outBytes = outBytes[:wantFrames*frameSize]
		gotFrames = wantFrames
	}
	if gotFrames < inputFrames {
		r.log.Warn("resampler discarding unconsumed input frames", "elem", r.name, "input_frames", inputFrames, "output_frames", gotFrames)
	}

	dst, err := alloc.Allocate(len(outBytes))
	if err != nil {
		return
	}
	dst.SetFormat(format.Format{SampleRate: r.outRate, Channels: r.channels, SampleType: format.Float32})
	copy(dst.Raw(), outBytes)
	dst.SetByteSize(len(outBytes))
	buffer.CopyInfoTags(src, dst)
	out.PushBuffer(dst)
}

// Advance implements Element.
func (r *Resampler) Advance(ms int) {}

// IsSource implements Element.
func (r *Resampler) IsSource() bool { return false }

// IsSourceDone implements Element.
func (r *Resampler) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (r *Resampler) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (r *Resampler) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (r *Resampler) HandleControl(msg string) {}

// Shutdown implements Element.
func (r *Resampler) Shutdown() {}
