package element

import (
	"log/slog"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// StereoChannel selects which stereo channel(s) a StereoMaker writes a
// mono input into.
type StereoChannel int

const (
	ChannelLeft StereoChannel = iota
	ChannelRight
	ChannelBoth
)

// StereoMaker converts mono input to stereo by duplicating the mono
// channel into one or both stereo channels. Stereo input passes through
// unchanged.
type StereoMaker struct {
	base
	channel StereoChannel
}

// NewStereoMaker creates a StereoMaker writing mono input into channel.
func NewStereoMaker(name, id string, channel StereoChannel) *StereoMaker {
	s := &StereoMaker{base: newBase("StereoMaker", name, id), channel: channel}
	s.addInput(NewPort("in"), s)
	s.addOutput(NewPort("out"), s)
	return s
}

// Prepare implements Element.
func (s *StereoMaker) Prepare(loader source.Loader, params PrepareParams) bool {
	f := s.in[0].Format()
	f.Channels = 2
	s.out[0].SetFormat(f)
	return true
}

// Process implements Element.
func (s *StereoMaker) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := s.in[0]
	out := s.out[0]
	if !in.HasBuffer() || out.HasBuffer() {
		return
	}
	src := in.PullBuffer()
	defer src.Release()

	if src.Format().Channels == 2 {
		dst, err := alloc.Allocate(src.ByteSize())
		if err != nil {
			return
		}
		dst.SetFormat(src.Format())
		buffer.CopyData(src, dst)
		buffer.CopyInfoTags(src, dst)
		out.PushBuffer(dst)
		return
	}

	width := src.Format().SampleType.BytesPerSample()
	frames := src.ByteSize() / width
	dst, err := alloc.Allocate(frames * width * 2)
	if err != nil {
		return
	}
	f := src.Format()
	f.Channels = 2
	dst.SetFormat(f)

	raw := dst.Raw()
	srcBytes := src.Bytes()
	for i := 0; i < frames; i++ {
		sample := srcBytes[i*width : i*width+width]
		l := raw[i*2*width : i*2*width+width]
		r := raw[i*2*width+width : i*2*width+2*width]
		switch s.channel {
		case ChannelLeft:
			copy(l, sample)
		case ChannelRight:
			copy(r, sample)
		default:
			copy(l, sample)
			copy(r, sample)
		}
	}
	dst.SetByteSize(frames * width * 2)
	buffer.CopyInfoTags(src, dst)
	out.PushBuffer(dst)
}

// Advance implements Element.
func (s *StereoMaker) Advance(ms int) {}

// IsSource implements Element.
func (s *StereoMaker) IsSource() bool { return false }

// IsSourceDone implements Element.
func (s *StereoMaker) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (s *StereoMaker) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (s *StereoMaker) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (s *StereoMaker) HandleControl(msg string) {}

// Shutdown implements Element.
func (s *StereoMaker) Shutdown() {}

// StereoJoiner combines two mono inputs ("left", "right") into one
// stereo output. Input formats must match and be mono.
type StereoJoiner struct {
	base
	log *slog.Logger
}

// NewStereoJoiner creates a StereoJoiner.
func NewStereoJoiner(name, id string) *StereoJoiner {
	j := &StereoJoiner{base: newBase("StereoJoiner", name, id), log: slog.Default()}
	j.addInput(NewPort("left"), j)
	j.addInput(NewPort("right"), j)
	j.addOutput(NewPort("out"), j)
	return j
}

// Prepare implements Element.
func (j *StereoJoiner) Prepare(loader source.Loader, params PrepareParams) bool {
	left := j.in[0].Format()
	right := j.in[1].Format()
	if left != right || left.Channels != 1 {
		return false
	}
	out := left
	out.Channels = 2
	j.out[0].SetFormat(out)
	return true
}

// Process implements Element.
func (j *StereoJoiner) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	left := j.in[0]
	right := j.in[1]
	out := j.out[0]
	if !left.HasBuffer() || !right.HasBuffer() || out.HasBuffer() {
		return
	}

	l := left.PullBuffer()
	r := right.PullBuffer()
	defer l.Release()
	defer r.Release()

	if l.ByteSize() != r.ByteSize() {
		j.log.Warn("stereo joiner input size mismatch", "elem", j.name, "left_bytes", l.ByteSize(), "right_bytes", r.ByteSize())
		return
	}

	width := l.Format().SampleType.BytesPerSample()
	frames := l.ByteSize() / width
	dst, err := alloc.Allocate(frames * width * 2)
	if err != nil {
		return
	}
	f := l.Format()
	f.Channels = 2
	dst.SetFormat(f)

	raw := dst.Raw()
	lBytes := l.Bytes()
	rBytes := r.Bytes()
	for i := 0; i < frames; i++ {
		copy(raw[i*2*width:i*2*width+width], lBytes[i*width:i*width+width])
		copy(raw[i*2*width+width:i*2*width+2*width], rBytes[i*width:i*width+width])
	}
	dst.SetByteSize(frames * width * 2)
	buffer.CopyInfoTags(l, dst)
	buffer.CopyInfoTags(r, dst)
	out.PushBuffer(dst)
}

// Advance implements Element.
func (j *StereoJoiner) Advance(ms int) {}

// IsSource implements Element.
func (j *StereoJoiner) IsSource() bool { return false }

// IsSourceDone implements Element.
func (j *StereoJoiner) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (j *StereoJoiner) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (j *StereoJoiner) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (j *StereoJoiner) HandleControl(msg string) {}

// Shutdown implements Element.
func (j *StereoJoiner) Shutdown() {}

// StereoSplitter splits one stereo input into two mono outputs ("left",
// "right"), each half the size of the input. Tags are copied to both.
type StereoSplitter struct {
	base
}

// NewStereoSplitter creates a StereoSplitter.
func NewStereoSplitter(name, id string) *StereoSplitter {
	s := &StereoSplitter{base: newBase("StereoSplitter", name, id)}
	s.addInput(NewPort("in"), s)
	s.addOutput(NewPort("left"), s)
	s.addOutput(NewPort("right"), s)
	return s
}

// Prepare implements Element.
func (s *StereoSplitter) Prepare(loader source.Loader, params PrepareParams) bool {
	in := s.in[0].Format()
	if in.Channels != 2 {
		return false
	}
	mono := in
	mono.Channels = 1
	s.out[0].SetFormat(mono)
	s.out[1].SetFormat(mono)
	return true
}

// Process implements Element.
func (s *StereoSplitter) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := s.in[0]
	left := s.out[0]
	right := s.out[1]
	if !in.HasBuffer() || left.HasBuffer() || right.HasBuffer() {
		return
	}
	src := in.PullBuffer()
	defer src.Release()

	width := src.Format().SampleType.BytesPerSample()
	frames := src.ByteSize() / (width * 2)

	lDst, err := alloc.Allocate(frames * width)
	if err != nil {
		return
	}
	rDst, err := alloc.Allocate(frames * width)
	if err != nil {
		lDst.Release()
		return
	}
	mono := src.Format()
	mono.Channels = 1
	lDst.SetFormat(mono)
	rDst.SetFormat(mono)

	srcBytes := src.Bytes()
	lRaw := lDst.Raw()
	rRaw := rDst.Raw()
	for i := 0; i < frames; i++ {
		copy(lRaw[i*width:i*width+width], srcBytes[i*2*width:i*2*width+width])
		copy(rRaw[i*width:i*width+width], srcBytes[i*2*width+width:i*2*width+2*width])
	}
	lDst.SetByteSize(frames * width)
	rDst.SetByteSize(frames * width)
	buffer.CopyInfoTags(src, lDst)
	buffer.CopyInfoTags(src, rDst)
	left.PushBuffer(lDst)
	right.PushBuffer(rDst)
}

// Advance implements Element.
func (s *StereoSplitter) Advance(ms int) {}

// IsSource implements Element.
func (s *StereoSplitter) IsSource() bool { return false }

// IsSourceDone implements Element.
func (s *StereoSplitter) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (s *StereoSplitter) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (s *StereoSplitter) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (s *StereoSplitter) HandleControl(msg string) {}

// Shutdown implements Element.
func (s *StereoSplitter) Shutdown() {}
