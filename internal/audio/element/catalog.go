package element

import (
	"fmt"

	"github.com/drgolem/musictools/internal/audio/cache"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/pool"
)

// PortDesc names one port an element's description declares.
type PortDesc struct {
	Name string
}

// Desc describes one element type's shape: its kind and declared ports.
// It does not list the argument keys Create reads. catalog is a
// static registry of the buildable element kinds used by graph
// configuration tooling (and tests) to enumerate and validate element
// types before construction.
type Desc struct {
	Kind        string
	InputPorts  []PortDesc
	OutputPorts []PortDesc
}

var catalog = map[string]Desc{
	"ZeroSource":     {Kind: "ZeroSource", OutputPorts: []PortDesc{{"out"}}},
	"SineSource":     {Kind: "SineSource", OutputPorts: []PortDesc{{"out"}}},
	"FileSource":     {Kind: "FileSource", OutputPorts: []PortDesc{{"out"}}},
	"StreamSource":   {Kind: "StreamSource", OutputPorts: []PortDesc{{"out"}}},
	"MixerSource":    {Kind: "MixerSource", OutputPorts: []PortDesc{{"out"}}},
	"Resampler":      {Kind: "Resampler", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"Effect":         {Kind: "Effect", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"Gain":           {Kind: "Gain", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"Delay":          {Kind: "Delay", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"Queue":          {Kind: "Queue", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"StereoMaker":    {Kind: "StereoMaker", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out"}}},
	"StereoJoiner":   {Kind: "StereoJoiner", InputPorts: []PortDesc{{"left"}, {"right"}}, OutputPorts: []PortDesc{{"out"}}},
	"StereoSplitter": {Kind: "StereoSplitter", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"left"}, {"right"}}},
	// Splitter, Mixer, and Playlist take a runtime port count (Create's
	// "outputs"/"inputs" argument), so their catalog entry shows the
	// default two-port shape rather than a fixed one; FindElementDesc
	// callers that need the actual count for a built instance should use
	// Element.InputPorts/OutputPorts instead.
	"Splitter": {Kind: "Splitter", InputPorts: []PortDesc{{"in"}}, OutputPorts: []PortDesc{{"out0"}, {"out1"}}},
	"Mixer":    {Kind: "Mixer", InputPorts: []PortDesc{{"in0"}, {"in1"}}, OutputPorts: []PortDesc{{"out"}}},
	"Playlist": {Kind: "Playlist", InputPorts: []PortDesc{{"in0"}, {"in1"}}, OutputPorts: []PortDesc{{"out"}}},
}

// ListAudioElements returns the registered element type names.
func ListAudioElements() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

// FindElementDesc returns the Desc registered for typ, if any.
func FindElementDesc(typ string) (Desc, bool) {
	d, ok := catalog[typ]
	return d, ok
}

// CreateArgs bundles the parameters needed to construct one element via
// Create: the catalog type name, its graph-local name/id, and a
// type-specific argument bag.
type CreateArgs struct {
	Type string
	Name string
	ID   string
	Args map[string]any
}

// Create builds a concrete Element from args, dispatching on args.Type.
// Each branch pulls its typed arguments directly out of args.Args with
// an explicit default.
func Create(args CreateArgs, c *cache.Cache, p *pool.Pool) (Element, error) {
	a := args.Args
	switch args.Type {
	case "ZeroSource":
		f := argFormat(a, "format", format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Float32})
		return NewZeroSource(args.Name, args.ID, f), nil
	case "SineSource":
		freq := argFloat(a, "frequency", 440)
		durMs := argInt(a, "duration", 0)
		f := argFormat(a, "format", format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Float32})
		return NewSineSource(args.Name, args.ID, f, freq, durMs), nil
	case "FileSource":
		file := argString(a, "file", "")
		st := argSampleType(a, "type", format.Float32)
		loops := argInt(a, "loops", 1)
		return NewFileSource(args.Name, args.ID, file, st, loops, c, p), nil
	case "StreamSource":
		data, _ := a["data"].([]byte)
		ext := argString(a, "ext", "")
		st := argSampleType(a, "type", format.Float32)
		loops := argInt(a, "loops", 1)
		return NewStreamSource(args.Name, args.ID, data, ext, st, loops), nil
	case "MixerSource":
		neverDone, _ := a["never_done"].(bool)
		return NewMixerSource(args.Name, args.ID, neverDone), nil
	case "Resampler":
		rate := argInt(a, "rate", 44100)
		return NewResampler(args.Name, args.ID, rate), nil
	case "Effect":
		kind := argEffectKind(a, "effect", FadeIn)
		t := argInt(a, "time", 0)
		dur := argInt(a, "duration", 0)
		return NewEffect(args.Name, args.ID, kind, t, dur), nil
	case "Gain":
		g := argFloat(a, "gain", 1.0)
		return NewGain(args.Name, args.ID, g), nil
	case "Delay":
		d := argInt(a, "delay", 0)
		return NewDelay(args.Name, args.ID, d), nil
	case "Queue":
		return NewQueue(args.Name, args.ID), nil
	case "StereoMaker":
		ch := argChannel(a, "channel", ChannelBoth)
		return NewStereoMaker(args.Name, args.ID, ch), nil
	case "StereoJoiner":
		return NewStereoJoiner(args.Name, args.ID), nil
	case "StereoSplitter":
		return NewStereoSplitter(args.Name, args.ID), nil
	case "Splitter":
		n := argInt(a, "outputs", 2)
		return NewSplitter(args.Name, args.ID, n), nil
	case "Mixer":
		n := argInt(a, "inputs", 2)
		return NewMixer(args.Name, args.ID, n), nil
	case "Playlist":
		n := argInt(a, "inputs", 2)
		return NewPlaylist(args.Name, args.ID, n), nil
	default:
		return nil, fmt.Errorf("element: unknown type %q", args.Type)
	}
}

func argString(a map[string]any, key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

func argInt(a map[string]any, key string, def int) int {
	if v, ok := a[key].(int); ok {
		return v
	}
	return def
}

func argFloat(a map[string]any, key string, def float64) float64 {
	if v, ok := a[key].(float64); ok {
		return v
	}
	return def
}

func argFormat(a map[string]any, key string, def format.Format) format.Format {
	if v, ok := a[key].(format.Format); ok {
		return v
	}
	return def
}

func argSampleType(a map[string]any, key string, def format.SampleType) format.SampleType {
	if v, ok := a[key].(format.SampleType); ok {
		return v
	}
	return def
}

func argEffectKind(a map[string]any, key string, def EffectKind) EffectKind {
	if v, ok := a[key].(EffectKind); ok {
		return v
	}
	return def
}

func argChannel(a map[string]any, key string, def StereoChannel) StereoChannel {
	if v, ok := a[key].(StereoChannel); ok {
		return v
	}
	return def
}
