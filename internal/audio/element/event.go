package element

// Event is the sum type pushed into an EventQueue during Process and
// surfaced to the application layer by AudioEngine.Update.
type Event interface {
	isEvent()
}

// SourceDoneEvent fires when a MixerSource child's IsSourceDone becomes
// true and the child is removed.
type SourceDoneEvent struct {
	Mixer string
	Src   string
}

func (SourceDoneEvent) isEvent() {}

// EffectDoneEvent fires when a per-child Effect reports IsDone and is
// removed.
type EffectDoneEvent struct {
	Mixer  string
	Src    string
	Effect EffectKind
}

func (EffectDoneEvent) isEvent() {}

// CustomEvent carries an application-specific payload posted by an
// element outside the fixed SourceDone/EffectDone pair.
type CustomEvent struct {
	Name string
	Data any
}

func (CustomEvent) isEvent() {}
