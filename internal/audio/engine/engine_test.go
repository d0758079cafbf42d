package engine

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/element"
	"github.com/drgolem/musictools/internal/audio/format"
)

func newTestEngine() *AudioEngine {
	cfg := DefaultConfig()
	cfg.SampleType = format.Int16
	return New(cfg, nil, nil) // headless: nil device sink
}

func TestPrepareMusicGraphSucceedsHeadless(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	if err := e.PrepareMusicGraph("play"); err != nil {
		t.Fatalf("PrepareMusicGraph: %v", err)
	}
}

func TestPlayMusicProducesUpdateOutput(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	if err := e.PrepareMusicGraph("play"); err != nil {
		t.Fatalf("PrepareMusicGraph: %v", err)
	}

	if err := e.PlayMusic(element.CreateArgs{
		Type: "ZeroSource",
		ID:   "zero_0",
		Args: map[string]any{"format": e.format},
	}, 0); err != nil {
		t.Fatalf("PlayMusic: %v", err)
	}

	if _, err := e.Update(20); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestSetDebugPauseSkipsUpdate(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	e.PrepareMusicGraph("play")
	e.SetDebugPause(true)

	events, err := e.Update(20)
	if err != nil {
		t.Fatalf("Update while paused: %v", err)
	}
	if events != nil {
		t.Errorf("Update while paused returned events %v, want nil", events)
	}
}

func TestKillMusicThenUpdateRunsCleanly(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	if err := e.PrepareMusicGraph("play"); err != nil {
		t.Fatalf("PrepareMusicGraph: %v", err)
	}

	if err := e.PlayMusic(element.CreateArgs{
		Type: "ZeroSource",
		ID:   "zero_0",
		Args: map[string]any{"format": e.format},
	}, 0); err != nil {
		t.Fatalf("PlayMusic: %v", err)
	}
	e.KillMusic("zero_0", 0)

	if _, err := e.Update(20); err != nil {
		t.Fatalf("Update after KillMusic: %v", err)
	}
}

func TestSetMusicGainDoesNotErrorSubsequentUpdate(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	if err := e.PrepareMusicGraph("play"); err != nil {
		t.Fatalf("PrepareMusicGraph: %v", err)
	}
	e.SetMusicGain(0.5)

	if _, err := e.Update(20); err != nil {
		t.Fatalf("Update after SetMusicGain: %v", err)
	}
}

func TestProbeFileMissingFileReturnsError(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	if err := e.ProbeFile("/nonexistent/path/track.mp3"); err == nil {
		t.Fatal("expected an error probing a nonexistent file")
	}
}

func TestEnableEffectsTogglesContribution(t *testing.T) {
	e := newTestEngine()
	defer e.Shutdown()
	e.PrepareMusicGraph("play")
	e.EnableEffects(false)
	if e.effects.enabled.Load() {
		t.Fatal("EnableEffects(false) did not disable the effects track")
	}
	e.EnableEffects(true)
	if !e.effects.enabled.Load() {
		t.Fatal("EnableEffects(true) did not re-enable the effects track")
	}
}
