package voice

import "testing"

type fakePCMSource struct {
	frames [][]int16
	i      int
}

func (f *fakePCMSource) NextFrame() ([]int16, bool) {
	if f.i >= len(f.frames) {
		return nil, false
	}
	frame := f.frames[f.i]
	f.i++
	return frame, true
}

func TestPacer_LeadingSilenceFrames(t *testing.T) {
	t.Parallel()

	src := &fakePCMSource{frames: [][]int16{make([]int16, pcmFrameSize*2)}}
	p, err := NewPacer(src, 2, 64000)
	if err != nil {
		t.Fatalf("new pacer: %v", err)
	}

	for i := 0; i < leadingSilence; i++ {
		f, err := p.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		want := []byte{silenceHeader0, silenceHeader1, silenceHeader2}
		if string(f.Opus) != string(want) {
			t.Errorf("silence frame %d = %v, want %v", i, f.Opus, want)
		}
	}
}

func TestPacer_BitrateClamp(t *testing.T) {
	t.Parallel()

	src := &fakePCMSource{}
	p, err := NewPacer(src, 2, 1)
	if err != nil {
		t.Fatalf("new pacer: %v", err)
	}
	if p.outFrameSize != minBitrate*pcmFrameMs/8000 {
		t.Errorf("outFrameSize = %d, want clamp to min bitrate framing", p.outFrameSize)
	}

	p2, err := NewPacer(src, 2, 999999999)
	if err != nil {
		t.Fatalf("new pacer: %v", err)
	}
	if p2.outFrameSize != maxBitrate*pcmFrameMs/8000 {
		t.Errorf("outFrameSize = %d, want clamp to max bitrate framing", p2.outFrameSize)
	}
}

func TestPacer_FinishedSentinelAfterSourceExhausted(t *testing.T) {
	t.Parallel()

	src := &fakePCMSource{}
	p, err := NewPacer(src, 2, 64000)
	if err != nil {
		t.Fatalf("new pacer: %v", err)
	}
	for i := 0; i < leadingSilence; i++ {
		if _, err := p.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	f, err := p.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !f.Finished {
		t.Errorf("expected Finished sentinel once PCM source is exhausted")
	}
}
