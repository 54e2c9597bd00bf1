package voice

import (
	"fmt"
	"time"

	"layeh.com/gopus"
)

const (
	pcmSampleRate  = 48000
	pcmFrameMs     = 20
	pcmFrameSize   = pcmSampleRate * pcmFrameMs / 1000 // 960 samples per channel
	minBitrate     = 6000
	maxBitrate     = 510000
	silenceHeader0 = 0xF8
	silenceHeader1 = 0xFF
	silenceHeader2 = 0xFE
	leadingSilence = 5
)

// PCMSource yields one 20ms PCM frame (int16, interleaved) per call. It
// returns (nil, io.EOF)-equivalent via ok=false once exhausted.
type PCMSource interface {
	NextFrame() (pcm []int16, ok bool)
}

// Frame is one paced opus frame, or the terminal sentinel.
type Frame struct {
	Opus     []byte
	Finished bool
}

// Pacer turns a lazy PCM source into a paced stream of CBR opus frames:
// encode, then sleep until a monotonic 20ms deadline before yielding.
type Pacer struct {
	enc          *gopus.Encoder
	src          PCMSource
	channels     int
	outFrameSize int
	deadline     time.Time
	silenceLeft  int
}

// NewPacer configures a CBR opus encoder clamped to [6000, 510000] bps and
// wraps src with a leading-silence ramp and 20ms real-time frame pacing.
func NewPacer(src PCMSource, channels int, bitrate int) (*Pacer, error) {
	if bitrate < minBitrate {
		bitrate = minBitrate
	}
	if bitrate > maxBitrate {
		bitrate = maxBitrate
	}
	enc, err := gopus.NewEncoder(pcmSampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("voice: create opus encoder: %w", err)
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		return nil, fmt.Errorf("voice: set opus bitrate: %w", err)
	}
	return &Pacer{
		enc:          enc,
		src:          src,
		channels:     channels,
		outFrameSize: bitrate * pcmFrameMs / 8000,
		silenceLeft:  leadingSilence,
	}, nil
}

// Next blocks until the next opus frame's pacing deadline, then returns it.
// Once the PCM source is exhausted, it returns a Finished sentinel once and
// then keeps returning it.
func (p *Pacer) Next() (Frame, error) {
	if p.silenceLeft > 0 {
		p.silenceLeft--
		return p.pace(Frame{Opus: []byte{silenceHeader0, silenceHeader1, silenceHeader2}})
	}

	pcm, ok := p.src.NextFrame()
	if !ok {
		return Frame{Finished: true}, nil
	}

	opus, err := p.enc.Encode(pcm, pcmFrameSize, p.outFrameSize)
	if err != nil {
		return Frame{}, fmt.Errorf("voice: opus encode: %w", err)
	}
	if len(opus) != p.outFrameSize {
		return Frame{}, fmt.Errorf("voice: encoder produced %d bytes, want %d: %w", len(opus), p.outFrameSize, ErrFrameSize)
	}
	return p.pace(Frame{Opus: opus})
}

// pace sleeps until the next 20ms deadline, advancing it; an overrun
// clamps the deadline to now so catch-up never exceeds one frame's worth.
func (p *Pacer) pace(f Frame) (Frame, error) {
	now := time.Now()
	if p.deadline.IsZero() {
		p.deadline = now
	}
	if wait := p.deadline.Sub(now); wait > 0 {
		time.Sleep(wait)
	}
	p.deadline = p.deadline.Add(pcmFrameMs * time.Millisecond)
	if p.deadline.Before(now) {
		p.deadline = now
	}
	return f, nil
}
