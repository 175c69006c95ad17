// Package audio plays short generated chimes so an unattended install can be
// followed by ear
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/hashicorp/go-hclog"
)

// SampleRate of every generated cue
const SampleRate beep.SampleRate = 44100

// Note is one tone of a cue
type Note struct {
	Freq     float64
	Duration time.Duration
}

var (
	Success = []Note{{523.25, 120 * time.Millisecond}, {659.25, 120 * time.Millisecond}, {783.99, 240 * time.Millisecond}}
	Failure = []Note{{392.00, 200 * time.Millisecond}, {261.63, 400 * time.Millisecond}}
)

var (
	speakerOnce  sync.Once
	speakerReady bool
	quiet        bool
	logger       hclog.Logger = hclog.NewNullLogger()
)

// Init configures the audio package
func Init(quietMode bool, log hclog.Logger) {
	quiet = quietMode
	if log != nil {
		logger = log
	}
}

func ensureSpeakerInitialized() bool {
	speakerOnce.Do(func() {
		logger.Debug("Setting up audio...")
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			logger.Debug("audio unavailable", "error", err)
			return
		}
		speakerReady = true
	})
	return speakerReady
}

// Tone returns a sine wave of freq Hz lasting d, with short fades at both
// ends to avoid clicks
func Tone(freq float64, d time.Duration) beep.Streamer {
	total := SampleRate.N(d)
	fade := SampleRate.N(5 * time.Millisecond)
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			amp := 1.0
			if pos < fade {
				amp = float64(pos) / float64(fade)
			} else if total-pos < fade {
				amp = float64(total-pos) / float64(fade)
			}
			v := amp * math.Sin(2*math.Pi*freq*float64(pos)/float64(SampleRate))
			samples[i] = [2]float64{v, v}
			pos++
			n++
		}
		return n, true
	})
}

// Cue concatenates notes into one streamer
func Cue(notes []Note) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		streamers = append(streamers, Tone(n.Freq, n.Duration))
	}
	return beep.Seq(streamers...)
}

// Play plays notes synchronously at volumeDB (0 is unchanged). Does nothing
// in quiet mode or without an audio device.
func Play(notes []Note, volumeDB float64) {
	if quiet || len(notes) == 0 || !ensureSpeakerInitialized() {
		return
	}

	volume := &effects.Volume{
		Streamer: Cue(notes),
		Base:     2,
		Volume:   volumeDB,
		Silent:   false,
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(volume, beep.Callback(func() {
		close(done)
	})))
	<-done
}
