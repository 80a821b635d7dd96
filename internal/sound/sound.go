// Package sound plays alarm cues and builds the synthesized fallback tone.
package sound

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNoPlayer     = errors.New("no audio player available")
	ErrEmptySource  = errors.New("empty audio source")
	ErrUnsupported  = errors.New("unsupported audio file type")
	ErrNotPlaying   = errors.New("nothing is playing")
	ErrPickCanceled = errors.New("file pick canceled")
	ErrNoDialog     = errors.New("no file dialog available (install zenity or kdialog, or pass a path)")
)

// Source is either a file on disk or an in-memory buffer (e.g. the synthesized tone).
type Source struct {
	Path string
	Data []byte
	// Ext names the buffer's format (".wav") when Data is set.
	Ext string
}

func (s Source) empty() bool {
	return strings.TrimSpace(s.Path) == "" && len(s.Data) == 0
}

// Player is the audio channel.
type Player interface {
	Play(ctx context.Context, src Source) error
	Pause() error
	Resume() error
	Stop() error
	SetVolume(v float64)
}

// AudioExts are the file types accepted for a custom alarm.
var AudioExts = []string{".mp3", ".m4a", ".wav", ".aac"}

// ValidExt reports whether path has a supported audio extension.
func ValidExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	for _, x := range AudioExts {
		if ext == x {
			return true
		}
	}
	return false
}

// ClampVolume keeps v within [0, 1].
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const (
	ToneFreq     = 880.0
	ToneDuration = 180 * time.Millisecond
	ToneGain     = 0.06

	toneSampleRate = 44100
)

// FallbackTone is the short beep played when no custom sound is configured.
func FallbackTone() Source {
	return Source{Data: Tone(ToneFreq, ToneDuration, ToneGain), Ext: ".wav"}
}

// Tone synthesizes a mono 16-bit PCM WAV sine wave.
func Tone(freq float64, d time.Duration, gain float64) []byte {
	gain = ClampVolume(gain)
	n := int(float64(toneSampleRate) * d.Seconds())
	if n < 0 {
		n = 0
	}
	dataLen := n * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(toneSampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(toneSampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))

	for i := 0; i < n; i++ {
		v := math.Sin(2*math.Pi*freq*float64(i)/toneSampleRate) * gain
		_ = binary.Write(&buf, binary.LittleEndian, int16(v*math.MaxInt16))
	}
	return buf.Bytes()
}
