package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
)

// Recorder captures audio from the default microphone into a float32
// buffer and writes each finished clip to a WAV file.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32
	dir        string

	mu        sync.Mutex
	device    *malgo.Device
	buf       []float32
	recording bool
}

// NewRecorder creates a new audio recorder writing clips into dir.
// Call Close() when done.
func NewRecorder(sampleRate, channels uint32, dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating recordings dir: %w", err)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
		dir:        dir,
	}, nil
}

// Start begins capturing audio from the default microphone.
// Failure to open or start the device reports ErrDeviceUnavailable.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: already recording")
	}
	r.buf = r.buf[:0] // reset buffer but keep capacity
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: r.onData,
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("%w: initializing capture device: %v", ErrDeviceUnavailable, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("%w: starting capture device: %v", ErrDeviceUnavailable, err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// Stop ends the capture, writes the recorded samples to a WAV file and
// returns the finished Clip. Calling Stop without a prior successful
// Start reports ErrNoActiveCapture. The orchestrator guarantees at most
// one Stop per Start.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNoActiveCapture
	}

	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	samples := make([]float32, len(r.buf))
	copy(samples, r.buf)
	r.mu.Unlock()

	clip := &Clip{
		Samples:    samples,
		SampleRate: r.sampleRate,
		Duration:   durationOf(len(samples), r.sampleRate, r.channels),
	}

	if len(samples) == 0 {
		return clip, nil
	}

	path := r.clipPath()
	if err := writeWAV(path, samples, r.sampleRate, r.channels); err != nil {
		return nil, fmt.Errorf("audio: saving clip: %w", err)
	}
	clip.Path = path

	return clip, nil
}

// Elapsed returns the duration captured so far. Safe to call from any
// goroutine while recording; returns 0 when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return durationOf(len(r.buf), r.sampleRate, r.channels)
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		r.ctx.Free()
	}

	return nil
}

// Discard removes the clip's WAV file, if one was written.
// Used for clips too short to transcribe.
func (c *Clip) Discard() error {
	if c == nil || c.Path == "" {
		return nil
	}
	return os.Remove(c.Path)
}

// clipPath builds a unique file name like
// recording_20240107_153045_1a2b3c4d.wav.
func (r *Recorder) clipPath() string {
	stamp := time.Now().Format("20060102_150405")
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return filepath.Join(r.dir, fmt.Sprintf("recording_%s_%s.wav", stamp, id))
}

// onData is the malgo callback invoked when audio data is available.
// pSample contains the captured audio frames as raw bytes (float32 format).
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	sampleCount := frameCount * r.channels
	samples := bytesToFloat32(pSample, sampleCount)

	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()
}

// durationOf converts a sample count to wall time.
func durationOf(sampleCount int, sampleRate, channels uint32) time.Duration {
	if sampleRate == 0 || channels == 0 {
		return 0
	}
	frames := float64(sampleCount) / float64(channels)
	return time.Duration(frames / float64(sampleRate) * float64(time.Second))
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
