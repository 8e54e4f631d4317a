package transcript

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	speechmodel "github.com/voxlane/callpilot/backend/internal/model/speech"
)

// Transcriber is the slice of the speech service the accumulator needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) speechmodel.TranscriptResult
}

type buffer struct {
	mu         sync.Mutex
	text       string
	lastActive time.Time
	evicted    bool
}

// Accumulator builds a running transcript per session from sequential audio
// chunks. The lifecycle is deliberately permissive: chunks and status queries
// are accepted without a prior Start, which lazily creates the buffer. Start
// is an explicit destructive reset; Stop reads without finalizing.
//
// Appends are serialized per session so overlapping chunk uploads for the
// same id cannot lose updates; different sessions never block each other.
type Accumulator struct {
	mu      sync.Mutex
	buffers map[string]*buffer

	transcriber Transcriber

	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

// New bootstraps the accumulator. A ttl of zero disables idle-buffer eviction.
func New(transcriber Transcriber, ttl time.Duration) *Accumulator {
	a := &Accumulator{
		buffers:     make(map[string]*buffer),
		transcriber: transcriber,
		ttl:         ttl,
		done:        make(chan struct{}),
	}

	if ttl > 0 {
		go a.janitor()
	}
	return a
}

func (a *Accumulator) bufferFor(sessionID string) *buffer {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[sessionID]
	if !ok {
		buf = &buffer{lastActive: time.Now()}
		a.buffers[sessionID] = buf
	}
	return buf
}

// lockedBuffer returns the session's buffer with its lock held, creating it
// lazily. The janitor can evict a buffer between the map lookup and the lock
// acquisition; retrying on the evicted marker keeps appends from landing on
// an orphaned buffer.
func (a *Accumulator) lockedBuffer(sessionID string) *buffer {
	for {
		buf := a.bufferFor(sessionID)
		buf.mu.Lock()
		if !buf.evicted {
			return buf
		}
		buf.mu.Unlock()
	}
}

// Start resets the session's transcript to empty, discarding any text
// accumulated under the same id.
func (a *Accumulator) Start(sessionID string) {
	buf := a.lockedBuffer(sessionID)
	buf.text = ""
	buf.lastActive = time.Now()
	buf.mu.Unlock()
}

// SubmitChunk transcribes one audio chunk and appends any recognized text to
// the session transcript with a single-space join. An empty or failed
// transcription leaves the buffer unchanged and returns an empty partial;
// recognition misses are expected and silent.
func (a *Accumulator) SubmitChunk(ctx context.Context, sessionID string, audio []byte, format string) string {
	// The provider call happens under the per-session lock so chunks for one
	// session are transcribed and appended strictly in submission order.
	buf := a.lockedBuffer(sessionID)
	defer buf.mu.Unlock()

	result := a.transcriber.Transcribe(ctx, &speechmodel.ASRRequest{
		SessionID: sessionID,
		Audio:     audio,
		Format:    format,
	})
	buf.lastActive = time.Now()

	if !result.Recognized || result.Text == "" {
		return ""
	}

	buf.text = strings.TrimSpace(buf.text + " " + result.Text)
	log.Printf("[stream] session=%s appended %d chars (request=%s)", sessionID, len(result.Text), result.RequestID)
	return result.Text
}

// Status returns the current transcript, empty for unknown sessions.
func (a *Accumulator) Status(sessionID string) string {
	buf := a.lockedBuffer(sessionID)
	defer buf.mu.Unlock()
	buf.lastActive = time.Now()
	return buf.text
}

// Stop returns the final transcript. The buffer is intentionally kept so late
// re-reads still work; idle eviction reclaims it eventually.
func (a *Accumulator) Stop(sessionID string) string {
	return a.Status(sessionID)
}

// Close stops the eviction janitor.
func (a *Accumulator) Close() {
	a.once.Do(func() { close(a.done) })
}

func (a *Accumulator) janitor() {
	interval := a.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			a.evictIdle(time.Now())
		}
	}
}

func (a *Accumulator) evictIdle(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, buf := range a.buffers {
		// A buffer whose lock is held is mid-operation and therefore active.
		// Waiting on it here would stall bufferFor, and with it every other
		// session, for the length of an in-flight provider call.
		if !buf.mu.TryLock() {
			continue
		}
		if now.Sub(buf.lastActive) > a.ttl {
			buf.evicted = true
			delete(a.buffers, id)
		}
		buf.mu.Unlock()
	}
}
