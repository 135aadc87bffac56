package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicememo/dto"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

var (
	ErrNotRecording = errors.New("session is not recording")
	ErrNotPaused    = errors.New("session is not paused")
	ErrAlreadyDone  = errors.New("session already stopped")

	// ErrEmptyCapture means stopping produced no usable audio; the file is
	// discarded and no record is created.
	ErrEmptyCapture = errors.New("capture produced no audio")
)

// process is the running capture command. ffmpeg in production, a fake in
// tests.
type process interface {
	Signal(sig os.Signal) error
	Kill() error
	Wait() error
}

type startFunc func(path string) (process, error)

// Recorder creates capture sessions writing into dir.
type Recorder struct {
	dir   string
	start startFunc
}

func NewRecorder(dir string) *Recorder {
	return &Recorder{
		dir:   dir,
		start: startFFmpeg,
	}
}

// Session is one short-lived capture: idle -> recording -> (paused <->
// recording)* -> stopped. Stopping is the only transition allowed to fail.
type Session struct {
	mu        sync.Mutex
	id        string
	state     State
	proc      process
	path      string
	recorded  time.Duration
	resumedAt time.Time
}

func (r *Recorder) Begin(ctx context.Context) (*Session, error) {
	if err := os.MkdirAll(r.dir, os.ModePerm); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path := filepath.Join(r.dir, fmt.Sprintf("memo-%s.mp3", id))
	proc, err := r.start(path)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("session_id", id).Str("path", path).Msg("capture started")
	return &Session{
		id:        id,
		state:     StateRecording,
		proc:      proc,
		path:      path,
		resumedAt: time.Now(),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return ErrNotRecording
	}
	if err := s.proc.Signal(syscall.SIGSTOP); err != nil {
		return err
	}

	s.recorded += time.Since(s.resumedAt)
	s.state = StatePaused
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return ErrNotPaused
	}
	if err := s.proc.Signal(syscall.SIGCONT); err != nil {
		return err
	}

	s.resumedAt = time.Now()
	s.state = StateRecording
	return nil
}

// End stops the capture and returns the file and elapsed duration. A
// zero-length capture fails and the file is removed.
func (s *Session) End(ctx context.Context) (dto.CaptureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		s.recorded += time.Since(s.resumedAt)
	case StatePaused:
		// paused time does not count
	default:
		return dto.CaptureResult{}, ErrAlreadyDone
	}

	// Interrupt lets ffmpeg flush and finalize the file.
	if err := s.proc.Signal(os.Interrupt); err != nil {
		_ = s.proc.Kill()
	}
	_ = s.proc.Wait()
	s.state = StateStopped

	duration := int(s.recorded.Round(time.Second) / time.Second)
	info, err := os.Stat(s.path)
	if err != nil || info.Size() == 0 || duration == 0 {
		_ = os.Remove(s.path)
		return dto.CaptureResult{}, ErrEmptyCapture
	}

	zerolog.Ctx(ctx).Info().Str("session_id", s.id).Int("duration", duration).Msg("capture stopped")
	return dto.CaptureResult{
		FileURI:  s.path,
		Duration: duration,
	}, nil
}

// Cancel discards the capture without creating a record.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return ErrAlreadyDone
	}

	_ = s.proc.Kill()
	_ = s.proc.Wait()
	s.state = StateStopped

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", s.path).Msg("failed to remove discarded capture")
	}

	zerolog.Ctx(ctx).Info().Str("session_id", s.id).Msg("capture cancelled")
	return nil
}

type osProcess struct {
	cmd *exec.Cmd
}

func (p *osProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *osProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *osProcess) Wait() error {
	return p.cmd.Wait()
}

func startFFmpeg(path string) (process, error) {
	cmd := exec.Command("ffmpeg",
		"-f", "alsa", "-i", "default",
		"-codec:a", "libmp3lame", "-q:a", "2",
		path,
	)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &osProcess{cmd: cmd}, nil
}
