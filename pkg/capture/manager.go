package capture

import (
	"context"
	"errors"
	"sync"

	"voicememo/dto"
)

var (
	ErrNoActiveCapture   = errors.New("no active capture session")
	ErrCaptureInProgress = errors.New("a capture session is already active")
)

// Manager holds the single active capture session of the process. One memo
// is recorded at a time.
type Manager struct {
	mu       sync.Mutex
	recorder *Recorder
	active   *Session
}

func NewManager(recorder *Recorder) *Manager {
	return &Manager{recorder: recorder}
}

func (m *Manager) Start(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return "", ErrCaptureInProgress
	}

	session, err := m.recorder.Begin(ctx)
	if err != nil {
		return "", err
	}

	m.active = session
	return session.ID(), nil
}

func (m *Manager) Pause(ctx context.Context) error {
	session, err := m.current()
	if err != nil {
		return err
	}
	return session.Pause()
}

func (m *Manager) Resume(ctx context.Context) error {
	session, err := m.current()
	if err != nil {
		return err
	}
	return session.Resume()
}

func (m *Manager) Stop(ctx context.Context) (dto.CaptureResult, error) {
	session, err := m.take()
	if err != nil {
		return dto.CaptureResult{}, err
	}
	return session.End(ctx)
}

func (m *Manager) Cancel(ctx context.Context) error {
	session, err := m.take()
	if err != nil {
		return err
	}
	return session.Cancel(ctx)
}

func (m *Manager) current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrNoActiveCapture
	}
	return m.active, nil
}

// take removes the active session; stopping or cancelling ends it either way.
func (m *Manager) take() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrNoActiveCapture
	}
	session := m.active
	m.active = nil
	return session, nil
}
