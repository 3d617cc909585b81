package camera

import (
	"context"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Mock is an in-memory Camera for controller tests. It records every call
// and can be told to fail specific operations.
type Mock struct {
	mu sync.Mutex

	Configured      bool
	Started         bool
	ControlCalls    []Controls
	StillCalls      []StillConfig
	StillPaths      []string
	ConfigureCalls  int
	LastConfigureW  int
	LastConfigureH  int
	StartCalls      int
	StopCalls       int
	Frame           []byte
	SensorW         int
	SensorH         int
	FailSetControls bool
	FailConfigure   bool
	FailStill       bool
}

func NewMock() *Mock {
	return &Mock{SensorW: 4056, SensorH: 3040, Frame: []byte{0xFF, 0xD8, 0xFF, 0xD9}}
}

var _ Camera = &Mock{}

func (m *Mock) Configure(_ context.Context, width, height int, controls Controls) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConfigureCalls++
	m.LastConfigureW = width
	m.LastConfigureH = height
	if m.FailConfigure {
		return pkgerrors.New("mock: configure failed")
	}
	m.Configured = true
	m.ControlCalls = append(m.ControlCalls, controls.Clone())
	return nil
}

func (m *Mock) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
	m.Started = true
	return nil
}

func (m *Mock) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	m.Started = false
	return nil
}

func (m *Mock) SetControls(_ context.Context, controls Controls) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSetControls {
		return pkgerrors.New("mock: set controls failed")
	}
	m.ControlCalls = append(m.ControlCalls, controls.Clone())
	return nil
}

func (m *Mock) CaptureFrame(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Frame, nil
}

func (m *Mock) SwitchModeAndCaptureToFile(_ context.Context, cfg StillConfig, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStill {
		return pkgerrors.New("mock: still capture failed")
	}
	m.StillCalls = append(m.StillCalls, StillConfig{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   cfg.Format,
		Quality:  cfg.Quality,
		Controls: cfg.Controls.Clone(),
	})
	m.StillPaths = append(m.StillPaths, path)
	return nil
}

func (m *Mock) SensorResolution() (int, int) {
	return m.SensorW, m.SensorH
}

// LastControls returns the most recent control set applied, or nil.
func (m *Mock) LastControls() Controls {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ControlCalls) == 0 {
		return nil
	}
	return m.ControlCalls[len(m.ControlCalls)-1]
}
