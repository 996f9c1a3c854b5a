package model

import (
	"sync"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// StateManager はエンコーダやスケーラの学習済み状態を保持する。
// 公開フィールドは成果物に gob で保存されるためのもの。
type StateManager struct {
	mu sync.RWMutex

	// Name は NotFittedError に載るコンポーネント名
	Name      string
	Fitted    bool
	NFeatures int
	NSamples  int
}

func NewStateManager(name string) *StateManager {
	return &StateManager{Name: name}
}

// MarkFitted records the fitted shape. nSamples is 0 when the state is
// restored from persisted parameters.
func (s *StateManager) MarkFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	s.Fitted, s.NFeatures, s.NSamples = true, nFeatures, nSamples
	s.mu.Unlock()
}

func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// GetDimensions returns the feature and sample counts seen at fit time.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted は未学習なら method 名入りの NotFittedError を返す
func (s *StateManager) RequireFitted(method string) error {
	if s.IsFitted() {
		return nil
	}
	return bkerrors.NewNotFittedError(s.Name, method)
}

// RequireFeatures は got が学習時の特徴量数と異なれば DimensionError を返す
func (s *StateManager) RequireFeatures(op string, got int) error {
	want, _ := s.GetDimensions()
	if want == got {
		return nil
	}
	return bkerrors.NewDimensionError(op, want, got, 1)
}
