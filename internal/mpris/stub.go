//go:build !linux

package mpris

import "github.com/llehouerou/wavecast/internal/playback"

// Volume is the optional output level control.
type Volume interface {
	Volume() float64
	SetVolume(level float64)
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ playback.Service, _ Volume) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
