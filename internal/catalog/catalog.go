// Package catalog holds the predefined spacetime metrics that the curvature
// engine can be asked about. Every lookup builds a fresh metric, so callers
// may keep or modify what they receive.
package catalog

import (
	"errors"
	"fmt"

	"github.com/njchilds90/gocurvature/symbolic"
)

// ErrUnknownMetric is returned by Lookup for names outside the catalog.
var ErrUnknownMetric = errors.New("catalog: unknown metric")

// Name identifies a catalog metric.
type Name string

const (
	Schwarzschild Name = "Schwarzschild"
	Kerr          Name = "Kerr"
	KerrNewman    Name = "KerrNewman"
	FLRW          Name = "FLRW"
)

// Signature records the sign convention of a metric.
type Signature int

const (
	// MostlyMinus is (+, -, -, -).
	MostlyMinus Signature = iota
	// MostlyPlus is (-, +, +, +).
	MostlyPlus
)

func (s Signature) String() string {
	if s == MostlyPlus {
		return "-+++"
	}
	return "+---"
}

// MetricTensor is a symmetric, invertible metric over named coordinates.
type MetricTensor struct {
	Name       Name
	Coords     []*symbolic.Sym
	Components *symbolic.Matrix
	Signature  Signature
	// Params lists the free constants, such as M or a.
	Params []string
}

// Dim is the number of coordinates.
func (m *MetricTensor) Dim() int { return len(m.Coords) }

// CoordNames returns the coordinate symbol names in index order.
func (m *MetricTensor) CoordNames() []string {
	out := make([]string, len(m.Coords))
	for i, c := range m.Coords {
		out[i] = c.Name()
	}
	return out
}

// Check verifies that the components form a symmetric d×d matrix.
func (m *MetricTensor) Check() error {
	d := m.Dim()
	if m.Components == nil || m.Components.Rows() != d || m.Components.Cols() != d {
		return fmt.Errorf("catalog: %s: components do not match %d coordinates", m.Name, d)
	}
	if !m.Components.IsSymmetric() {
		return fmt.Errorf("catalog: %s: metric is not symmetric", m.Name)
	}
	return nil
}

// Entry pairs a catalog name with the function that builds its metric.
type Entry struct {
	Name        Name
	Description string
	Build       func() *MetricTensor
}

var entries = []Entry{
	{Schwarzschild, "static vacuum black hole, rs = 2GM/c^2, coordinates (t, r, theta, phi)", buildSchwarzschild},
	{Kerr, "rotating vacuum black hole in Boyer-Lindquist coordinates, parameters r_s and a", buildKerr},
	{KerrNewman, "charged rotating black hole, parameters r_s, a and Q", buildKerrNewman},
	{FLRW, "homogeneous isotropic cosmology with scale factor a(t) and curvature k", buildFLRW},
}

// Entries returns the catalog in its fixed order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Names returns the catalog names in order.
func Names() []Name {
	out := make([]Name, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Lookup builds the metric registered under name. Names are case sensitive.
func Lookup(name string) (*MetricTensor, error) {
	for _, e := range entries {
		if string(e.Name) == name {
			return e.Build(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}
