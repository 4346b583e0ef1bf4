// SPDX-License-Identifier: MIT

package chem

import "fmt"

// Deviation is an allowed mass error: a relative ppm part with an absolute
// floor. The window around a mass is max(ppm*mass/1e6, abs).
type Deviation struct {
	Ppm float64
	Abs float64
}

// AbsoluteFor returns the absolute tolerance at the given mass.
func (d Deviation) AbsoluteFor(mass float64) float64 {
	ppm := d.Ppm * mass * 1e-6
	if ppm > d.Abs {
		return ppm
	}
	return d.Abs
}

// InWindow reports whether mz lies within the tolerance window around center.
func (d Deviation) InWindow(center, mz float64) bool {
	diff := center - mz
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.AbsoluteFor(center)
}

// Multiply scales both the ppm part and the absolute floor.
func (d Deviation) Multiply(x float64) Deviation {
	return Deviation{Ppm: d.Ppm * x, Abs: d.Abs * x}
}

// Divide scales both parts down.
func (d Deviation) Divide(x float64) Deviation {
	return Deviation{Ppm: d.Ppm / x, Abs: d.Abs / x}
}

func (d Deviation) String() string {
	return fmt.Sprintf("%g ppm (%g)", d.Ppm, d.Abs)
}
