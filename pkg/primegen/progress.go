package primegen

import "math"

// ProgressReceiver receives progress events from a prime-generation
// run. Implementations declare phases up front via AddLinear/
// AddProbabilistic, then receive Report*/ReportAttempt/
// ReportPhaseComplete calls during the run.
type ProgressReceiver interface {
	AddLinear(costPerUnit float64, units int) Phase
	AddProbabilistic(costPerAttempt, successProbability float64) Phase
	Ready()
	StartPhase(p Phase)
	ReportAttempt()
	ReportProgress(units int)
	ReportPhaseComplete()
}

// Phase identifies a declared progress phase.
type Phase struct{ n int }

// NullProgress is a no-op ProgressReceiver, the default when the caller
// doesn't need progress feedback.
type NullProgress struct{}

func (NullProgress) AddLinear(float64, int) Phase            { return Phase{} }
func (NullProgress) AddProbabilistic(float64, float64) Phase { return Phase{} }
func (NullProgress) Ready()                                  {}
func (NullProgress) StartPhase(Phase)                        {}
func (NullProgress) ReportAttempt()                          {}
func (NullProgress) ReportProgress(int)                      {}
func (NullProgress) ReportPhaseComplete()                    {}

var _ ProgressReceiver = NullProgress{}

// EstimateModexpCost estimates the relative cost of a modexp of the
// given bit width: a modexp of n bits costs roughly O(n^2.58), since a
// Karatsuba modmul is O(n^1.58) and a modexp needs O(n) of them.
func EstimateModexpCost(bits uint) float64 {
	return math.Pow(float64(bits), 2.58)
}
