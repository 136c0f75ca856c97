package epidemic

import "github.com/san-kum/episim/internal/dynamo"

// Compartment indices into a state vector.
const (
	Susceptible = iota
	Infected
	Recovered
)

// CompartmentNames are the series names in state vector order.
var CompartmentNames = [...]string{"Susceptible", "Infected", "Recovered"}

// SIR is the Kermack-McKendrick model on population fractions:
//
//	dS/dt = -beta*S*I
//	dI/dt =  beta*S*I - gamma*I
//	dR/dt =  gamma*I
type SIR struct {
	Beta  float64
	Gamma float64
}

func NewSIR(beta, gamma float64) *SIR {
	return &SIR{Beta: beta, Gamma: gamma}
}

func (m *SIR) StateDim() int {
	return 3
}

func (m *SIR) Derive(x dynamo.State, t float64) dynamo.State {
	s, i := x[Susceptible], x[Infected]

	infection := m.Beta * s * i
	recovery := m.Gamma * i

	return dynamo.State{-infection, infection - recovery, recovery}
}

// InitialState returns (1-i0, i0, 0). i0 is not clamped.
func InitialState(i0 float64) dynamo.State {
	return dynamo.State{1 - i0, i0, 0}
}

// Jacobian returns df/dx of the SIR right-hand side. The system is
// autonomous, so df/dt is zero. Every column sums to zero, which keeps
// linearly implicit steps on the S+I+R = 1 plane.
func (m *SIR) Jacobian(x dynamo.State, t float64) ([][]float64, dynamo.State) {
	s, i := x[Susceptible], x[Infected]
	return [][]float64{
		{-m.Beta * i, -m.Beta * s, 0},
		{m.Beta * i, m.Beta*s - m.Gamma, 0},
		{0, m.Gamma, 0},
	}, make(dynamo.State, 3)
}
