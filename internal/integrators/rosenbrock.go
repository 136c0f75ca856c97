package integrators

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/episim/internal/dynamo"
)

// Shampine-Reichelt Rosenbrock 2(3) coefficients (ode23s)
const (
	rosD   = 1 / (2 + math.Sqrt2)
	rosE32 = 6 + math.Sqrt2
)

// Rosenbrock is a linearly implicit, L-stable second order method with a third
// order error estimate. Each step factorizes W = I - h*d*J once and solves
// three linear systems with it, so stiff decay does not limit the step size.
type Rosenbrock struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		safety:   0.8,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (r *Rosenbrock) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	newX, _, _ := r.StepAdaptive(sys, x, t, dt, defaultStepTolerance)
	return newX
}

func (r *Rosenbrock) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	jac, dfdt := jacobian(sys, x, t)

	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -dt * rosD * jac[i][j]
			if i == j {
				v++
			}
			w.Set(i, j, v)
		}
	}
	var lu mat.LU
	lu.Factorize(w)

	tdt := dfdt.Scale(dt * rosD)

	f0 := sys.Derive(x, t)
	k1, err := solveLU(&lu, f0.Add(tdt))
	if err != nil {
		return x, dt * r.minScale, dynamo.ErrStepRejected
	}

	f1 := sys.Derive(x.Add(k1.Scale(0.5*dt)), t+0.5*dt)
	k2, err := solveLU(&lu, f1.Sub(k1))
	if err != nil {
		return x, dt * r.minScale, dynamo.ErrStepRejected
	}
	k2 = k2.Add(k1)

	xNew := x.Add(k2.Scale(dt))

	f2 := sys.Derive(xNew, t+dt)
	rhs := f2.Sub(k2.Sub(f1).Scale(rosE32)).Sub(k1.Sub(f0).Scale(2)).Add(tdt)
	k3, err := solveLU(&lu, rhs)
	if err != nil {
		return x, dt * r.minScale, dynamo.ErrStepRejected
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt / 6 * (k1[i] - 2*k2[i] + k3[i])
		scale := math.Max(math.Abs(x[i]), math.Abs(xNew[i])) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	if math.IsNaN(errRatio) || !xNew.IsValid() {
		return xNew, dt * r.minScale, dynamo.ErrStepRejected
	}

	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -1.0/3.0))
		return xNew, dt * scale, dynamo.ErrStepRejected
	}

	var dtNew float64
	if errRatio > 0 {
		scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -1.0/3.0))
		dtNew = dt * scale
	} else {
		dtNew = dt * r.maxScale
	}

	return xNew, dtNew, nil
}

// solveLU solves W*k = b. An ill-conditioned W still yields a usable
// solution; non-finite results are caught by the caller's error test.
func solveLU(lu *mat.LU, b dynamo.State) (dynamo.State, error) {
	var dst mat.VecDense
	err := lu.SolveVecTo(&dst, false, mat.NewVecDense(len(b), b.Clone()))
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		return nil, err
	}
	return dynamo.State(dst.RawVector().Data), nil
}

// jacobian returns df/dx and df/dt, analytically when sys provides them.
func jacobian(sys dynamo.System, x dynamo.State, t float64) ([][]float64, dynamo.State) {
	if d, ok := sys.(dynamo.Differentiable); ok {
		return d.Jacobian(x, t)
	}
	return numericJacobian(sys, x, t)
}

// numericJacobian uses forward differences with a step of sqrt(eps) relative
// to each coordinate.
func numericJacobian(sys dynamo.System, x dynamo.State, t float64) ([][]float64, dynamo.State) {
	const sqrtEps = 1.4901161193847656e-08

	n := len(x)
	f0 := sys.Derive(x, t)

	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, n)
	}

	xp := x.Clone()
	for j := 0; j < n; j++ {
		h := sqrtEps * math.Max(1, math.Abs(x[j]))
		xp[j] = x[j] + h
		fj := sys.Derive(xp, t)
		for i := 0; i < n; i++ {
			jac[i][j] = (fj[i] - f0[i]) / h
		}
		xp[j] = x[j]
	}

	ht := sqrtEps * math.Max(1, math.Abs(t))
	dfdt := sys.Derive(x, t+ht).Sub(f0).Scale(1 / ht)

	return jac, dfdt
}
