package epidemic_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/integrators"
)

func simulate(i0, beta, gamma, step, horizon float64) *epidemic.Result {
	res, err := epidemic.Simulate(epidemic.Params{I0: i0, Beta: beta, Gamma: gamma, Step: step, Horizon: horizon})
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("Simulate", func() {
	DescribeTable("samples one state per grid point",
		func(step, horizon float64, points int) {
			res := simulate(0.01, 2.0, 1.0, step, horizon)
			Expect(res.Times).To(HaveLen(points))
			Expect(res.Trajectory).To(HaveLen(points))
			Expect(res.Len()).To(Equal(points))
		},
		Entry("unit step", 1.0, 50.0, 51),
		Entry("default horizon", 1.0, 70.0, 71),
		Entry("fractional step", 0.25, 10.0, 41),
		Entry("step not dividing horizon", 3.0, 10.0, 4),
		Entry("zero horizon", 1.0, 0.0, 1),
	)

	DescribeTable("conserves the population and starts exactly at the initial state",
		func(i0, beta, gamma float64) {
			res := simulate(i0, beta, gamma, 1.0, 70.0)
			Expect(res.Trajectory[0]).To(Equal(dynamo.State{1 - i0, i0, 0}))
			for k, x := range res.Trajectory {
				Expect(math.Abs(x.Sum()-1.0)).To(BeNumerically("<", 1e-6), "t=%v", res.Times[k])
			}
			Expect(res.Metrics["conservation_drift"]).To(BeNumerically("<", 1e-6))
		},
		Entry("default epidemic", 0.00001, 2.0, 1.0),
		Entry("large outbreak", 0.1, 5.0, 0.5),
		Entry("subcritical", 0.2, 0.5, 1.0),
		Entry("no recovery", 0.001, 1.0, 0.0),
	)

	DescribeTable("keeps S non-increasing and R non-decreasing",
		func(i0, beta, gamma float64) {
			res := simulate(i0, beta, gamma, 0.5, 60.0)
			s, r := res.Susceptible(), res.Recovered()
			for k := 1; k < res.Len(); k++ {
				Expect(s[k]).To(BeNumerically("<=", s[k-1]+1e-12), "S at t=%v", res.Times[k])
				Expect(r[k]).To(BeNumerically(">=", r[k-1]-1e-12), "R at t=%v", res.Times[k])
			}
		},
		Entry("default epidemic", 0.00001, 2.0, 1.0),
		Entry("fast epidemic", 0.01, 10.0, 1.0),
		Entry("no transmission", 0.3, 0.0, 0.2),
	)

	Context("scenario A: default control panel values", func() {
		var res *epidemic.Result

		BeforeEach(func() {
			res = simulate(0.00001, 2.0, 1.0, 1.0, 50.0)
		})

		It("reports R0 = 2", func() {
			Expect(res.R0).To(Equal(2.0))
		})

		It("lets the infected fraction rise and then decay towards zero", func() {
			inf := res.Infected()
			peak := 0
			for k := range inf {
				if inf[k] > inf[peak] {
					peak = k
				}
			}
			Expect(peak).To(BeNumerically(">", 0))
			Expect(peak).To(BeNumerically("<", len(inf)-1))
			Expect(inf[len(inf)-1]).To(BeNumerically("<", 1e-6))

			analytic := 1 - 0.5*(1+math.Log(2.0*0.99999))
			Expect(res.Metrics["peak_infected"]).To(BeNumerically("~", analytic, 0.01))
			Expect(res.Metrics["peak_infected"]).To(BeNumerically("<=", analytic+1e-6))
			Expect(res.Metrics["peak_time"]).To(Equal(res.Times[peak]))
		})

		It("leaves a positive susceptible floor matching the final size relation", func() {
			sus := res.Susceptible()
			Expect(sus[0]).To(BeNumerically("~", 0.99999, 1e-15))
			floor := sus[len(sus)-1]
			Expect(floor).To(BeNumerically(">", 0))
			Expect(floor).To(BeNumerically("~", epidemic.FinalSize(2.0, 0.99999), 1e-4))
			Expect(floor).To(BeNumerically("<", 1-epidemic.HerdImmunityThreshold(2.0)))
		})
	})

	Context("scenario B: no transmission", func() {
		var res *epidemic.Result

		BeforeEach(func() {
			res = simulate(0.5, 0.0, 1.0, 1.0, 10.0)
		})

		It("holds S constant and reports R0 = 0", func() {
			Expect(res.R0).To(Equal(0.0))
			for _, s := range res.Susceptible() {
				Expect(s).To(Equal(0.5))
			}
		})

		It("decays I exponentially while R absorbs it", func() {
			inf, rec := res.Infected(), res.Recovered()
			for k, t := range res.Times {
				Expect(inf[k]).To(BeNumerically("~", 0.5*math.Exp(-t), 1e-7))
				Expect(rec[k]).To(BeNumerically("~", 0.5-0.5*math.Exp(-t), 1e-7))
			}
		})
	})

	Context("scenario C: zero recovery rate", func() {
		It("falls back to R0 = 0 without failing", func() {
			res, err := epidemic.Simulate(epidemic.Params{I0: 0.01, Beta: 1.0, Gamma: 0, Step: 1, Horizon: 20})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.R0).To(Equal(0.0))
			Expect(res.Recovered()).To(HaveEach(0.0))
		})
	})

	Context("permissive inputs", func() {
		It("accepts I0 outside [0, 1]", func() {
			res := simulate(1.5, 2.0, 1.0, 1.0, 20.0)
			Expect(res.Trajectory[0]).To(Equal(dynamo.State{-0.5, 1.5, 0}))
			Expect(res.Metrics["feasibility"]).To(BeNumerically("<", 1.0))
		})

		It("accepts negative rates", func() {
			res := simulate(0.01, -0.5, 1.0, 1.0, 10.0)
			Expect(res.R0).To(Equal(-0.5))
		})

		It("switches to the stiff solver for very fast recovery", func() {
			res := simulate(0.01, 1.0, 1e5, 1.0, 70.0)
			Expect(res.Len()).To(Equal(71))
			Expect(res.Stats.Switched).To(BeTrue())
			for k, x := range res.Trajectory {
				Expect(math.Abs(x.Sum()-1.0)).To(BeNumerically("<", 1e-6), "t=%v", res.Times[k])
			}
			last := res.Trajectory[70]
			Expect(last[epidemic.Infected]).To(BeNumerically("~", 0, 1e-9))
			Expect(last[epidemic.Susceptible]).To(BeNumerically("~", 0.99, 1e-6))
		})

		It("runs a negative recovery rate to the horizon", func() {
			res := simulate(0.01, 2.0, -1.0, 1.0, 70.0)
			Expect(res.Len()).To(Equal(71))
			Expect(res.Stats.Switched).To(BeTrue())
			for k, x := range res.Trajectory {
				Expect(x.IsValid()).To(BeTrue(), "t=%v", res.Times[k])
				// I grows like e^t and R mirrors it, so the bound is relative
				scale := math.Max(1, math.Abs(x[epidemic.Infected])+math.Abs(x[epidemic.Recovered]))
				Expect(math.Abs(x.Sum()-1.0)/scale).To(BeNumerically("<", 1e-6), "t=%v", res.Times[k])
			}
			Expect(res.Infected()[70]).To(BeNumerically(">", 1e20))
		})
	})

	Context("guarded inputs", func() {
		DescribeTable("rejects malformed grids and non-finite parameters",
			func(p epidemic.Params, want error) {
				_, err := epidemic.Simulate(p)
				Expect(err).To(MatchError(want))
			},
			Entry("zero step", epidemic.Params{I0: 0.01, Beta: 2, Gamma: 1, Step: 0, Horizon: 10}, dynamo.ErrInvalidStep),
			Entry("negative step", epidemic.Params{I0: 0.01, Beta: 2, Gamma: 1, Step: -1, Horizon: 10}, dynamo.ErrInvalidStep),
			Entry("negative horizon", epidemic.Params{I0: 0.01, Beta: 2, Gamma: 1, Step: 1, Horizon: -5}, dynamo.ErrInvalidHorizon),
			Entry("NaN beta", epidemic.Params{I0: 0.01, Beta: math.NaN(), Gamma: 1, Step: 1, Horizon: 10}, dynamo.ErrNonFinite),
			Entry("infinite gamma", epidemic.Params{I0: 0.01, Beta: 2, Gamma: math.Inf(1), Step: 1, Horizon: 10}, dynamo.ErrNonFinite),
			Entry("infinite I0", epidemic.Params{I0: math.Inf(-1), Beta: 2, Gamma: 1, Step: 1, Horizon: 10}, dynamo.ErrNonFinite),
		)
	})

	Context("integrator choice", func() {
		It("agrees between adaptive and fixed step solvers", func() {
			p := epidemic.DefaultParams()
			adaptive, err := epidemic.New().Run(p)
			Expect(err).NotTo(HaveOccurred())
			fixed, err := epidemic.New(epidemic.WithIntegrator(integrators.NewRK4())).Run(p)
			Expect(err).NotTo(HaveOccurred())

			for k := range adaptive.Trajectory {
				for c := 0; c < 3; c++ {
					Expect(fixed.Trajectory[k][c]).To(BeNumerically("~", adaptive.Trajectory[k][c], 1e-5))
				}
			}
		})

		It("records solver statistics", func() {
			res := simulate(0.00001, 2.0, 1.0, 1.0, 50.0)
			Expect(res.Stats.Steps).To(BeNumerically(">=", 50))
			Expect(res.Stats.Evaluations).To(BeNumerically(">", res.Stats.Steps))
		})
	})

	Context("output series", func() {
		It("emits three named series on a shared time axis", func() {
			res := simulate(0.01, 2.0, 1.0, 1.0, 10.0)
			series := res.Series()
			Expect(series).To(HaveLen(3))
			Expect([]string{series[0].Name, series[1].Name, series[2].Name}).To(Equal([]string{"Susceptible", "Infected", "Recovered"}))
			for _, s := range series {
				Expect(s.Points).To(HaveLen(res.Len()))
				for k, pt := range s.Points {
					Expect(pt.T).To(Equal(res.Times[k]))
				}
			}
			Expect(series[1].Points[3].V).To(Equal(res.Trajectory[3][epidemic.Infected]))
		})
	})

	Context("custom metrics", func() {
		It("replaces the defaults", func() {
			res, err := epidemic.New(epidemic.WithMetrics()).Run(epidemic.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(BeEmpty())
		})
	})
})
