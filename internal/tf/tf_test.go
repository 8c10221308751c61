package tf_test

import (
	"math"
	"math/cmplx"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/magball/internal/tf"
)

var _ = Describe("Poly", func() {
	It("multiplies by convolution", func() {
		Expect(tf.Poly{1, 1}.Mul(tf.Poly{1, 2})).To(Equal(tf.Poly{1, 3, 2}))
	})

	It("adds aligned on the constant term", func() {
		Expect(tf.Poly{1, 0, 0}.Add(tf.Poly{2, 3})).To(Equal(tf.Poly{1, 2, 3}))
		Expect(tf.Poly{4}.Add(tf.Poly{1, 1})).To(Equal(tf.Poly{1, 5}))
	})

	It("keeps leading zeros until trimmed", func() {
		p := tf.Poly{0, 0, 2, 1}
		Expect(p).To(HaveLen(4))
		Expect(p.Trim()).To(Equal(tf.Poly{2, 1}))
		Expect(p.Degree()).To(Equal(1))
		Expect(tf.Poly{0, 0}.Degree()).To(Equal(-1))
	})

	It("evaluates with Horner's rule", func() {
		Expect(tf.Poly{1, 3, 2}.Eval(complex(2, 0))).To(Equal(complex(12, 0)))
		Expect(tf.Poly{1, 0, 1}.Eval(complex(0, 1))).To(Equal(complex(0, 0)))
	})

	It("formats highest power first", func() {
		Expect(tf.Poly{1, 3, 2}.String()).To(Equal("s^2 + 3 s + 2"))
		Expect(tf.Poly{-1, 0, -0.5}.String()).To(Equal("-s^2 - 0.5"))
		Expect(tf.Poly{0}.String()).To(Equal("0"))
	})

	It("finds roots through the companion matrix", func() {
		roots, err := tf.Poly{1, 6, 11, 6}.Roots()
		Expect(err).NotTo(HaveOccurred())
		re := make([]float64, len(roots))
		for i, r := range roots {
			Expect(imag(r)).To(BeNumerically("~", 0, 1e-9))
			re[i] = real(r)
		}
		sort.Float64s(re)
		Expect(re[0]).To(BeNumerically("~", -3, 1e-9))
		Expect(re[1]).To(BeNumerically("~", -2, 1e-9))
		Expect(re[2]).To(BeNumerically("~", -1, 1e-9))
	})

	It("rejects roots of the zero polynomial", func() {
		_, err := tf.Poly{0, 0}.Roots()
		Expect(err).To(MatchError(tf.ErrZeroPolynomial))
	})
})

var _ = Describe("System", func() {
	var plant tf.System

	BeforeEach(func() {
		plant = tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 1}}
	})

	It("rejects a zero denominator", func() {
		_, err := tf.New(tf.Poly{1}, tf.Poly{0})
		Expect(err).To(MatchError(tf.ErrZeroPolynomial))
	})

	It("multiplies numerators and denominators in series", func() {
		g := plant.Series(tf.System{Num: tf.Poly{2, 0}, Den: tf.Poly{1, 3}})
		Expect(g.Num).To(Equal(tf.Poly{2, 0}))
		Expect(g.Den).To(Equal(tf.Poly{1, 4, 3}))
	})

	It("returns the forward path unchanged for a zero sensor", func() {
		forward := tf.System{Num: tf.Poly{8821}, Den: tf.Poly{1, 418.4, 17858, 928008}}
		Expect(forward.Feedback(tf.Gain(0)).Equal(forward)).To(BeTrue())
	})

	It("closes a unity loop", func() {
		closed := plant.Feedback(tf.Unity())
		Expect(closed.Num).To(Equal(tf.Poly{1}))
		Expect(closed.Den).To(Equal(tf.Poly{1, 2}))
	})

	It("is not idempotent under repeated unity feedback", func() {
		once := plant.Feedback(tf.Unity())
		twice := once.Feedback(tf.Unity())
		Expect(twice.Equal(once)).To(BeFalse())
		Expect(twice.DCGain()).To(BeNumerically("~", 1.0/3, 1e-12))
	})

	It("closes a loop through a sensor lag", func() {
		closed := plant.Feedback(tf.Lag(0.5))
		Expect(closed.Num).To(Equal(tf.Poly{0.5, 1}))
		Expect(closed.Den).To(Equal(tf.Poly{0.5, 1.5, 2}))
	})

	It("reports poles, zeros and DC gain", func() {
		g := tf.System{Num: tf.Poly{1, 2}, Den: tf.Poly{1, 4, 3}}
		poles, err := g.Poles()
		Expect(err).NotTo(HaveOccurred())
		Expect(poles).To(HaveLen(2))
		zeros, err := g.Zeros()
		Expect(err).NotTo(HaveOccurred())
		Expect(real(zeros[0])).To(BeNumerically("~", -2, 1e-12))
		Expect(g.DCGain()).To(BeNumerically("~", 2.0/3, 1e-12))

		integrator := tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 0}}
		Expect(math.IsInf(integrator.DCGain(), 1)).To(BeTrue())
	})

	It("computes Bode data", func() {
		pts := plant.Bode([]float64{1, 1000})
		Expect(pts[0].MagnitudeDB).To(BeNumerically("~", -3.0103, 1e-4))
		Expect(pts[0].PhaseDeg).To(BeNumerically("~", -45, 1e-9))
		Expect(pts[1].PhaseDeg).To(BeNumerically("~", -89.94, 0.01))
		Expect(cmplx.Abs(plant.FrequencyResponse(0))).To(BeNumerically("~", 1, 1e-12))
	})

	It("unwraps phase past -180 degrees", func() {
		third := tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 3, 3, 1}}
		pts := third.Bode(tf.LogSpace(-2, 3, 200))
		Expect(pts[len(pts)-1].PhaseDeg).To(BeNumerically("~", -270, 1))
	})

	Describe("time responses", func() {
		times := tf.LinSpace(0, 2, 21)

		It("matches the analytic first-order step", func() {
			y, err := plant.StepResponse(times)
			Expect(err).NotTo(HaveOccurred())
			for k, t := range times {
				Expect(y[k]).To(BeNumerically("~", 1-math.Exp(-t), 1e-6))
			}
		})

		It("matches the analytic first-order impulse", func() {
			y, err := plant.ImpulseResponse(times)
			Expect(err).NotTo(HaveOccurred())
			for k, t := range times {
				Expect(y[k]).To(BeNumerically("~", math.Exp(-t), 1e-6))
			}
		})

		It("includes direct feedthrough in the step", func() {
			lead := tf.System{Num: tf.Poly{1, 2}, Den: tf.Poly{1, 1}}
			y, err := lead.StepResponse(times)
			Expect(err).NotTo(HaveOccurred())
			for k, t := range times {
				Expect(y[k]).To(BeNumerically("~", 2-math.Exp(-t), 1e-6))
			}
		})

		It("handles an oscillatory pair", func() {
			g := tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 0, 1}}
			y, err := g.ImpulseResponse(times)
			Expect(err).NotTo(HaveOccurred())
			for k, t := range times {
				Expect(y[k]).To(BeNumerically("~", math.Sin(t), 1e-6))
			}
		})

		It("rejects improper systems and bad grids", func() {
			_, err := tf.System{Num: tf.Poly{1, 0, 0}, Den: tf.Poly{1, 1}}.StepResponse(times)
			Expect(err).To(MatchError(tf.ErrImproper))

			_, err = plant.StepResponse([]float64{0, 1, 1})
			Expect(err).To(MatchError(tf.ErrTimeGrid))
			_, err = plant.StepResponse(nil)
			Expect(err).To(MatchError(tf.ErrTimeGrid))
		})
	})
})
