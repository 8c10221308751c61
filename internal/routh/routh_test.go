package routh_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/magball/internal/control"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/routh"
	"github.com/san-kum/magball/internal/tf"
)

func column(a *routh.Array[routh.Real]) []float64 {
	col := a.FirstColumn()
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = float64(v)
	}
	return out
}

var _ = Describe("Numeric arrays", func() {
	It("classifies (s+1)(s+2)(s+3) as stable", func() {
		Expect(routh.Classify(tf.Poly{1, 6, 11, 6})).To(Equal(routh.Stable))

		a, err := routh.BuildPoly(tf.Poly{1, 6, 11, 6})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Rows()).To(Equal(4))
		Expect(a.Columns()).To(Equal(2))
		Expect(column(a)).To(Equal([]float64{1, 6, 10, 6}))
	})

	It("classifies s^3 + s^2 + 2s + 24 as unstable with two RHP roots", func() {
		Expect(routh.Classify(tf.Poly{1, 1, 2, 24})).To(Equal(routh.Unstable))

		a, _ := routh.BuildPoly(tf.Poly{1, 1, 2, 24})
		Expect(column(a)).To(Equal([]float64{1, 1, -22, 24}))
		changes, ok := a.SignChanges()
		Expect(ok).To(BeTrue())
		Expect(changes).To(Equal(2))
	})

	It("accepts an all-negative first column", func() {
		Expect(routh.Classify(tf.Poly{-1, -6, -11, -6})).To(Equal(routh.Stable))
	})

	It("treats a zero pivot as indeterminate", func() {
		a, err := routh.BuildPoly(tf.Poly{1, 1, 1, 1})
		Expect(err).NotTo(HaveOccurred())
		row, degenerate := a.Degenerate()
		Expect(degenerate).To(BeTrue())
		Expect(row).To(Equal(2))
		Expect(a.Verdict()).To(Equal(routh.Indeterminate))
		_, ok := a.SignChanges()
		Expect(ok).To(BeFalse())
		Expect(a.String()).To(ContainSubstring("zero pivot"))
	})

	It("calls a root at the origin unstable", func() {
		Expect(routh.Classify(tf.Poly{1, 2, 0})).To(Equal(routh.Unstable))
	})

	It("trims leading zeros and handles constants", func() {
		Expect(routh.Classify(tf.Poly{0, 0, 1, 3})).To(Equal(routh.Stable))
		Expect(routh.Classify(tf.Poly{5})).To(Equal(routh.Stable))
		Expect(routh.Classify(tf.Poly{0})).To(Equal(routh.Indeterminate))
		Expect(routh.Classify(tf.Poly{1, math.NaN()})).To(Equal(routh.Indeterminate))
	})

	It("agrees with the poles of random stable and unstable cubics", func() {
		for _, p := range []tf.Poly{{1, 3, 3, 1}, {1, -3, 3, -1}, {2, 1, 8, 3}, {1, 0.5, 0.1, 0.3}} {
			poles, err := p.Roots()
			Expect(err).NotTo(HaveOccurred())
			stable := true
			for _, z := range poles {
				if real(z) >= 0 {
					stable = false
				}
			}
			want := routh.Unstable
			if stable {
				want = routh.Stable
			}
			Expect(routh.Classify(p)).To(Equal(want), "poly %v poles %v", p, poles)
		}
	})
})

var _ = Describe("Parametric PID", func() {
	var plant tf.System

	BeforeEach(func() {
		lin, err := physics.NewLinear(physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		plant = lin.TransferFunction()
	})

	It("is stable for every positive gain on a first-order plant", func() {
		first := tf.System{Num: tf.Poly{1}, Den: tf.Poly{1, 1}}
		verdict, err := routh.ClassifyParametric(first, tf.Unity())
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(routh.Stable))
	})

	It("is indeterminate for the ball plant until gains are given", func() {
		p, err := routh.ParametricPID(plant, tf.Unity())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Characteristic()).To(HaveLen(5))
		Expect(p.Verdict()).To(Equal(routh.Indeterminate))

		verdict, err := p.ClassifyAt(2, 1.9, 500)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(routh.Stable))

		verdict, err = p.ClassifyAt(0, 0, 1e6)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(routh.Unstable))
	})

	It("substitutes to the numeric closed-loop denominator", func() {
		pid, err := control.NewPID(2, 1.9, 500, 0.001)
		Expect(err).NotTo(HaveOccurred())
		sensor := tf.Lag(0.03)
		closed := pid.TransferFunction().Series(plant).Feedback(sensor)

		p, err := routh.ParametricPID(plant, sensor)
		Expect(err).NotTo(HaveOccurred())
		sub, err := p.Substitute(2, 1.9, 500)
		Expect(err).NotTo(HaveOccurred())

		want := closed.Den.Trim()
		Expect(sub).To(HaveLen(len(want)))
		for i := range want {
			Expect(sub[i]).To(BeNumerically("~", want[i], 1e-9*math.Max(math.Abs(want[i]), 1)))
		}
		Expect(routh.Classify(sub)).To(Equal(routh.Classify(closed.Den)))
	})
})
