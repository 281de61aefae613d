package contacts

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/san-kum/contactdyn/internal/dynamics"
	"github.com/san-kum/contactdyn/internal/kinematics"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/models"
)

const tol = 1e-8

var (
	xAxis = mgl64.Vec3{1, 0, 0}
	yAxis = mgl64.Vec3{0, 1, 0}
	zAxis = mgl64.Vec3{0, 0, 1}
)

// scenario is a model, a state and a contact list to solve it against.
type scenario struct {
	m            *model.Model
	q, qdot, tau []float64
	contacts     []ContactInfo
}

func planarBoxScenario() scenario {
	m, box := models.PlanarBox()
	return scenario{
		m:    m,
		q:    []float64{0.1, 0.3, 0.2},
		qdot: []float64{0.4, -0.2, 0.7},
		tau:  []float64{0.5, 1.0, -0.3},
		contacts: []ContactInfo{
			{BodyID: box, Point: models.CornerLeft, Normal: zAxis},
			{BodyID: box, Point: models.CornerRight, Normal: zAxis, Acceleration: 0.3},
		},
	}
}

func bipedScenario() scenario {
	m, left, right := models.Biped()
	return scenario{
		m:    m,
		q:    []float64{0.05, 1.0, 0.1, 0.3, -0.25},
		qdot: []float64{0.2, -0.1, 0.3, -0.5, 0.4},
		tau:  []float64{0, 0, 0, 4.0, -3.0},
		contacts: []ContactInfo{
			{BodyID: left, Point: models.Foot, Normal: xAxis},
			{BodyID: left, Point: models.Foot, Normal: zAxis},
			{BodyID: right, Point: models.Foot, Normal: zAxis, Acceleration: -0.2},
		},
	}
}

func armScenario() scenario {
	m, tool := models.Arm()
	tip := mgl64.Vec3{0, 0, -0.1}
	return scenario{
		m:    m,
		q:    []float64{0.3, -0.4, 0.8, 0.1},
		qdot: []float64{0.5, 1.1, -0.7, 0.2},
		tau:  []float64{1.0, -2.0, 0.5, 3.0},
		contacts: []ContactInfo{
			{BodyID: tool, Point: tip, Normal: xAxis},
			{BodyID: tool, Point: tip, Normal: yAxis},
			{BodyID: tool, Point: tip, Normal: zAxis, Acceleration: 0.5},
		},
	}
}

func bindSet(m *model.Model, contacts []ContactInfo, method linalg.Method) *ConstraintSet {
	cs := NewConstraintSet()
	cs.LinearSolver = method
	for _, c := range contacts {
		_, err := cs.AddConstraint(c.BodyID, c.Point, c.Normal, "", c.Acceleration)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	}
	gomega.Expect(cs.Bind(m)).To(gomega.Succeed())
	return cs
}

func expectClose(got, want []float64) {
	ginkgo.GinkgoHelper()
	gomega.Expect(got).To(gomega.HaveLen(len(want)))
	for i := range want {
		gomega.Expect(got[i]).To(gomega.BeNumerically("~", want[i], tol), "index %d", i)
	}
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

var _ = ginkgo.Describe("Contact solvers", func() {
	ginkgo.DescribeTable("agree with each other",
		func(build func() scenario) {
			s := build()
			dof := s.m.DofCount

			lagrangian := bindSet(s.m, s.contacts, linalg.PartialPivLU)
			lagrangian.SetLogger(logging.NewTestLogger(ginkgo.GinkgoT()))
			want := make([]float64, dof)
			gomega.Expect(ForwardDynamicsContactsLagrangian(s.m, s.q, s.qdot, s.tau, lagrangian, want)).To(gomega.Succeed())

			for _, method := range linalg.Methods() {
				ginkgo.By("lagrangian with " + method.String())
				cs := bindSet(s.m, s.contacts, method)
				qddot := make([]float64, dof)
				gomega.Expect(ForwardDynamicsContactsLagrangian(s.m, s.q, s.qdot, s.tau, cs, qddot)).To(gomega.Succeed())
				expectClose(qddot, want)
				expectClose(cs.Force, lagrangian.Force)

				ginkgo.By("compliance with " + method.String())
				cs = bindSet(s.m, s.contacts, method)
				cs.SetLogger(logging.NewTestLogger(ginkgo.GinkgoT()))
				qddot = make([]float64, dof)
				gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, qddot)).To(gomega.Succeed())
				expectClose(qddot, want)
				expectClose(cs.Force, lagrangian.Force)
			}

			ginkgo.By("contact list")
			list := append([]ContactInfo(nil), s.contacts...)
			qddot := make([]float64, dof)
			gomega.Expect(ForwardDynamicsContactsList(s.m, s.q, s.qdot, s.tau, list, qddot)).To(gomega.Succeed())
			expectClose(qddot, want)
			for i := range list {
				gomega.Expect(list[i].Force).To(gomega.BeNumerically("~", lagrangian.Force[i], tol))
			}
		},
		ginkgo.Entry("planar box on two corners", planarBoxScenario),
		ginkgo.Entry("biped on both feet", bipedScenario),
		ginkgo.Entry("arm tip through a fixed joint", armScenario),
	)

	ginkgo.DescribeTable("reach the desired accelerations",
		func(build func() scenario) {
			s := build()
			d := model.NewData(s.m)

			solvers := map[string]func(*ConstraintSet, []float64) error{
				"lagrangian": func(cs *ConstraintSet, qddot []float64) error {
					return ForwardDynamicsContactsLagrangian(s.m, s.q, s.qdot, s.tau, cs, qddot)
				},
				"compliance": func(cs *ConstraintSet, qddot []float64) error {
					return ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, qddot)
				},
			}

			for name, solve := range solvers {
				ginkgo.By(name)
				cs := bindSet(s.m, s.contacts, linalg.PartialPivLU)
				qddot := make([]float64, s.m.DofCount)
				gomega.Expect(solve(cs, qddot)).To(gomega.Succeed())

				for i, c := range s.contacts {
					a := kinematics.PointAcceleration(s.m, d, s.q, s.qdot, qddot, c.BodyID, c.Point, true)
					gomega.Expect(c.Normal.Dot(a)).To(gomega.BeNumerically("~", c.Acceleration, tol), "constraint %d", i)
				}
			}
		},
		ginkgo.Entry("planar box", planarBoxScenario),
		ginkgo.Entry("biped", bipedScenario),
		ginkgo.Entry("arm", armScenario),
	)

	ginkgo.It("reduce to forward dynamics without constraints", func() {
		s := bipedScenario()
		dof := s.m.DofCount

		want := make([]float64, dof)
		dynamics.ForwardDynamics(s.m, model.NewData(s.m), s.q, s.qdot, s.tau, want, nil)

		cs := bindSet(s.m, nil, linalg.PartialPivLU)
		gomega.Expect(cs.Size()).To(gomega.Equal(0))

		qddot := make([]float64, dof)
		gomega.Expect(ForwardDynamicsContactsLagrangian(s.m, s.q, s.qdot, s.tau, cs, qddot)).To(gomega.Succeed())
		expectClose(qddot, want)

		qddot = make([]float64, dof)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, qddot)).To(gomega.Succeed())
		expectClose(qddot, want)

		qddot = make([]float64, dof)
		gomega.Expect(ForwardDynamicsContactsList(s.m, s.q, s.qdot, s.tau, nil, qddot)).To(gomega.Succeed())
		expectClose(qddot, want)
	})

	ginkgo.It("hold a resting box with its weight", func() {
		const mass = 2.0
		m, box := models.SlidingBox(mass)
		contacts := []ContactInfo{{BodyID: box, Normal: zAxis}}
		q, qdot, tau := []float64{0.5}, []float64{0}, []float64{0}

		for _, method := range linalg.Methods() {
			cs := bindSet(m, contacts, method)
			qddot := filled(1, math.NaN())
			gomega.Expect(ForwardDynamicsContactsLagrangian(m, q, qdot, tau, cs, qddot)).To(gomega.Succeed())
			gomega.Expect(qddot[0]).To(gomega.BeNumerically("~", 0, tol))
			gomega.Expect(cs.Force[0]).To(gomega.BeNumerically("~", mass*model.DefaultGravity, tol))

			cs.Clear()
			gomega.Expect(ForwardDynamicsContacts(m, q, qdot, tau, cs, qddot)).To(gomega.Succeed())
			gomega.Expect(qddot[0]).To(gomega.BeNumerically("~", 0, tol))
			gomega.Expect(cs.Force[0]).To(gomega.BeNumerically("~", mass*model.DefaultGravity, tol))
		}
	})

	ginkgo.It("keep independent contacts decoupled", func() {
		m, a, b := models.TwoBoxes()
		q, qdot, tau := []float64{0.1, -0.3}, []float64{0.2, 0.1}, []float64{1, -2}
		both := []ContactInfo{
			{BodyID: a, Point: mgl64.Vec3{0.2, 0, 0}, Normal: zAxis},
			{BodyID: b, Point: mgl64.Vec3{0, 0.1, 0}, Normal: zAxis},
		}

		cs := bindSet(m, both, linalg.PartialPivLU)
		qddot := make([]float64, 2)
		gomega.Expect(ForwardDynamicsContacts(m, q, qdot, tau, cs, qddot)).To(gomega.Succeed())
		gomega.Expect(cs.K.At(0, 1)).To(gomega.BeNumerically("~", 0, tol))
		gomega.Expect(cs.K.At(1, 0)).To(gomega.BeNumerically("~", 0, tol))

		for i, c := range both {
			single := bindSet(m, []ContactInfo{c}, linalg.PartialPivLU)
			gomega.Expect(ForwardDynamicsContactsLagrangian(m, q, qdot, tau, single, make([]float64, 2))).To(gomega.Succeed())
			gomega.Expect(cs.Force[i]).To(gomega.BeNumerically("~", single.Force[0], tol))
		}
		// m * qddot = tau + m * g - force with qddot = 0
		gomega.Expect(cs.Force[0]).To(gomega.BeNumerically("~", tau[0]+1*model.DefaultGravity, tol))
		gomega.Expect(cs.Force[1]).To(gomega.BeNumerically("~", tau[1]+3*model.DefaultGravity, tol))
	})

	ginkgo.It("produce a symmetric compliance matrix", func() {
		s := bipedScenario()
		cs := bindSet(s.m, s.contacts, linalg.PartialPivLU)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, make([]float64, s.m.DofCount))).To(gomega.Succeed())

		n := cs.Size()
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				gomega.Expect(cs.K.At(i, j)).To(gomega.BeNumerically("~", cs.K.At(j, i), tol))
			}
		}
	})
})

var _ = ginkgo.Describe("ConstraintSet", func() {
	var (
		m   *model.Model
		box int
		cs  *ConstraintSet
	)

	ginkgo.BeforeEach(func() {
		m, box = models.PlanarBox()
		cs = NewConstraintSet()
	})

	ginkgo.It("returns indices in insertion order", func() {
		for i, n := range []mgl64.Vec3{xAxis, yAxis, zAxis} {
			idx, err := cs.AddConstraint(box, mgl64.Vec3{float64(i), 0, 0}, n, "c", 0)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(idx).To(gomega.Equal(i))
		}
		gomega.Expect(cs.Size()).To(gomega.Equal(3))
		gomega.Expect(cs.Bound()).To(gomega.BeFalse())
	})

	ginkgo.DescribeTable("rejects normals that are not positive axes",
		func(normal mgl64.Vec3) {
			_, err := cs.AddConstraint(box, mgl64.Vec3{}, normal, "bad", 0)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidNormal))
			gomega.Expect(errors.Is(err, ErrPrecondition)).To(gomega.BeTrue())
			gomega.Expect(cs.Size()).To(gomega.Equal(0))
		},
		ginkgo.Entry("negative axis", mgl64.Vec3{0, 0, -1}),
		ginkgo.Entry("diagonal", mgl64.Vec3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}),
		ginkgo.Entry("scaled axis", mgl64.Vec3{0, 0, 0.5}),
		ginkgo.Entry("zero", mgl64.Vec3{}),
	)

	ginkgo.It("rejects bad normals on the list path before touching outputs", func() {
		s := planarBoxScenario()
		s.contacts[1].Normal = mgl64.Vec3{0, 0, -1}

		qddot := filled(3, 42)
		err := ForwardDynamicsContactsList(s.m, s.q, s.qdot, s.tau, s.contacts, qddot)
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidNormal))
		gomega.Expect(qddot).To(gomega.Equal(filled(3, 42)))

		err = ComputeContactImpulsesLagrangian(s.m, s.q, s.qdot, s.contacts, qddot)
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidNormal))
	})

	ginkgo.It("freezes the list once bound", func() {
		_, err := cs.AddConstraint(box, mgl64.Vec3{}, zAxis, "a", 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cs.Bind(m)).To(gomega.Succeed())
		gomega.Expect(cs.Bound()).To(gomega.BeTrue())

		_, err = cs.AddConstraint(box, mgl64.Vec3{}, xAxis, "b", 0)
		gomega.Expect(err).To(gomega.MatchError(ErrAlreadyBound))
		gomega.Expect(cs.Bind(m)).To(gomega.MatchError(ErrAlreadyBound))
		gomega.Expect(cs.Size()).To(gomega.Equal(1))
	})

	ginkgo.It("refuses to solve before Bind", func() {
		_, err := cs.AddConstraint(box, mgl64.Vec3{}, zAxis, "a", 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		zero := make([]float64, 3)
		gomega.Expect(ForwardDynamicsContacts(m, zero, zero, zero, cs, zero)).To(gomega.MatchError(ErrNotBound))
		gomega.Expect(ForwardDynamicsContactsLagrangian(m, zero, zero, zero, cs, zero)).To(gomega.MatchError(ErrNotBound))
	})

	ginkgo.It("rejects bodies outside the model", func() {
		_, err := cs.AddConstraint(99, mgl64.Vec3{}, zAxis, "ghost", 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cs.Bind(m)).To(gomega.MatchError(ErrInvalidBody))
		gomega.Expect(cs.Bound()).To(gomega.BeFalse())
	})

	ginkgo.It("rejects models and vectors of the wrong size", func() {
		_, err := cs.AddConstraint(box, mgl64.Vec3{}, zAxis, "a", 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cs.Bind(m)).To(gomega.Succeed())

		other, _ := models.Arm()
		v4 := make([]float64, 4)
		gomega.Expect(ForwardDynamicsContacts(other, v4, v4, v4, cs, v4)).To(gomega.MatchError(ErrDimensionMismatch))

		v3, v2 := make([]float64, 3), make([]float64, 2)
		gomega.Expect(ForwardDynamicsContactsLagrangian(m, v3, v3, v3, cs, v2)).To(gomega.MatchError(ErrDimensionMismatch))
	})

	ginkgo.It("clears workspace and forces but keeps definitions", func() {
		s := planarBoxScenario()
		cs = bindSet(s.m, s.contacts, linalg.PartialPivLU)

		first := make([]float64, 3)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, first)).To(gomega.Succeed())
		forces := append([]float64(nil), cs.Force...)

		cs.Clear()
		cs.Clear()
		gomega.Expect(cs.Force).To(gomega.Equal([]float64{0, 0}))
		gomega.Expect(cs.QDDot0).To(gomega.Equal([]float64{0, 0, 0}))
		gomega.Expect(cs.K.At(0, 0)).To(gomega.BeZero())
		gomega.Expect(cs.Acceleration).To(gomega.Equal([]float64{0, 0.3}))
		gomega.Expect(cs.Size()).To(gomega.Equal(2))

		second := make([]float64, 3)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, second)).To(gomega.Succeed())
		expectClose(second, first)
		expectClose(cs.Force, forces)
	})

	ginkgo.It("gives the same result when solved again without Clear", func() {
		s := bipedScenario()
		cs = bindSet(s.m, s.contacts, linalg.ColPivHouseholderQR)

		first := make([]float64, s.m.DofCount)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, first)).To(gomega.Succeed())
		second := make([]float64, s.m.DofCount)
		gomega.Expect(ForwardDynamicsContacts(s.m, s.q, s.qdot, s.tau, cs, second)).To(gomega.Succeed())
		expectClose(second, first)
	})
})

var _ = ginkgo.Describe("Numerical failure", func() {
	ginkgo.DescribeTable("is reported for redundant constraints",
		func(method linalg.Method, compliance bool) {
			m, box := models.PlanarBox()
			dup := ContactInfo{BodyID: box, Point: models.CornerRight, Normal: zAxis}
			cs := bindSet(m, []ContactInfo{dup, dup}, method)

			q, qdot, tau := []float64{0, 0.2, 0.1}, []float64{0, 0, 0}, []float64{0, 0, 0}
			qddot := filled(3, 42)

			var err error
			if compliance {
				err = ForwardDynamicsContacts(m, q, qdot, tau, cs, qddot)
			} else {
				err = ForwardDynamicsContactsLagrangian(m, q, qdot, tau, cs, qddot)
			}

			gomega.Expect(err).To(gomega.MatchError(ErrNumericalFailure))
			gomega.Expect(errors.Is(err, ErrPrecondition)).To(gomega.BeFalse())

			var ne *NumericalError
			gomega.Expect(errors.As(err, &ne)).To(gomega.BeTrue())
			gomega.Expect(ne.Constraints).NotTo(gomega.BeEmpty())
			for _, c := range ne.Constraints {
				gomega.Expect(c).To(gomega.BeElementOf(0, 1))
			}

			var se *linalg.SolveError
			gomega.Expect(errors.As(err, &se)).To(gomega.BeTrue())
			gomega.Expect(se.Method).To(gomega.Equal(method))

			gomega.Expect(qddot).To(gomega.Equal(filled(3, 42)))
			gomega.Expect(cs.Force).To(gomega.Equal([]float64{0, 0}))
		},
		ginkgo.Entry("lagrangian, lu", linalg.PartialPivLU, false),
		ginkgo.Entry("lagrangian, qr", linalg.ColPivHouseholderQR, false),
		ginkgo.Entry("compliance, lu", linalg.PartialPivLU, true),
		ginkgo.Entry("compliance, qr", linalg.ColPivHouseholderQR, true),
	)

	ginkgo.It("names the dependent constraint with QR", func() {
		m, box := models.PlanarBox()
		corner := mgl64.Vec3{0.5, 0, -0.25}
		cs := bindSet(m, []ContactInfo{
			{BodyID: box, Point: models.CornerLeft, Normal: zAxis},
			{BodyID: box, Point: corner, Normal: zAxis},
			{BodyID: box, Point: corner, Normal: zAxis},
		}, linalg.ColPivHouseholderQR)

		zero := make([]float64, 3)
		err := ForwardDynamicsContacts(m, []float64{0, 0.2, 0.1}, zero, zero, cs, make([]float64, 3))

		var ne *NumericalError
		gomega.Expect(errors.As(err, &ne)).To(gomega.BeTrue())
		gomega.Expect(ne.Op).To(gomega.Equal("compliance"))
		gomega.Expect(ne.Constraints).To(gomega.HaveLen(1))
		gomega.Expect(ne.Constraints[0]).To(gomega.BeElementOf(1, 2))
	})
})

var _ = ginkgo.Describe("Impulses", func() {
	var s scenario

	ginkgo.BeforeEach(func() {
		s = planarBoxScenario()
		s.qdot = []float64{0.3, -1.2, 0.4}
		for i := range s.contacts {
			s.contacts[i].Acceleration = 0
		}
	})

	normalVelocities := func(qdot []float64) []float64 {
		d := model.NewData(s.m)
		out := make([]float64, len(s.contacts))
		for i, c := range s.contacts {
			v := kinematics.PointVelocity(s.m, d, s.q, qdot, c.BodyID, c.Point, true)
			out[i] = c.Normal.Dot(v)
		}
		return out
	}

	ginkgo.It("stops the contact points for a plastic impact", func() {
		qdotPlus := make([]float64, 3)
		gomega.Expect(ComputeContactImpulsesLagrangian(s.m, s.q, s.qdot, s.contacts, qdotPlus)).To(gomega.Succeed())
		expectClose(normalVelocities(qdotPlus), []float64{0, 0})

		// falling box: both impulses push up, so they come out negative
		for _, c := range s.contacts {
			gomega.Expect(c.Force).To(gomega.BeNumerically("<", 0))
		}
	})

	ginkgo.It("reverses the approach velocity with restitution", func() {
		before := normalVelocities(s.qdot)
		gomega.Expect(SetRestitutionTargets(s.m, s.q, s.qdot, s.contacts, 0.5)).To(gomega.Succeed())

		qdotPlus := make([]float64, 3)
		gomega.Expect(ComputeContactImpulsesLagrangian(s.m, s.q, s.qdot, s.contacts, qdotPlus)).To(gomega.Succeed())
		expectClose(normalVelocities(qdotPlus), []float64{-0.5 * before[0], -0.5 * before[1]})
	})

	ginkgo.It("leaves velocities unchanged without contacts", func() {
		qdotPlus := make([]float64, 3)
		gomega.Expect(ComputeContactImpulsesLagrangian(s.m, s.q, s.qdot, nil, qdotPlus)).To(gomega.Succeed())
		expectClose(qdotPlus, s.qdot)
	})

	ginkgo.It("rejects a negative restitution coefficient", func() {
		err := SetRestitutionTargets(s.m, s.q, s.qdot, s.contacts, -1)
		gomega.Expect(err).To(gomega.MatchError(ErrPrecondition))
	})
})
