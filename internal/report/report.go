// Package report renders solve results for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/san-kum/contactdyn/internal/config"
	"github.com/san-kum/contactdyn/internal/contacts"
	"github.com/san-kum/contactdyn/internal/experiment"
	"github.com/san-kum/contactdyn/internal/linalg"
)

// ViolationTolerance separates a satisfied constraint from a violated one in
// the OK column.
const ViolationTolerance = 1e-8

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Result writes the joint and contact tables followed by the metrics.
func Result(w io.Writer, s *config.Scenario, res *experiment.Result) error {
	name := s.Name
	if name == "" {
		name = s.ModelName
	}
	output := "QDDOT"
	force := "FORCE"
	if res.Impulse {
		output, force = "QDOT+", "IMPULSE"
	}

	fmt.Fprintln(w, Header.Render(fmt.Sprintf("%s  %s/%s", name, res.Method, s.Solver)))
	fmt.Fprintln(w)

	t := newTable(w)
	fmt.Fprintf(t, "DOF\tQ\tQDOT\tTAU\t%s\n", output)
	for i := range res.Output {
		fmt.Fprintf(t, "%d\t%.6f\t%.6f\t%.6f\t%.6f\n", i, s.Q[i], s.QDot[i], s.Tau[i], res.Output[i])
	}
	if err := t.Flush(); err != nil {
		return err
	}

	if len(s.Contacts) > 0 {
		fmt.Fprintln(w)
		t = newTable(w)
		fmt.Fprintf(t, "CONTACT\tBODY\tNORMAL\tTARGET\t%s\tVIOLATION\tOK\n", force)
		for i, c := range s.Contacts {
			ok := StatusOK.Render("yes")
			if math.Abs(res.Violation[i]) > ViolationTolerance {
				ok = StatusFail.Render("no")
			}
			fmt.Fprintf(t, "%s\t%d\t%v\t%.6f\t%.6f\t%.3e\t%s\n",
				s.ContactNames[i], c.BodyID, c.Normal, res.Targets[i], res.Forces[i], res.Violation[i], ok)
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	return Metrics(w, res.Metrics)
}

// Metrics writes one styled line per metric in name order.
func Metrics(w io.Writer, m map[string]float64) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-22s", name)),
			MetricValue.Render(fmt.Sprintf("%.6g", m[name]))); err != nil {
			return err
		}
	}
	return nil
}

// Failure describes a solve error, naming the offending constraints when the
// error carries them.
func Failure(w io.Writer, s *config.Scenario, err error) {
	fmt.Fprintln(w, StatusFail.Render("solve failed: ")+err.Error())

	var ne *contacts.NumericalError
	if !errors.As(err, &ne) {
		return
	}
	for _, i := range ne.Constraints {
		if i < len(s.ContactNames) {
			fmt.Fprintln(w, Subtle.Render("  suspect constraint: ")+s.ContactNames[i])
		}
	}
	var se *linalg.SolveError
	if errors.As(err, &se) && s.Solver != linalg.ColPivHouseholderQR {
		fmt.Fprintln(w, Subtle.Render("  rerun with --solver qr to locate dependent constraints"))
	}
}

// Comparison writes one row per method with its largest force and
// violation.
func Comparison(w io.Writer, results []*experiment.Result, errs map[string]error) error {
	t := newTable(w)
	fmt.Fprintln(t, "METHOD\tPEAK FORCE\tVIOLATION\tTIME (us)\tSTATUS")
	for _, res := range results {
		fmt.Fprintf(t, "%s\t%.6f\t%.3e\t%.1f\t%s\n", res.Method,
			res.Metrics["peak_force"], res.Metrics["constraint_violation"], res.Metrics["solve_time_us"],
			StatusOK.Render("ok"))
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(t, "%s\t-\t-\t-\t%s\n", name, StatusFail.Render(errs[name].Error()))
	}
	return t.Flush()
}
