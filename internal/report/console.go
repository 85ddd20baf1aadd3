package report

import (
	"fmt"
	"strings"
)

// Console renders the compact terminal summary.
func Console(doc Document) string {
	var b strings.Builder
	rule := strings.Repeat("=", 76)
	fmt.Fprintf(&b, "%s\n  FLIGHT TRIAGE — forecast for %s\n%s\n", rule, doc.TargetDate, rule)

	for _, s := range doc.Sites {
		fmt.Fprintf(&b, "\n  %s %-15s [%s]  (score %d)\n", emoji(s.Status), s.Name, strings.ToUpper(s.Status), s.Score)
		fmt.Fprintf(&b, "     Base: %s MSL (margin %s)  |  W700: %s  |  Gusts: %s\n",
			fv(s.Ref.CloudBaseMSL, "m", 0), fv(s.Ref.BaseMargin, "m", 0),
			fv(s.Ref.Wind700, "m/s", 1), fv(s.Ref.Gusts, "m/s", 1))
		fmt.Fprintf(&b, "     CAPE: %s  |  Lapse: %s  |  BL: %s  |  W*: %s\n",
			fv(s.Ref.CAPE, "", 0), fv(s.Ref.LapseRate, "°C/km", 1),
			fv(s.Ref.BoundaryLayer, "m", 0), fv(s.Ref.WStar, "m/s", 2))
		fmt.Fprintf(&b, "     Thermal: %s  |  Flyable: %s  |  Confidence: %s\n",
			windowCell(s.Thermal), windowCell(s.Flyable), s.Agreement.Confidence)

		for _, f := range s.Flags {
			fmt.Fprintf(&b, "     ⚠ %s: %s\n", f.ID, f.Detail)
		}
		for _, p := range s.Positives {
			fmt.Fprintf(&b, "     ✓ %s: %s\n", p.ID, p.Detail)
		}
		for _, t := range s.Cascade {
			fmt.Fprintf(&b, "     ↓ %s: %s\n", t.Rule, t.Detail)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}
