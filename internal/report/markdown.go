package report

import (
	"fmt"
	"sort"
	"strings"
)

var statusEmoji = map[string]string{
	"reject":   "🔴",
	"unlikely": "🟠",
	"maybe":    "🟡",
	"good":     "🟢",
	"great":    "💚",
	"no-data":  "⚪",
}

func emoji(status string) string {
	if e, ok := statusEmoji[status]; ok {
		return e
	}
	return "⚪"
}

// fv formats an optional value with a unit, dash placeholder when absent.
func fv(v *float64, unit string, prec int) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.*f%s", prec, *v, unit)
}

// Markdown renders the full briefing: a ranked summary table followed by a
// detail section per site.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# ✈️ Flight Triage — %s\n\n", doc.TargetDate)
	fmt.Fprintf(&b, "*Generated: %s (run %s)*\n\n", doc.GeneratedAt.Format("2006-01-02 15:04 UTC"), doc.RunID)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Site | Drive | Status | Base @13 | Margin | W700 | CAPE | Lapse | W* | Thermal | Flyable | Confidence |\n")
	b.WriteString("|------|-------|--------|----------|--------|------|------|-------|----|---------|---------|------------|\n")
	for _, s := range doc.Sites {
		fmt.Fprintf(&b, "| %s | %.1fh | %s **%s** | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Name, s.DriveHours, emoji(s.Status), strings.ToUpper(s.Status),
			fv(s.Ref.CloudBaseMSL, "m", 0),
			fv(s.Ref.BaseMargin, "m", 0),
			fv(s.Ref.Wind700, "m/s", 1),
			fv(s.Ref.CAPE, "", 0),
			fv(s.Ref.LapseRate, "°C/km", 1),
			fv(s.Ref.WStar, "m/s", 2),
			durationCell(s.Thermal),
			durationCell(s.Flyable),
			s.Agreement.Confidence,
		)
	}
	b.WriteString("\n")

	for _, s := range doc.Sites {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "## %s %s — **%s** (score %d)\n\n", emoji(s.Status), s.Name, strings.ToUpper(s.Status), s.Score)

		b.WriteString("### Key metrics @13:00 local\n\n")
		fmt.Fprintf(&b, "- **Cloud base**: %s MSL (margin %s over peaks)\n",
			fv(s.Ref.CloudBaseMSL, "m", 0), fv(s.Ref.BaseMargin, "m", 0))
		fmt.Fprintf(&b, "- **Wind @700hPa**: %s | **Gusts**: %s\n",
			fv(s.Ref.Wind700, " m/s", 1), fv(s.Ref.Gusts, " m/s", 1))
		fmt.Fprintf(&b, "- **CAPE**: %s | **LI**: %s | **Lapse**: %s\n",
			fv(s.Ref.CAPE, " J/kg", 0), fv(s.Ref.LiftedIndex, "", 1), fv(s.Ref.LapseRate, " °C/km", 1))
		fmt.Fprintf(&b, "- **BL**: %s | **W\\***: %s | **Cloud**: %s | **SW**: %s\n",
			fv(s.Ref.BoundaryLayer, " m", 0), fv(s.Ref.WStar, " m/s", 2),
			fv(s.Ref.Cloudcover, "%", 0), fv(s.Ref.Shortwave, " W/m²", 0))
		fmt.Fprintf(&b, "- **Thermal window**: %s | **Flyable**: %s\n\n",
			windowCell(s.Thermal), windowCell(s.Flyable))

		if len(s.Hours) > 0 {
			b.WriteString("### Hourly profile\n\n")
			b.WriteString("| Hour | Base | W* | W700 | Gusts | CAPE | Precip |\n")
			b.WriteString("|------|------|----|------|-------|------|--------|\n")
			for _, h := range s.Hours {
				fmt.Fprintf(&b, "| %02d:00 | %s | %s | %s | %s | %s | %s |\n",
					h.Hour,
					fv(h.CloudBaseMSL, "m", 0),
					fv(h.WStar, "", 2),
					fv(h.Wind700, "", 1),
					fv(h.Gusts, "", 1),
					fv(h.CAPE, "", 0),
					fv(h.Precipitation, "", 1),
				)
			}
			b.WriteString("\n")
		}

		if len(s.Flags) > 0 {
			b.WriteString("### Flags\n\n")
			for _, f := range s.Flags {
				fmt.Fprintf(&b, "- ⚠ **%s**: %s\n", f.ID, f.Detail)
			}
			b.WriteString("\n")
		}
		if len(s.Positives) > 0 {
			b.WriteString("### Positives\n\n")
			for _, p := range s.Positives {
				fmt.Fprintf(&b, "- ✓ **%s**: %s\n", p.ID, p.Detail)
			}
			b.WriteString("\n")
		}
		if len(s.Cascade) > 0 {
			b.WriteString("### Downgrades\n\n")
			for _, t := range s.Cascade {
				fmt.Fprintf(&b, "- **%s**: %s\n", t.Rule, t.Detail)
			}
			b.WriteString("\n")
		}

		if len(s.Verdicts) > 0 {
			parts := make([]string, 0, len(s.Verdicts))
			for _, v := range s.Verdicts {
				parts = append(parts, fmt.Sprintf("%s: %s (%dh)", v.Variant, v.Verdict, v.ThermalHours))
			}
			fmt.Fprintf(&b, "**Per-model**: %s\n\n", strings.Join(parts, ", "))
		}
		if s.Agreement.Score != nil {
			fmt.Fprintf(&b, "**Model agreement**: %.0f%% — confidence %s\n\n", *s.Agreement.Score*100, s.Agreement.Confidence)
		}
		for _, e := range s.Ensembles {
			params := make([]string, 0, len(e.Stats))
			for p := range e.Stats {
				params = append(params, p)
			}
			sort.Strings(params)
			spreads := make([]string, 0, len(params))
			for _, p := range params {
				spreads = append(spreads, fmt.Sprintf("%s ±%.1f", p, e.Stats[p].Spread))
			}
			if len(spreads) > 0 {
				fmt.Fprintf(&b, "**%s spread**: %s\n\n", e.Source, strings.Join(spreads, ", "))
			}
		}
		if len(s.Models) > 0 {
			fmt.Fprintf(&b, "**Models**: %s\n\n", strings.Join(s.Models, ", "))
		}
	}
	return b.String()
}

func durationCell(w WindowInfo) string {
	if w.Duration == 0 {
		return "—"
	}
	return fmt.Sprintf("%dh", w.Duration)
}

func windowCell(w WindowInfo) string {
	if w.Duration == 0 {
		return "none"
	}
	return fmt.Sprintf("%dh (%02d:00–%02d:00)", w.Duration, w.StartHour, w.EndHour)
}
