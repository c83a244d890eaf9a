package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"stroke-triage/internal/center"
	"stroke-triage/internal/frontier"
)

// GenerateDestinationPie creates a Mermaid pie of how often each first
// destination was the cost-effective choice.
func GenerateDestinationPie(res *frontier.Results) string {
	counts := res.CountsByCenter()
	if len(counts) == 0 {
		return ""
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Cost-Effective First Destination\n")
	for _, label := range labels {
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", label, counts[label]))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateQALYChart creates a Mermaid bar chart of the median QALYs per
// strategy. Strategies with no feasible draw are left out.
func GenerateQALYChart(summaries []frontier.Summary) string {
	var labels []string
	var values []string
	maxVal := 0.0

	for _, s := range summaries {
		if s.Feasible == 0 || math.IsNaN(s.MedianQALY) {
			continue
		}
		// Mermaid axis labels choke on parentheses
		safeName := strings.NewReplacer("(", "", ")", "", " ", "_").Replace(s.Strategy.String())
		labels = append(labels, fmt.Sprintf("\"%s\"", safeName))
		values = append(values, fmt.Sprintf("%.2f", s.MedianQALY))
		if s.MedianQALY > maxVal {
			maxVal = s.MedianQALY
		}
	}
	if len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Median QALYs by Strategy\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"QALYs\" 0 --> %d\n", int(math.Ceil(maxVal*1.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateNetworkFlowchart draws the patient location, the reachable
// centers with their drive times, and the primary-to-comprehensive
// transfer links.
func GenerateNetworkFlowchart(centers []center.Center, travel center.TravelTimes) string {
	if len(centers) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("flowchart LR\n")
	sb.WriteString("    loc((Patient))\n")
	for _, c := range centers {
		sb.WriteString(fmt.Sprintf("    c%s[\"%s %s\"]\n", c.ID, c.ID, c.Kind.Abbrev()))
	}
	for _, c := range centers {
		if tt, ok := travel[c.ID]; ok && tt.Known() {
			sb.WriteString(fmt.Sprintf("    loc -- \"%s min\" --> c%s\n", tt, c.ID))
		}
	}
	for _, c := range centers {
		if c.Transfer == nil {
			continue
		}
		if math.IsNaN(c.Transfer.Minutes) {
			sb.WriteString(fmt.Sprintf("    c%s -.-> c%s\n", c.ID, c.Transfer.DestinationID))
			continue
		}
		sb.WriteString(fmt.Sprintf("    c%s -. \"%g min\" .-> c%s\n", c.ID, c.Transfer.Minutes, c.Transfer.DestinationID))
	}
	sb.WriteString("```")
	return sb.String()
}
