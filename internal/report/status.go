package report

import (
	"fmt"
	"sort"
	"strings"
)

// knownPhases is the stable rendering order for deployment phases. Phases
// outside this list render after it, sorted by name, so repeated runs with
// the same status map produce byte-identical bodies.
var knownPhases = []string{"infrastructure", "application", "validation"}

// statusIcon maps a phase result to its marker.
func statusIcon(result string) string {
	switch result {
	case "success":
		return "✅"
	case "failure", "failed":
		return "❌"
	default:
		return "⏭️"
	}
}

// renderStatus renders the per-phase status block shared by all deployment
// failure variants.
func renderStatus(status map[string]string) string {
	if len(status) == 0 {
		return ""
	}

	var phases []string
	seen := make(map[string]bool)
	for _, phase := range knownPhases {
		if _, ok := status[phase]; ok {
			phases = append(phases, phase)
			seen[phase] = true
		}
	}
	var rest []string
	for phase := range status {
		if !seen[phase] {
			rest = append(rest, phase)
		}
	}
	sort.Strings(rest)
	phases = append(phases, rest...)

	var b strings.Builder
	b.WriteString("### Deployment Status\n\n")
	for _, phase := range phases {
		fmt.Fprintf(&b, "- %s %s: %s\n", statusIcon(status[phase]), phase, status[phase])
	}
	return b.String()
}
