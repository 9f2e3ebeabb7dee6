package questions

import (
	"fmt"
	"strings"
)

// Fallback returns exactly count template questions for the role. The bank is used
// in order and the padding template repeats once it is exhausted.
func Fallback(role string, types []string, count int) []string {
	if count <= 0 {
		return []string{}
	}

	bank := fallbackBank(role, types)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if i < len(bank) {
			out = append(out, bank[i])
		} else {
			out = append(out, fmt.Sprintf("Tell me about your experience with %s responsibilities.", role))
		}
	}
	return out
}

func fallbackBank(role string, types []string) []string {
	focus := strings.Join(types, " and ")
	if focus == "" {
		focus = "technical"
	}
	return []string{
		fmt.Sprintf("What interests you about the %s role?", role),
		fmt.Sprintf("Describe a challenging %s-related project you worked on.", role),
		fmt.Sprintf("How do you keep your %s skills current?", role),
		fmt.Sprintf("Tell me about a time you solved a difficult problem in %s.", role),
		fmt.Sprintf("What would you do differently in your last %s project?", role),
		fmt.Sprintf("Which technologies are you most comfortable using for %s tasks?", role),
		fmt.Sprintf("How do you approach learning new skills in the %s domain?", role),
		fmt.Sprintf("Can you walk me through your favorite %s-related project?", role),
		fmt.Sprintf("What's the most innovative solution you've implemented as a %s?", role),
		fmt.Sprintf("How do you handle tight deadlines in %s work?", role),
		fmt.Sprintf("Describe your experience with %s in %s context.", focus, role),
		fmt.Sprintf("What's your approach to collaborating with team members in %s projects?", role),
	}
}
