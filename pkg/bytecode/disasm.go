package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a function body.
func Disassemble(code []Instruction) string {
	return DisassembleWithName("", code)
}

// DisassembleWithName returns a human-readable listing with a name header.
func DisassembleWithName(name string, code []Instruction) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Instructions: %d\n", len(code)))

	targets := branchTargets(code)
	for offset, ins := range code {
		marker := "  "
		if targets[offset] {
			marker = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%04X  %s\n", marker, offset, ins))
	}

	return sb.String()
}

// DisassembleToLines returns the listing as a slice of lines.
func DisassembleToLines(code []Instruction) []string {
	lines := make([]string, 0, len(code))
	for offset, ins := range code {
		lines = append(lines, fmt.Sprintf("%04X  %s", offset, ins))
	}
	return lines
}

// branchTargets collects every offset some branch jumps to.
func branchTargets(code []Instruction) map[int]bool {
	targets := make(map[int]bool)
	for _, ins := range code {
		if t, ok := ins.Target(); ok {
			targets[t] = true
		}
	}
	return targets
}
