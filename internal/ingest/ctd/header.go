package ctd

import "strings"

// DetectHeaderLine finds the index of the header line in a CTD export.
// The preamble before the header is free-form, so three strategies are tried
// in priority order:
//
//  1. a line containing both "odigo" and "stacion" (accent-free fragments of
//     Código/Estación);
//  2. a line defining VAR_0 and VAR_1 whose next line holds an A0 datum;
//  3. the line before the first row starting with A0 or A1.
//
// Returns -1 when no strategy fires.
func DetectHeaderLine(lines []string) int {
	for i, line := range lines {
		l := strings.ToLower(strings.TrimSpace(line))

		if strings.Contains(l, "odigo") && strings.Contains(l, "stacion") {
			return i
		}

		if strings.Contains(l, "var_0") && strings.Contains(l, "var_1") {
			if i+1 < len(lines) && strings.Contains(lines[i+1], "A0") {
				return i
			}
		}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "A0") || strings.HasPrefix(trimmed, "A1") {
			if i == 0 {
				return -1
			}
			return i - 1
		}
	}

	return -1
}
