// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the raw stack that lives under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[idx+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		paths = append(paths, frame)
	}
	return paths
}
