package extract

import "fmt"

const (
	// DefaultWindow is the number of statement lines sent per model call.
	DefaultWindow = 40
	// DefaultOverlap is how many lines consecutive windows share.
	DefaultOverlap = 10
)

// Window is a contiguous slice of statement lines.
type Window struct {
	Index int
	Start int
	Lines []string
}

// Windows splits lines into overlapping windows. Window i starts at
// i*(size-overlap); the last window may be shorter than size.
func Windows(lines []string, size, overlap int) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("Windows: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("Windows: overlap must be in [0, %d), got %d", size, overlap)
	}

	stride := size - overlap
	var out []Window
	for start := 0; start < len(lines); start += stride {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, Window{
			Index: len(out),
			Start: start,
			Lines: lines[start:end],
		})
	}
	return out, nil
}
