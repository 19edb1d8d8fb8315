package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

var (
	boundedRange = regexp.MustCompile(`^\s*(\d*\.?\d+)\s*(?:-|–|—|to)\s*(\d*\.?\d+)`)
	upperOnly    = regexp.MustCompile(`^\s*(?:<=|<|≤|up to)\s*(\d*\.?\d+)`)
)

// ParseRange reads a lab-printed reference range such as "12-15.5 g/dL",
// "4.0 – 5.5", "0.6 to 1.3" or "<5". Trailing units are ignored.
func ParseRange(text string) (reference.Range, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, "[]()")
	if !strings.ContainsAny(s, "-–—") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", "-", 1)
	}

	if m := boundedRange.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		r := reference.Range{Min: lo, Max: hi}
		if !r.Valid() {
			return reference.Range{}, fmt.Errorf("range %q has min above max", text)
		}
		return r, nil
	}
	if m := upperOnly.FindStringSubmatch(s); m != nil {
		hi, _ := strconv.ParseFloat(m[1], 64)
		return reference.Range{Min: 0, Max: hi}, nil
	}
	return reference.Range{}, fmt.Errorf("unparseable range %q", text)
}
