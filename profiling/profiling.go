// Package profiling captures a CPU profile around a sweep and summarizes where
// the time went.
package profiling

import (
	"bytes"
	"fmt"
	"os"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/google/pprof/profile"
)

// Session is a running CPU profile.
type Session struct {
	path string
	buf  *bytes.Buffer
}

// Start begins CPU profiling. The raw profile is written to path when the
// session stops, unless path is empty.
func Start(path string) (*Session, error) {
	s := &Session{path: path, buf: bytes.NewBuffer(nil)}

	if err := pprof.StartCPUProfile(s.buf); err != nil {
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	return s, nil
}

// Stop ends profiling, saves the profile and returns its summary.
func (s *Session) Stop(top int) (Summary, error) {
	pprof.StopCPUProfile()

	if s.path != "" {
		if err := os.WriteFile(s.path, s.buf.Bytes(), 0644); err != nil {
			return Summary{}, fmt.Errorf("failed to write CPU profile: %w", err)
		}
	}

	prof, err := profile.ParseData(s.buf.Bytes())
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse CPU profile: %w", err)
	}

	return Summarize(prof, top), nil
}

// FunctionSamples is the flat sample count of one function.
type FunctionSamples struct {
	Name string
	Flat int64
}

// Summary is a condensed view of a CPU profile.
type Summary struct {
	Samples  int
	Duration time.Duration
	Top      []FunctionSamples
}

// Summarize ranks functions by the samples in which they were the leaf frame
// and keeps the top n.
func Summarize(p *profile.Profile, n int) Summary {
	flat := map[string]int64{}
	for _, sample := range p.Sample {
		if len(sample.Value) == 0 || len(sample.Location) == 0 {
			continue
		}

		lines := sample.Location[0].Line
		if len(lines) == 0 || lines[0].Function == nil {
			continue
		}

		flat[lines[0].Function.Name] += sample.Value[0]
	}

	top := make([]FunctionSamples, 0, len(flat))
	for name, v := range flat {
		top = append(top, FunctionSamples{Name: name, Flat: v})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Flat != top[j].Flat {
			return top[i].Flat > top[j].Flat
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > n {
		top = top[:n]
	}

	return Summary{
		Samples:  len(p.Sample),
		Duration: time.Duration(p.DurationNanos),
		Top:      top,
	}
}
