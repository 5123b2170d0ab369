package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultMaxAccesses bounds the trace length accepted by the CLI, 15 million
// records. Loaders built with WithMaxAccesses(DefaultMaxAccesses) refuse longer
// traces instead of growing without bound.
const DefaultMaxAccesses = 15000000

// ParseError reports a trace line that is not a well-formed record.
type ParseError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the offending line.
	Text string
	// Reason describes what is wrong with the line.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// CapacityExceededError reports a trace holding more accesses than the loader
// was allowed to keep.
type CapacityExceededError struct {
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("trace exceeds capacity of %d accesses", e.Limit)
}

// LoaderOption configures a trace loader.
type LoaderOption func(*loader)

// WithMaxAccesses bounds the number of accesses. Zero means unbounded; a
// negative bound makes Parse fail.
func WithMaxAccesses(n int) LoaderOption {
	return func(l *loader) {
		l.maxAccesses = n
	}
}

// WithTrailingBlankLines tolerates blank lines after the last record. Blank
// lines anywhere else are still rejected.
func WithTrailingBlankLines() LoaderOption {
	return func(l *loader) {
		l.allowTrailingBlank = true
	}
}

type loader struct {
	maxAccesses        int
	allowTrailingBlank bool
}

// LoadFile reads a trace file from disk.
func LoadFile(path string, opts ...LoaderOption) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace %s: %w", path, err)
	}

	return t, nil
}

// Parse reads trace records, one `<L|S> 0x<hex>` per line, until EOF.
func Parse(r io.Reader, opts ...LoaderOption) (*Trace, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	if l.maxAccesses < 0 {
		return nil, fmt.Errorf("max accesses %d must not be negative", l.maxAccesses)
	}

	return l.parse(r)
}

func (l *loader) parse(r io.Reader) (*Trace, error) {
	t := &Trace{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	firstBlank := 0
	firstBlankText := ""

	for scanner.Scan() {
		lineNo++
		text := scanner.Text()

		if strings.TrimSpace(text) == "" {
			if !l.allowTrailingBlank {
				return nil, &ParseError{Line: lineNo, Text: text, Reason: "blank line"}
			}
			if firstBlank == 0 {
				firstBlank = lineNo
				firstBlankText = text
			}
			continue
		}

		if firstBlank != 0 {
			return nil, &ParseError{
				Line:   firstBlank,
				Text:   firstBlankText,
				Reason: "blank line before end of trace",
			}
		}

		access, err := parseRecord(lineNo, text)
		if err != nil {
			return nil, err
		}

		if l.maxAccesses > 0 && len(t.accesses) >= l.maxAccesses {
			return nil, &CapacityExceededError{Limit: l.maxAccesses}
		}

		t.accesses = append(t.accesses, access)
		if access.Kind == Store {
			t.stores++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return t, nil
}

func parseRecord(lineNo int, text string) (Access, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Access{}, &ParseError{
			Line:   lineNo,
			Text:   text,
			Reason: fmt.Sprintf("expected 2 fields, got %d", len(fields)),
		}
	}

	var kind Kind
	switch fields[0] {
	case "L":
		kind = Load
	case "S":
		kind = Store
	default:
		return Access{}, &ParseError{
			Line:   lineNo,
			Text:   text,
			Reason: fmt.Sprintf("unknown access kind %q", fields[0]),
		}
	}

	hex := fields[1]
	if !strings.HasPrefix(hex, "0x") && !strings.HasPrefix(hex, "0X") {
		return Access{}, &ParseError{
			Line:   lineNo,
			Text:   text,
			Reason: "address must be 0x-prefixed hexadecimal",
		}
	}

	addr, err := strconv.ParseUint(hex[2:], 16, 32)
	if err != nil {
		return Access{}, &ParseError{
			Line:   lineNo,
			Text:   text,
			Reason: fmt.Sprintf("bad address: %v", err),
		}
	}

	return Access{Kind: kind, Address: uint32(addr)}, nil
}
