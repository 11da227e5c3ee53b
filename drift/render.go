package drift

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteText writes the short human-readable form of a report.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", r.TaskID, r.TaskTitle)
	fmt.Fprintf(&b, "score: %s\n", r.Score)
	if !r.HasFindings() {
		b.WriteString("findings: none\n")
	} else {
		b.WriteString("findings:\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Kind, f.Summary)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report as two-space indented JSON followed by a newline.
func WriteJSON(w io.Writer, r Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalReport encodes a report the way it is printed and persisted.
// HTML escaping is off so summaries such as "(3 > 1)" stay readable.
func MarshalReport(r Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeJSON is json.Marshal without HTML escaping, for nested marshalers.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// LogMessage is the one-line summary recorded against the task.
func LogMessage(r Report) string {
	if !r.HasFindings() {
		return "Yagnidrift: OK (no findings)"
	}

	kinds := r.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	msg := fmt.Sprintf("Yagnidrift: %s (%s)", r.Score, strings.Join(names, ", "))

	if len(r.Recommendations) > 0 {
		if next := strings.TrimSpace(r.Recommendations[0].Action); next != "" {
			msg += " | next: " + next
		}
	}
	return msg
}
