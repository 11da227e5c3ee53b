package drift

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creepReport(t *testing.T) Report {
	t.Helper()
	p := mustPolicy(t, map[string]any{"max_new_files": int64(1), "max_new_dirs": int64(0)})
	files := []string{"src/factories/payment_factory.py", "src/adapters/http_adapter.py"}
	return Compute(Input{
		TaskID:    "t1",
		TaskTitle: "Checkout",
		Policy:    p,
		Changes:   &ChangeSet{ChangedFiles: files, NewFiles: files},
	})
}

func TestWriteText(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, NoPolicyReport("t1", "Checkout")))
		assert.Equal(t, "t1: Checkout\nscore: green\nfindings: none\n", buf.String())
	})

	t.Run("with findings", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, creepReport(t)))

		want := strings.Join([]string{
			"t1: Checkout",
			"score: yellow",
			"findings:",
			"- [warn] too_many_new_files: Task adds many new files (2 > 1)",
			"- [warn] too_many_new_dirs: Task adds many new directories (2 > 0)",
			"- [warn] speculative_abstraction: Task appears to add speculative abstraction layers not required by current scope",
			"",
		}, "\n")
		assert.Equal(t, want, buf.String())
	})
}

func TestMarshalReport(t *testing.T) {
	r := creepReport(t)
	r.Block = "```yagnidrift\nmax_new_files = 1\n```"

	data, err := MarshalReport(r)
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(data, []byte("}\n")))
	assert.Contains(t, string(data), `"summary": "Task adds many new files (2 > 1)"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"task_id", "task_title", "git_root", "score", "spec", "telemetry", "findings", "recommendations", "_yagnidrift_block"} {
		assert.Contains(t, decoded, key)
	}
	assert.Nil(t, decoded["git_root"])

	spec, ok := decoded["spec"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), spec["max_new_files"])
	assert.Equal(t, []any{".workgraph/**", ".git/**"}, spec["ignore"])
}

func TestMarshalReportOmitsEmptyBlock(t *testing.T) {
	data, err := MarshalReport(NoPolicyReport("t1", "x"))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "_yagnidrift_block")
	assert.Contains(t, string(data), `"spec": null`)
	assert.Contains(t, string(data), `"findings": []`)
}

func TestLogMessage(t *testing.T) {
	assert.Equal(t, "Yagnidrift: OK (no findings)", LogMessage(NoPolicyReport("t1", "x")))

	assert.Equal(t,
		"Yagnidrift: yellow (speculative_abstraction, too_many_new_dirs, too_many_new_files) | next: Split work into smaller tasks or remove speculative file scaffolding",
		LogMessage(creepReport(t)))

	assert.Equal(t,
		"Yagnidrift: yellow (invalid_yagnidrift_spec) | next: Fix the yagnidrift TOML block so it parses",
		LogMessage(InvalidPolicyReport("t1", "x", errors.New("boom"))))
}

func TestDegradedReports(t *testing.T) {
	t.Run("no policy", func(t *testing.T) {
		r := NoPolicyReport("t1", "Title")
		assert.Equal(t, ScoreGreen, r.Score)
		assert.Nil(t, r.Policy)
		assert.Equal(t, NoteNoPolicy, r.Telemetry.Note)
		assert.False(t, r.HasFindings())
	})

	t.Run("invalid policy", func(t *testing.T) {
		r := InvalidPolicyReport("t1", "Title", errors.New("toml: expected value"))
		assert.Equal(t, ScoreYellow, r.Score)
		assert.Equal(t, "toml: expected value", r.Telemetry.ParseError)
		require.Len(t, r.Findings, 1)
		assert.Equal(t, KindInvalidPolicy, r.Findings[0].Kind)
		require.Len(t, r.Recommendations, 1)
		assert.Equal(t, PriorityHigh, r.Recommendations[0].Priority)
	})
}

func TestDegradedTelemetryJSON(t *testing.T) {
	decodeTelemetry := func(t *testing.T, r Report) map[string]any {
		t.Helper()
		data, err := MarshalReport(r)
		require.NoError(t, err)
		var decoded struct {
			Telemetry map[string]any `json:"telemetry"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		return decoded.Telemetry
	}

	assert.Equal(t, map[string]any{"note": NoteNoPolicy}, decodeTelemetry(t, NoPolicyReport("t1", "x")))
	assert.Equal(t,
		map[string]any{"parse_error": "expected <value>"},
		decodeTelemetry(t, InvalidPolicyReport("t1", "x", errors.New("expected <value>"))))

	// Computed reports keep their counters, zero or not.
	clean := Compute(Input{TaskID: "t1", Policy: mustPolicy(t, nil), Changes: &ChangeSet{}})
	assert.Equal(t,
		map[string]any{"files_changed": float64(0), "new_files": float64(0), "new_dirs": float64(0)},
		decodeTelemetry(t, clean))

	data, err := MarshalReport(InvalidPolicyReport("t1", "x", errors.New("a > b")))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parse_error": "a > b"`)
}

func TestDegradedTelemetryRoundTrip(t *testing.T) {
	data, err := MarshalReport(InvalidPolicyReport("t1", "x", errors.New("bad")))
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	again, err := MarshalReport(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	var counted Telemetry
	require.NoError(t, json.Unmarshal([]byte(`{"files_changed":0,"new_files":0,"new_dirs":0}`), &counted))
	out, err := json.Marshal(counted)
	require.NoError(t, err)
	assert.JSONEq(t, `{"files_changed":0,"new_files":0,"new_dirs":0}`, string(out))
}
