package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeCommand, "query failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, CodeCommand, resp.Error.Code)
	assert.Equal(t, "query failed", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"file": "company.cue", "line": "42"}
	err := formatter.Error(CodeLoad, "malformed definitions", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Imported 2 relations")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Imported 2 relations")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error(CodeCommand, "query failed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_COMMAND]")
	assert.Contains(t, buf.String(), "query failed")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "company.txt"}
	err := formatter.Error(CodeCommand, "query failed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_COMMAND]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		wantLog  bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Loading %s", "company.txt")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Loading company.txt")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "UNKNOWN_RELATION",
		Message: "Unknown relation: Nope",
		Details: []string{"query: Nope"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN_RELATION", decoded.Code)
	assert.Equal(t, "Unknown relation: Nope", decoded.Message)
}

func TestOutputFormatter_Relation(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"text", "Employees = {Name, Age\n  \"A\", 30\n  \"B\", 25\n}\n\nName\tAge\nA\t30\nB\t25\n"},
		{"csv", "Name,Age\nA,30\nB,25\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: tt.format, Writer: buf}
			require.NoError(t, formatter.Relation(testutil.Employees(), "q-1"))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_RelationJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, formatter.Relation(testutil.Employees(), "q-1"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "q-1", resp.TraceID)
	assert.Equal(t, map[string]any{
		"name":   "Employees",
		"header": []any{"Name", "Age"},
		"rows":   []any{[]any{"A", float64(30)}, []any{"B", float64(25)}},
	}, resp.Data)
}

func TestOutputFormatter_QueryError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, formatter.QueryError(qerr.New(qerr.KindUnknownRelation, "Unknown relation: %s", "Nope"), "q-2"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "q-2", resp.TraceID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_RELATION", resp.Error.Code)
	assert.Equal(t, "UNKNOWN_RELATION: Unknown relation: Nope", resp.Error.Message)
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", qerr.New(qerr.KindDefinition, "bad row"))
	assert.Equal(t, "DEFINITION_ERROR", ErrorCode(wrapped, CodeLoad))
	assert.Equal(t, CodeStore, ErrorCode(errors.New("disk full"), CodeStore))
}

func TestExitErrors(t *testing.T) {
	base := errors.New("boom")
	err := WrapExitError(ExitCommandError, "failed to open database", base)
	assert.Equal(t, "failed to open database: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "no queries found", NewExitError(ExitFailure, "no queries found").Error())
}
