package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd(t *testing.T) {
	tests := []struct {
		name    string
		checks  []DoctorCheck
		wantErr string
		want    []string
	}{
		{
			name: "all reachable",
			checks: []DoctorCheck{
				{Name: "embedding (openai/text-embedding-3-small)"},
				{Name: "llm (openai/gpt-4o-mini)"},
			},
			want: []string{"embedding (openai/text-embedding-3-small)", "OK"},
		},
		{
			name: "one failure",
			checks: []DoctorCheck{
				{Name: "embedding (ollama/nomic-embed-text)", Err: errors.New("connection refused")},
				{Name: "llm (ollama/llama3.2)"},
			},
			wantErr: "1 check(s) failed",
			want:    []string{"FAILED: connection refused", "OK"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestApp(t)
			SetDoctor(func(context.Context) []DoctorCheck { return tt.checks })

			out, err := execute(t, "doctor")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestDoctorCmd_NotConfigured(t *testing.T) {
	setupTestApp(t)
	SetDoctor(nil)

	_, err := execute(t, "doctor")

	assert.ErrorIs(t, err, errNotConfigured)
}
