package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		set  string
		want string
	}{
		{name: "release", set: "1.2.0", want: "sercha-rag version 1.2.0\n"},
		{name: "empty keeps current", set: "", want: "sercha-rag version dev\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := version
			version = "dev"
			t.Cleanup(func() { version = original })

			SetVersion(tt.set)
			out, err := execute(t, "version")

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVersionCmd_NeedsNoApp(t *testing.T) {
	setupTestApp(t)
	SetAppFactory(nil)

	_, err := execute(t, "version")

	assert.NoError(t, err)
}
