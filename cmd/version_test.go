package cmd

import (
	"bytes"
	"testing"

	"github.com/magiconair/properties/assert"
)

func Test_printVersion(t *testing.T) {
	info := buildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02", Go: "go1.24.0"}

	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{
			name:   "text",
			output: "",
			want:   "Version: 1.2.0\nCommit: abc123\nDate: 2026-01-02\nGo: go1.24.0\n",
		},
		{
			name:   "json",
			output: "json",
			want:   `{"version":"1.2.0","commit":"abc123","date":"2026-01-02","go":"go1.24.0"}` + "\n",
		},
		{
			name:    "unknown",
			output:  "yaml",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printVersion(&buf, info, tt.output)
			assert.Equal(t, err != nil, tt.wantErr)
			assert.Equal(t, buf.String(), tt.want)
		})
	}
}
