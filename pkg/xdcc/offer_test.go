package xdcc

import (
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffer(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Offer
		wantErr bool
	}{
		{
			name: "integer_ip",
			text: "SEND file.mkv 3232235777 5000 1048576",
			want: Offer{From: "bot", FileName: "file.mkv", IP: net.IPv4(192, 168, 1, 1), Port: 5000, Size: 1048576},
		},
		{
			name: "quoted_name",
			text: `SEND "[Group] Show - 01.mkv" 2130706433 6000 42`,
			want: Offer{From: "bot", FileName: "[Group] Show - 01.mkv", IP: net.IPv4(127, 0, 0, 1), Port: 6000, Size: 42},
		},
		{
			name: "ipv6",
			text: "SEND file.bin ::1 7000 10",
			want: Offer{From: "bot", FileName: "file.bin", IP: net.ParseIP("::1"), Port: 7000, Size: 10},
		},
		{
			name: "passive_with_token",
			text: "SEND file.bin 2130706433 0 10 99",
			want: Offer{From: "bot", FileName: "file.bin", IP: net.IPv4(127, 0, 0, 1), Port: 0, Size: 10, Token: "99"},
		},
		{
			name: "path_traversal",
			text: "SEND ../../etc/passwd 2130706433 7000 10",
			want: Offer{From: "bot", FileName: "passwd", IP: net.IPv4(127, 0, 0, 1), Port: 7000, Size: 10},
		},
		{name: "not_send", text: "CHAT chat 2130706433 7000", wantErr: true},
		{name: "missing_args", text: "SEND file.bin 2130706433", wantErr: true},
		{name: "bad_port", text: "SEND file.bin 2130706433 99999 10", wantErr: true},
		{name: "bad_size", text: "SEND file.bin 2130706433 7000 -1", wantErr: true},
		{name: "bad_ip", text: "SEND file.bin nope 7000 10", wantErr: true},
		{name: "unterminated", text: `SEND "file.bin 2130706433 7000 10`, wantErr: true},
		{name: "dot_name", text: "SEND .. 2130706433 7000 10", wantErr: true},
		{name: "lock_file", text: "SEND .xdl.lock 2130706433 7000 10", wantErr: true},
		{name: "lock_file_in_path", text: "SEND dir/.xdl.lock.part 2130706433 7000 10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffer("bot", tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedDCC))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.FileName, got.FileName)
			assert.True(t, tt.want.IP.Equal(got.IP), "ip %v != %v", tt.want.IP, got.IP)
			assert.Equal(t, tt.want.Port, got.Port)
			assert.Equal(t, tt.want.Size, got.Size)
			assert.Equal(t, tt.want.Token, got.Token)
			assert.Equal(t, tt.want.Port == 0, got.Passive())
		})
	}
}
