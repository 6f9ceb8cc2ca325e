package xdcc

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Offer is a parsed DCC SEND request from a bot.
type Offer struct {
	From     string
	FileName string
	IP       net.IP
	Port     int
	Size     int64
	Token    string
}

// Passive reports whether the sender expects us to listen (reverse DCC).
func (o Offer) Passive() bool {
	return o.Port == 0
}

func (o Offer) Addr() string {
	return net.JoinHostPort(o.IP.String(), strconv.Itoa(o.Port))
}

// ParseOffer parses the text of a DCC CTCP message, e.g.
//
//	SEND "some file.mkv" 3232235777 5000 1048576
func ParseOffer(from, text string) (Offer, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(strings.ToUpper(text), "SEND ") {
		return Offer{}, errors.Wrapf(ErrMalformedDCC, "not a send: %q", text)
	}
	rest := strings.TrimSpace(text[len("SEND "):])

	var name string
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return Offer{}, errors.Wrapf(ErrMalformedDCC, "unterminated file name: %q", text)
		}
		name = rest[1 : end+1]
		rest = rest[end+2:]
	} else {
		idx := strings.IndexByte(rest, ' ')
		if idx < 0 {
			return Offer{}, errors.Wrapf(ErrMalformedDCC, "missing arguments: %q", text)
		}
		name = rest[:idx]
		rest = rest[idx:]
	}

	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return Offer{}, errors.Wrapf(ErrMalformedDCC, "missing arguments: %q", text)
	}

	ip, err := parseIP(fields[0])
	if err != nil {
		return Offer{}, err
	}

	port, err := strconv.Atoi(fields[1])
	if err != nil || port < 0 || port > 65535 {
		return Offer{}, errors.Wrapf(ErrMalformedDCC, "invalid port: %q", fields[1])
	}

	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || size < 0 {
		return Offer{}, errors.Wrapf(ErrMalformedDCC, "invalid size: %q", fields[2])
	}

	offer := Offer{
		From:     from,
		FileName: sanitizeFileName(name),
		IP:       ip,
		Port:     port,
		Size:     size,
	}
	if len(fields) > 3 {
		offer.Token = fields[3]
	}
	if offer.FileName == "" {
		return Offer{}, errors.Wrapf(ErrMalformedDCC, "invalid file name: %q", name)
	}

	return offer, nil
}

// parseIP accepts the classic integer encoding of an IPv4 address as well
// as dotted and IPv6 literals.
func parseIP(s string) (net.IP, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n)), nil
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip, nil
	}
	return nil, errors.Wrapf(ErrMalformedDCC, "invalid address: %q", s)
}

const reservedPrefix = ".xdl"

// sanitizeFileName keeps the offer from writing outside the destination.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	// the destination lock lives next to the downloads
	if strings.HasPrefix(name, reservedPrefix) {
		return ""
	}
	return name
}
