package xdcc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxRange caps how many packs a single range identifier may expand to.
const maxRange = 1000

var (
	packPattern  = regexp.MustCompile(`^#?(\d+)$`)
	rangePattern = regexp.MustCompile(`^#?(\d+)\s*-\s*#?(\d+)$`)
)

// ParsePackets expands one identifier into the packs to request. Pack
// numbers are returned as "#N". Ranges ("1-5") and lists ("1,3,7") of pack
// numbers are expanded in order. Anything else is treated as a file name
// and returned verbatim.
func ParsePackets(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("empty identifier")
	}

	parts := strings.Split(id, ",")
	if len(parts) > 1 {
		var packs []string
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if !isNumeric(part) {
				// not a list of pack numbers, could be a file name containing a comma
				return []string{id}, nil
			}
			expanded, err := expandNumeric(part)
			if err != nil {
				return nil, err
			}
			packs = append(packs, expanded...)
		}
		return packs, nil
	}

	if isNumeric(id) {
		return expandNumeric(id)
	}

	return []string{id}, nil
}

func isNumeric(s string) bool {
	return packPattern.MatchString(s) || rangePattern.MatchString(s)
}

func expandNumeric(s string) ([]string, error) {
	if m := packPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pack number: %s", s)
		}
		return []string{packName(n)}, nil
	}

	m := rangePattern.FindStringSubmatch(s)
	from, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pack range: %s", s)
	}
	to, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pack range: %s", s)
	}
	if from > to {
		return nil, errors.Errorf("invalid pack range: %s", s)
	}
	if to-from+1 > maxRange {
		return nil, errors.Errorf("pack range %s exceeds %d packs", s, maxRange)
	}

	packs := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		packs = append(packs, packName(n))
	}
	return packs, nil
}

func packName(n int) string {
	return "#" + strconv.Itoa(n)
}

// requestMessage is the PRIVMSG sent to a bot to request a pack.
func requestMessage(pack string) string {
	return "XDCC SEND " + pack
}

// cancelMessage asks a bot to drop any queued request from us.
func cancelMessage() string {
	return "XDCC REMOVE"
}
