package xdcc

import "github.com/pkg/errors"

var (
	ErrNoHost       = errors.New("no irc host configured")
	ErrClosed       = errors.New("session closed")
	ErrInvalidPack  = errors.New("invalid pack")
	ErrPassiveDCC   = errors.New("passive dcc offers are not supported")
	ErrOfferTimeout = errors.New("timed out waiting for dcc offer")
	ErrIncomplete   = errors.New("transfer incomplete")
	ErrMalformedDCC = errors.New("malformed dcc send")
)
