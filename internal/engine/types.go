package engine

import (
	"errors"
	"strings"
)

type Side int

const (
	Buy Side = iota
	Sell
)

var (
	ErrInvalidSide     = errors.New("invalid order side")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// ParseSide maps the wire representation of a side onto the enum.
// Matching is case-insensitive; the API has always accepted "BUY" and "buy".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return Buy, ErrInvalidSide
}
