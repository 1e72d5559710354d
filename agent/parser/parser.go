// Package parser turns raw model completions into ordered action requests.
package parser

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type Mode string

const (
	// ModeGrammar pairs grammar-constrained decoding with StrictParser.
	ModeGrammar Mode = "grammar"
	// ModeMarker pairs free chat completion with MarkerParser.
	ModeMarker Mode = "marker"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGrammar, "":
		return ModeGrammar, nil
	case ModeMarker:
		return ModeMarker, nil
	default:
		return "", fmt.Errorf("%w: unsupported assistant mode=%q", contractx.ErrValidation, s)
	}
}

func New(mode Mode) contractx.Parser {
	if mode == ModeMarker {
		return NewMarkerParser()
	}
	return NewStrictParser()
}
