package service

import (
	"net/url"
	"strings"

	"github.com/avvvet/idcard-services/internal/cardsvc/token"
)

type ScanPath string

const (
	PathToken  ScanPath = "token"
	PathLegacy ScanPath = "legacy"
	// PathManual marks entries written through the direct log path.
	PathManual ScanPath = "manual"
)

// ScanInput is the classified form of raw scanned text: either a TokenInput
// or a LegacyInput.
type ScanInput interface {
	Path() ScanPath
}

type TokenInput struct {
	Raw string
}

func (TokenInput) Path() ScanPath { return PathToken }

// LegacyInput is a bare card id or a card URL. CardID is empty when nothing
// usable could be extracted.
type LegacyInput struct {
	Raw    string
	CardID string
}

func (LegacyInput) Path() ScanPath { return PathLegacy }

// ClassifyScan decides which path raw takes. Anything with the compact token
// shape is a token; everything else is a legacy identifier.
func ClassifyScan(raw string) ScanInput {
	raw = strings.TrimSpace(raw)
	if token.LooksLikeToken(raw) {
		return TokenInput{Raw: raw}
	}
	return LegacyInput{Raw: raw, CardID: ExtractCardID(raw)}
}

// ExtractCardID pulls a card id out of a legacy scan. For absolute URLs and
// rooted paths it takes the segment after /idcard/ or else the last path
// segment; any other text is used as the id itself.
func ExtractCardID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	absolute := u.Scheme != "" && u.Host != ""
	rooted := u.Scheme == "" && strings.HasPrefix(raw, "/")
	if !absolute && !rooted {
		return raw
	}

	var parts []string
	for _, p := range strings.Split(u.EscapedPath(), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if len(parts) >= 2 && parts[0] == "idcard" {
		return unescape(parts[1])
	}
	return unescape(parts[len(parts)-1])
}

func unescape(seg string) string {
	if v, err := url.PathUnescape(seg); err == nil {
		return strings.TrimSpace(v)
	}
	return seg
}
