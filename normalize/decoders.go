package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// decodeFunc turns the raw values of one attribute into its normalized form,
// either a single string or an ordered []string. A decode fault degrades the
// affected value only; it never propagates.
type decodeFunc func(values [][]byte) any

// decoders maps attribute names to their decode strategy. Anything not listed
// falls through to decodeDefault.
var decoders = map[string]decodeFunc{
	"objectGUID":  decodeGUIDs,
	"objectSid":   decodeSIDs,
	"sIDHistory":  decodeSIDs,
	"tokenGroups": decodeSIDs,
	"mail":        decodeMail,
}

func decoderFor(name string) decodeFunc {
	if decode, ok := decoders[name]; ok {
		return decode
	}
	return decodeDefault
}

// bestEffortText renders arbitrary bytes as valid UTF-8, replacing anything
// undecodable.
func bestEffortText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// decodeGUIDs interprets each value as a 16-byte GUID and renders its
// canonical hyphenated form.
func decodeGUIDs(values [][]byte) any {
	out := make([]string, len(values))
	for i, v := range values {
		u, err := uuid.FromBytes(v)
		if err != nil {
			log.Debug().Err(err).Msg("malformed GUID value, keeping best-effort text")
			out[i] = bestEffortText(v)
			continue
		}
		out[i] = u.String()
	}
	return out
}

func decodeSIDs(values [][]byte) any {
	out := make([]string, len(values))
	for i, v := range values {
		sid, err := DecodeSID(v)
		if err != nil {
			log.Debug().Err(err).Msg("malformed SID value, keeping best-effort text")
			out[i] = bestEffortText(v)
			continue
		}
		out[i] = sid
	}
	return out
}

// decodeMail unpacks address values: one raw value may carry several
// comma-separated addresses.
func decodeMail(values [][]byte) any {
	var out []string
	for _, v := range values {
		for _, piece := range strings.Split(string(v), ",") {
			piece = strings.TrimSpace(piece)
			if !utf8.ValidString(piece) {
				piece = bestEffortText([]byte(piece))
			}
			out = append(out, piece)
		}
	}
	return out
}

// decodeDefault decodes each value as strict text. When every value is valid
// UTF-8 the attribute keeps its shape: a lone value becomes a plain string,
// several become an ordered list. If any value fails, the whole attribute
// collapses to one combined best-effort string instead of a list.
func decodeDefault(values [][]byte) any {
	out := make([]string, len(values))
	for i, v := range values {
		if !utf8.Valid(v) {
			return combinedFallback(values)
		}
		out[i] = string(v)
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func combinedFallback(values [][]byte) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = bestEffortText(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
