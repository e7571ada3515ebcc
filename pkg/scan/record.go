package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// RecordTypeText is the NDEF well-known text record type.
const RecordTypeText = "text"

// Record is one NDEF record delivered by a reader.
type Record struct {
	RecordType string `json:"recordType" yaml:"recordType"`
	MediaType  string `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Encoding   string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Lang       string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Data       []byte `json:"data,omitempty" yaml:"data,omitempty"`
}

// Reading is one event from a reader: either a tag read or a read error.
type Reading struct {
	Records      []Record
	SerialNumber string
	Err          error
}

// Reader is the device seam. Scan asks the device to start listening and
// returns the stream of readings. The channel must be closed once ctx is
// done or the device goes away.
type Reader interface {
	Scan(ctx context.Context) (<-chan Reading, error)
}

// ExtractValue picks the usable tag value of a reading: the decoded text of
// the first text record when non-empty, else the serial number.
func ExtractValue(r Reading) (string, bool) {
	for _, rec := range r.Records {
		if rec.RecordType != RecordTypeText {
			continue
		}
		if text, err := DecodeText(rec); err == nil && text != "" {
			return text, true
		}
		break
	}
	if r.SerialNumber != "" {
		return r.SerialNumber, true
	}
	return "", false
}

// DecodeText decodes the payload of a text record according to its encoding.
// Invalid UTF-8 input is replaced rather than rejected.
func DecodeText(rec Record) (string, error) {
	var dec *encoding.Decoder
	switch strings.ToLower(rec.Encoding) {
	case "", "utf-8", "utf8":
		return strings.ToValidUTF8(string(rec.Data), string(utf8.RuneError)), nil
	case "utf-16":
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case "utf-16be":
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case "utf-16le":
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return "", fmt.Errorf("unsupported text encoding %q", rec.Encoding)
	}
	out, err := dec.Bytes(rec.Data)
	if err != nil {
		return "", fmt.Errorf("decode %s text: %w", rec.Encoding, err)
	}
	return string(out), nil
}

var errShortPayload = errors.New("text record payload too short")

// ParseTextPayload parses a raw NDEF well-known text payload: one status byte
// (bit 7 set for UTF-16, low six bits the language code length), the
// language code, then the text.
func ParseTextPayload(payload []byte) (Record, error) {
	if len(payload) < 1 {
		return Record{}, errShortPayload
	}
	status := payload[0]
	langLen := int(status & 0x3f)
	if len(payload) < 1+langLen {
		return Record{}, errShortPayload
	}
	rec := Record{
		RecordType: RecordTypeText,
		Encoding:   "utf-8",
		Lang:       string(payload[1 : 1+langLen]),
		Data:       payload[1+langLen:],
	}
	if status&0x80 != 0 {
		rec.Encoding = "utf-16"
	}
	return rec, nil
}
