// Package envelope implements the self-describing payload wrapper
// (type_url + value) that every Entry carries, and the stamped-carrier
// encoding used for timeseries entries (spec.md §4.2).
//
// Binary and text encodings are hand-rolled length-prefixed/line-based
// formats rather than real protobuf wire format, since the
// message-encoding schema library itself is explicitly out of scope
// (spec.md §1); the varint+length-prefixed-string shape is grounded on
// upspin.io/errors' own MarshalAppend/getBytes helpers.
package envelope

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"

	"protobag.io/errors"
	"protobag.io/timestamp"
)

// Envelope is the two-field record carrying a typed payload. An empty
// TypeURL marks a raw entry: no indexing, no boxing.
type Envelope struct {
	TypeURL string
	Value   []byte
}

// IsRaw reports whether e has no known type (spec.md §3.1).
func (e Envelope) IsRaw() bool { return e.TypeURL == "" }

// StampedCarrierTypeURL identifies the outer envelope of a stamped
// message, the one type every reader must always be able to decode.
const StampedCarrierTypeURL = "type.protobag.io/protobag.StampedMessage"

// StampedCarrier wraps a timestamp around an inner Envelope, so
// time-series Entries can be stored as ordinary Envelope values.
type StampedCarrier struct {
	Timestamp timestamp.Timestamp
	Inner     Envelope
}

// formatBinary/formatText tag the first byte of an encoded envelope so a
// decoder can tell the two encodings apart without ambiguity.
const (
	formatBinary = 'B'
	formatText   = 'T'
)

// EncodeBinary renders e in the compact binary form (the default on
// write).
func EncodeBinary(e Envelope) []byte {
	b := []byte{formatBinary}
	b = appendString(b, e.TypeURL)
	b = appendBytes(b, e.Value)
	return b
}

// EncodeText renders e in the human-readable text form.
func EncodeText(e Envelope) []byte {
	var buf bytes.Buffer
	buf.WriteByte(formatText)
	buf.WriteByte('\n')
	buf.WriteString("type_url: " + e.TypeURL + "\n")
	buf.WriteString("value: " + base64.StdEncoding.EncodeToString(e.Value) + "\n")
	return buf.Bytes()
}

// Encode renders e using the binary form, or the text form when
// useText is set (spec.md §6.3).
func Encode(e Envelope, useText bool) []byte {
	if useText {
		return EncodeText(e)
	}
	return EncodeBinary(e)
}

// Decode parses data as an Envelope. It first attempts the binary
// decoding and, only if that fails, falls back to the text decoding
// (spec.md §6.3); since data is an immutable byte slice rather than a
// stream, there is no rewind hazard — the "rewindable input" design note
// is satisfied structurally rather than by explicit seek/reset calls.
func Decode(data []byte) (Envelope, error) {
	if e, err := DecodeBinary(data); err == nil {
		return e, nil
	}
	if e, err := DecodeText(data); err == nil {
		return e, nil
	}
	return Envelope{}, errors.E("envelope.Decode", errors.DecodeError,
		errors.Str("could not parse as binary or text envelope"))
}

// DecodeBinary parses data that was produced by EncodeBinary.
func DecodeBinary(data []byte) (Envelope, error) {
	if len(data) == 0 || data[0] != formatBinary {
		return Envelope{}, errors.E("envelope.DecodeBinary", errors.DecodeError,
			errors.Str("not binary-tagged"))
	}
	rest := data[1:]
	typeURL, rest, err := takeString(rest)
	if err != nil {
		return Envelope{}, errors.E("envelope.DecodeBinary", errors.DecodeError, err)
	}
	value, rest, err := takeBytes(rest)
	if err != nil {
		return Envelope{}, errors.E("envelope.DecodeBinary", errors.DecodeError, err)
	}
	if len(rest) != 0 {
		return Envelope{}, errors.E("envelope.DecodeBinary", errors.DecodeError,
			errors.Str("trailing bytes"))
	}
	return Envelope{TypeURL: typeURL, Value: value}, nil
}

// DecodeText parses data that was produced by EncodeText.
func DecodeText(data []byte) (Envelope, error) {
	if len(data) == 0 || data[0] != formatText {
		return Envelope{}, errors.E("envelope.DecodeText", errors.DecodeError,
			errors.Str("not text-tagged"))
	}
	fields, err := parseTextFields(data[1:])
	if err != nil {
		return Envelope{}, err
	}
	value, err := base64.StdEncoding.DecodeString(fields["value"])
	if err != nil {
		return Envelope{}, errors.E("envelope.DecodeText", errors.DecodeError, err)
	}
	return Envelope{TypeURL: fields["type_url"], Value: value}, nil
}

// PackStamped wraps inner as a stamped carrier Envelope.
func PackStamped(ts timestamp.Timestamp, inner Envelope, useText bool) Envelope {
	carrier := StampedCarrier{Timestamp: ts, Inner: inner}
	return Envelope{TypeURL: StampedCarrierTypeURL, Value: encodeCarrier(carrier, useText)}
}

// IsStamped reports whether e is a stamped-carrier envelope.
func IsStamped(e Envelope) bool { return e.TypeURL == StampedCarrierTypeURL }

// UnpackStamped reverses PackStamped.
func UnpackStamped(e Envelope) (StampedCarrier, error) {
	if !IsStamped(e) {
		return StampedCarrier{}, errors.E("envelope.UnpackStamped", errors.DecodeError,
			errors.Str("envelope is not a stamped carrier"))
	}
	return decodeCarrier(e.Value)
}

func encodeCarrier(c StampedCarrier, useText bool) []byte {
	if useText {
		var buf bytes.Buffer
		buf.WriteByte(formatText)
		buf.WriteByte('\n')
		buf.WriteString("sec: " + strconv.FormatInt(c.Timestamp.Sec, 10) + "\n")
		buf.WriteString("nsec: " + strconv.FormatInt(int64(c.Timestamp.Nsec), 10) + "\n")
		buf.WriteString("inner_type_url: " + c.Inner.TypeURL + "\n")
		buf.WriteString("inner_value: " + base64.StdEncoding.EncodeToString(c.Inner.Value) + "\n")
		return buf.Bytes()
	}
	b := []byte{formatBinary}
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], c.Timestamp.Sec)
	b = append(b, tmp[:n]...)
	n = binary.PutVarint(tmp[:], int64(c.Timestamp.Nsec))
	b = append(b, tmp[:n]...)
	b = appendString(b, c.Inner.TypeURL)
	b = appendBytes(b, c.Inner.Value)
	return b
}

func decodeCarrier(data []byte) (StampedCarrier, error) {
	if len(data) == 0 {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError,
			errors.Str("empty carrier"))
	}
	if data[0] == formatText {
		fields, err := parseTextFields(data[1:])
		if err != nil {
			return StampedCarrier{}, err
		}
		sec, err := strconv.ParseInt(fields["sec"], 10, 64)
		if err != nil {
			return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError, err)
		}
		nsec, err := strconv.ParseInt(fields["nsec"], 10, 32)
		if err != nil {
			return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError, err)
		}
		value, err := base64.StdEncoding.DecodeString(fields["inner_value"])
		if err != nil {
			return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError, err)
		}
		return StampedCarrier{
			Timestamp: timestamp.Timestamp{Sec: sec, Nsec: int32(nsec)},
			Inner:     Envelope{TypeURL: fields["inner_type_url"], Value: value},
		}, nil
	}

	if data[0] != formatBinary {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError,
			errors.Str("unknown carrier tag"))
	}
	rest := data[1:]
	sec, n := binary.Varint(rest)
	if n <= 0 {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError,
			errors.Str("bad sec varint"))
	}
	rest = rest[n:]
	nsec, n := binary.Varint(rest)
	if n <= 0 {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError,
			errors.Str("bad nsec varint"))
	}
	rest = rest[n:]
	typeURL, rest, err := takeString(rest)
	if err != nil {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError, err)
	}
	value, rest, err := takeBytes(rest)
	if err != nil {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError, err)
	}
	if len(rest) != 0 {
		return StampedCarrier{}, errors.E("envelope.decodeCarrier", errors.DecodeError,
			errors.Str("trailing bytes"))
	}
	return StampedCarrier{
		Timestamp: timestamp.Timestamp{Sec: sec, Nsec: int32(nsec)},
		Inner:     Envelope{TypeURL: typeURL, Value: value},
	}, nil
}

func parseTextFields(data []byte) (map[string]string, error) {
	fields := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ": ", 2)
		if len(parts) != 2 {
			return nil, errors.E("envelope.parseTextFields", errors.DecodeError,
				errors.Errorf("malformed line %q", line))
		}
		fields[parts[0]] = parts[1]
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E("envelope.parseTextFields", errors.DecodeError, err)
	}
	return fields, nil
}

func appendString(b []byte, s string) []byte { return appendBytes(b, []byte(s)) }

func appendBytes(b []byte, data []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(data)))
	b = append(b, tmp[:n]...)
	return append(b, data...)
}

func takeString(b []byte) (string, []byte, error) {
	data, rest, err := takeBytes(b)
	return string(data), rest, err
}

func takeBytes(b []byte) (data, rest []byte, err error) {
	u, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < u {
		return nil, nil, errors.Str("bad length-prefixed encoding")
	}
	return b[n : n+int(u)], b[n+int(u):], nil
}
