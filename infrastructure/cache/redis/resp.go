// Package redis implements the minimal cache client the pipeline speaks to
// its TLS-fronted cache: a RESP subset covering PING, AUTH, SET and GET over
// a single non-pipelined session per operation.
package redis

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// ReplyKind tags the RESP reply shapes the client understands.
type ReplyKind int

const (
	// ReplyUnparseable marks an empty, truncated, or unrecognized reply.
	ReplyUnparseable ReplyKind = iota
	// ReplyStatus is a +... simple status line.
	ReplyStatus
	// ReplyError is a -... error line.
	ReplyError
	// ReplyBulk is a present bulk string.
	ReplyBulk
	// ReplyNil is the $-1 absent sentinel (cache miss).
	ReplyNil
)

// maxBulkLen caps a declared bulk length, matching the server-side 512MB
// value limit. Anything larger is a corrupt or hostile reply, not data.
const maxBulkLen = 512 * 1024 * 1024

// Reply is one decoded server reply. Value holds the status line, the error
// message, or the bulk payload depending on Kind.
type Reply struct {
	Kind  ReplyKind
	Value []byte
}

// IsStatus reports whether the reply is the given status line
func (r Reply) IsStatus(status string) bool {
	return r.Kind == ReplyStatus && string(r.Value) == status
}

// EncodeCommand frames a command as a RESP array of bulk strings. Lengths
// are always computed from the byte buffer actually written, never from a
// caller-supplied count.
func EncodeCommand(args ...string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "*%d\r\n", len(args))
	for _, arg := range args {
		fmt.Fprintf(&buf, "$%d\r\n", len(arg))
		buf.WriteString(arg)
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

// DecodeReply decodes a complete reply from a raw buffer. Truncated or
// malformed input yields ReplyUnparseable.
func DecodeReply(buf []byte) Reply {
	reply, err := readReply(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		return Reply{Kind: ReplyUnparseable}
	}
	return reply
}

// readReply reads exactly one reply from the stream, accumulating bulk
// payloads until the declared length is satisfied. An I/O failure (including
// a read deadline) is returned as an error; data that arrived intact but
// does not parse yields ReplyUnparseable with a nil error.
func readReply(br *bufio.Reader) (Reply, error) {
	line, err := readLine(br)
	if err != nil {
		return Reply{Kind: ReplyUnparseable}, err
	}
	if len(line) == 0 {
		return Reply{Kind: ReplyUnparseable}, nil
	}

	switch line[0] {
	case '+':
		return Reply{Kind: ReplyStatus, Value: line[1:]}, nil
	case '-':
		return Reply{Kind: ReplyError, Value: line[1:]}, nil
	case '$':
		n, convErr := strconv.Atoi(string(line[1:]))
		if convErr != nil {
			return Reply{Kind: ReplyUnparseable}, nil
		}
		if n == -1 {
			return Reply{Kind: ReplyNil}, nil
		}
		if n < 0 || n > maxBulkLen {
			return Reply{Kind: ReplyUnparseable}, nil
		}
		// payload plus trailing \r\n
		payload := make([]byte, n+2)
		if _, err := io.ReadFull(br, payload); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return Reply{Kind: ReplyUnparseable}, nil
			}
			return Reply{Kind: ReplyUnparseable}, err
		}
		if !bytes.HasSuffix(payload, []byte("\r\n")) {
			return Reply{Kind: ReplyUnparseable}, nil
		}
		return Reply{Kind: ReplyBulk, Value: payload[:n]}, nil
	default:
		return Reply{Kind: ReplyUnparseable}, nil
	}
}

// readLine reads a \r\n-terminated line without the terminator
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		// line-based replies are assumed delimiter-clean; a bare \n is
		// treated as malformed by the caller
		return nil, nil
	}
	return line[: len(line)-2 : len(line)-2], nil
}
