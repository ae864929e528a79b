// Package sse encodes and decodes the chat token stream:
//
//	data: {"token":"<delta>"}\n\n   one frame per token
//	data: [DONE]\n\n                terminal sentinel
package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// ErrIncomplete means the stream ended without the [DONE] sentinel, i.e. the
// producer aborted.
var ErrIncomplete = errors.New("sse: stream ended before [DONE]")

type tokenPayload struct {
	Token string `json:"token"`
}

// WriteToken writes a single token frame in one Write call.
func WriteToken(w io.Writer, token string) error {
	b, err := json.Marshal(tokenPayload{Token: token})
	if err != nil {
		return err
	}
	frame := make([]byte, 0, len(b)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, b...)
	frame = append(frame, "\n\n"...)
	_, err = w.Write(frame)
	return err
}

func WriteDone(w io.Writer) error {
	_, err := io.WriteString(w, "data: "+doneMarker+"\n\n")
	return err
}

// Event is one decoded frame.
type Event struct {
	Token string
	Done  bool
}

type Decoder struct {
	r    *bufio.Reader
	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next frame. After the Done event it returns io.EOF; if the
// underlying reader ends or fails first it returns ErrIncomplete (wrapping the
// read error when there is one).
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return Event{}, io.EOF
	}
	var data []string
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, ErrIncomplete
			}
			return Event{}, fmt.Errorf("%w: %v", ErrIncomplete, err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 {
				continue
			}
			return d.decode(strings.Join(data, "\n"))
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, dataPrefix) {
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, dataPrefix), " "))
		}
	}
}

func (d *Decoder) decode(payload string) (Event, error) {
	if payload == doneMarker {
		d.done = true
		return Event{Done: true}, nil
	}
	var p tokenPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Event{}, fmt.Errorf("sse: decode frame: %w", err)
	}
	return Event{Token: p.Token}, nil
}
