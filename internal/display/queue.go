// Package display carries show-document commands from the retrieval tools to
// a presentation layer over a bounded queue.
package display

import "errors"

// ErrQueueFull is returned when a command cannot be enqueued because the
// consumer has fallen behind. Producers never block on a full queue.
var ErrQueueFull = errors.New("display: command queue is full")

// DefaultQueueCapacity bounds the number of pending commands.
const DefaultQueueCapacity = 32

// DocumentRef identifies one document page for the presentation layer.
type DocumentRef struct {
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
}

// Payload is the command body inside a Command.
type Payload struct {
	Command string        `json:"command"`
	Params  []DocumentRef `json:"params"`
}

// Command is the wire format consumed by the presentation layer.
type Command struct {
	MimeType string  `json:"mime_type"`
	Data     Payload `json:"data"`
}

// ShowDocument builds the command that asks the presentation layer to open
// a document at a page.
func ShowDocument(filename string, page int) Command {
	return Command{
		MimeType: "application/json",
		Data: Payload{
			Command: "show_document",
			Params:  []DocumentRef{{Filename: filename, PageNumber: page}},
		},
	}
}

// Queue is a bounded multi-producer, single-consumer command queue.
type Queue struct {
	ch chan Command
}

// NewQueue creates a Queue with the given capacity; capacity <= 0 uses
// DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan Command, capacity)}
}

// Enqueue adds a command without blocking. A full queue returns
// ErrQueueFull immediately.
func (q *Queue) Enqueue(cmd Command) error {
	select {
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Commands exposes the receive side for the single consumer.
func (q *Queue) Commands() <-chan Command {
	return q.ch
}

// Len reports the number of pending commands.
func (q *Queue) Len() int {
	return len(q.ch)
}
