package internal

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Mailbox is an unbounded FIFO of messages. Sends never block, and
// receives never wait: an empty mailbox reports ok == false.
type Mailbox[T any] struct {
	queue *linkedlistqueue.Queue
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{queue: linkedlistqueue.New()}
}

// Send appends a message.
func (mb *Mailbox[T]) Send(msg T) {
	mb.queue.Enqueue(msg)
}

// TryRecv removes the oldest message, if any.
func (mb *Mailbox[T]) TryRecv() (msg T, ok bool) {
	value, ok := mb.queue.Dequeue()
	if !ok {
		return
	}

	msg = value.(T)
	return
}

// Len is the number of pending messages.
func (mb *Mailbox[T]) Len() int {
	return mb.queue.Size()
}

// Clear drops all pending messages.
func (mb *Mailbox[T]) Clear() {
	mb.queue.Clear()
}
