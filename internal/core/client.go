package core

import (
	"context"
	"sync"
)

// Client is one live realtime session as seen by the core layer.
// It is not bound to any profile; senders are whatever the session claims.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 8
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the session is deregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Closed reports whether the session has been deregistered.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close marks the session as gone. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Submit queues a command for the hub. It returns false if the session or ctx ended first.
func (c *Client) Submit(ctx context.Context, cmd *Command) bool {
	select {
	case c.Commands <- cmd:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// offer queues an event without blocking. Used by broadcasts so one slow session
// cannot hold up the others.
func (c *Client) offer(ev *Event) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// deliver queues a point-to-point event, waiting for room in the outbox.
func (c *Client) deliver(ctx context.Context, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}
