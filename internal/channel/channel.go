// Package channel implements named method channels: a UI layer invokes an
// operation by name and receives a structured response.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Status is the outcome of a method call.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusError          Status = "error"
	StatusNotImplemented Status = "notImplemented"
)

// Error codes produced by the channel layer itself.
const (
	CodeInternal   = "internal"
	CodeBadRequest = "bad_request"
)

// ErrUnknownChannel is returned when no channel is registered under a name.
var ErrUnknownChannel = errors.New("unknown channel")

// MethodCall is one inbound invocation.
type MethodCall struct {
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallError is the error payload of a failed call.
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Response answers a MethodCall.
type Response struct {
	ID     string     `json:"id,omitempty"`
	Status Status     `json:"status"`
	Result any        `json:"result,omitempty"`
	Error  *CallError `json:"error,omitempty"`
}

// Success builds a success response.
func Success(id string, result any) Response {
	return Response{ID: id, Status: StatusSuccess, Result: result}
}

// Failure builds an error response.
func Failure(id string, err *CallError) Response {
	return Response{ID: id, Status: StatusError, Error: err}
}

// NotImplemented builds the response for an unsupported method.
func NotImplemented(id, method string) Response {
	return Response{
		ID:     id,
		Status: StatusNotImplemented,
		Error:  &CallError{Code: string(StatusNotImplemented), Message: fmt.Sprintf("method %q is not implemented", method)},
	}
}

// Handler serves one method. A returned *CallError keeps its code; any other
// error is reported with CodeInternal.
type Handler func(ctx context.Context, call MethodCall) (any, error)

// Channel is a named, closed table of method handlers.
type Channel struct {
	name     string
	handlers map[string]Handler
}

// New creates an empty channel.
func New(name string) *Channel {
	return &Channel{
		name:     name,
		handlers: make(map[string]Handler),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Handle registers h for method. Handlers are wired once at startup;
// registering the same method twice panics.
func (c *Channel) Handle(method string, h Handler) {
	if method == "" || h == nil {
		panic("channel: empty method or nil handler")
	}
	if _, dup := c.handlers[method]; dup {
		panic(fmt.Sprintf("channel %s: method %q registered twice", c.name, method))
	}
	c.handlers[method] = h
}

// Methods returns the supported method names, sorted.
func (c *Channel) Methods() []string {
	methods := make([]string, 0, len(c.handlers))
	for m := range c.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Invoke dispatches call. Unsupported methods answer StatusNotImplemented.
func (c *Channel) Invoke(ctx context.Context, call MethodCall) Response {
	h, ok := c.handlers[call.Method]
	if !ok {
		return NotImplemented(call.ID, call.Method)
	}

	result, err := h(ctx, call)
	if err != nil {
		var callErr *CallError
		if errors.As(err, &callErr) {
			return Failure(call.ID, callErr)
		}
		return Failure(call.ID, &CallError{Code: CodeInternal, Message: err.Error()})
	}
	return Success(call.ID, result)
}

// Messenger routes calls to channels by name.
type Messenger struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewMessenger creates a messenger with the given channels registered.
func NewMessenger(channels ...*Channel) *Messenger {
	m := &Messenger{channels: make(map[string]*Channel)}
	for _, c := range channels {
		m.Register(c)
	}
	return m
}

// Register adds c, replacing any channel with the same name.
func (m *Messenger) Register(c *Channel) {
	m.mu.Lock()
	m.channels[c.name] = c
	m.mu.Unlock()
}

// Channel returns the channel registered under name.
func (m *Messenger) Channel(name string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channels[name]
	return c, ok
}

// Names returns the registered channel names, sorted.
func (m *Messenger) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches call to the named channel.
func (m *Messenger) Invoke(ctx context.Context, name string, call MethodCall) (Response, error) {
	c, ok := m.Channel(name)
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
	return c.Invoke(ctx, call), nil
}
