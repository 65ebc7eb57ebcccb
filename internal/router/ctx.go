package router

import (
	"encoding/json"
	"net/http"
)

// Ctx carries one request through the middleware and handler chain.
// It tracks whether a response was already written: the first send wins and
// every later send on the same Ctx is a no-op.
type Ctx struct {
	Request *http.Request

	w      http.ResponseWriter
	target string
	params map[string]string
	query  map[string]string
	sent   bool
	status int
}

func newCtx(w http.ResponseWriter, req *http.Request) *Ctx {
	target := req.URL.Path
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	return &Ctx{Request: req, w: w, target: target}
}

// Param returns the value bound to a :name path segment, or "".
func (c *Ctx) Param(name string) string { return c.params[name] }

// Query returns the value of a query pair from the final path segment, or "".
// Only pairs with both a key and a value are kept.
func (c *Ctx) Query(name string) string { return c.query[name] }

// Sent reports whether a response has already been written.
func (c *Ctx) Sent() bool { return c.sent }

// StatusCode returns the status of the response written so far, or 0.
func (c *Ctx) StatusCode() int { return c.status }

// Header exposes the response headers for writes before the first send.
func (c *Ctx) Header() http.Header { return c.w.Header() }

// SetCookie adds a Set-Cookie header. Must be called before the first send.
func (c *Ctx) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.w, cookie)
}

// SendSuccess writes the success envelope. Data and message are optional
// and omitted from the body when zero.
func (c *Ctx) SendSuccess(status int, data any, message string) {
	c.send(status, successBody{Status: status, Data: data, Message: message})
}

// SendError writes the failure envelope.
func (c *Ctx) SendError(status int, message string) {
	c.send(status, errorBody{Status: status, Error: message})
}

type successBody struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (c *Ctx) send(status int, body any) {
	if c.sent {
		return
	}
	c.sent = true
	c.status = status
	c.w.Header().Set("Content-Type", "application/json")
	c.w.WriteHeader(status)
	_ = json.NewEncoder(c.w).Encode(body)
}
