package agent

import (
	"time"

	"github.com/mkerring/talkshop/internal/config"
	"github.com/mkerring/talkshop/internal/store"
	"github.com/mkerring/talkshop/internal/transcript"
)

// Context carries the facilities a tool handler may use. Handlers must not
// retain it past the call.
type Context struct {
	Config     *config.Config
	Store      *store.Store
	Transcript *transcript.Log
	SessionID  string

	now func() time.Time
}

// NewContext assembles a tool context for one session.
func NewContext(cfg *config.Config, st *store.Store, tr *transcript.Log, sessionID string) *Context {
	return &Context{
		Config:     cfg,
		Store:      st,
		Transcript: tr,
		SessionID:  sessionID,
		now:        time.Now,
	}
}

// WithClock overrides the context clock. Used by tests.
func (c *Context) WithClock(now func() time.Time) *Context {
	c.now = now
	return c
}

// Now returns the current time from the context clock.
func (c *Context) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Say appends an agent line to the transcript, if one is attached.
func (c *Context) Say(line string) {
	if c.Transcript != nil {
		c.Transcript.Agent("%s", line)
	}
}

// Note appends a tool line to the transcript, if one is attached.
func (c *Context) Note(line string) {
	if c.Transcript != nil {
		c.Transcript.Tool("%s", line)
	}
}
