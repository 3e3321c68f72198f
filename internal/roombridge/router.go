package roombridge

import (
	"fmt"
	"sync"
)

const (
	defaultSubscriberCapacity = 100
	defaultBacklogLimit       = 50
	defaultPendingLimit       = 32
)

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// Router fans validated room events out to per-agent subscribers. A voice
// session is the unit of bookkeeping: participant_joined binds the session
// to its agent, utterances inside a session are released in sequence order,
// and session_end or error tears the session's state down again.
type Router struct {
	mu           sync.Mutex
	sessions     map[string]*sessionState
	subscribers  map[string]map[int]*subscriber
	backlog      map[string][]Event
	nextSubID    int
	channelSize  int
	backlogLimit int
	pendingLimit int
	logger       Logger
}

// sessionState is the per-session bookkeeping: which agent answers it,
// which sequence number is due next, out-of-order events parked until the
// gap closes, and the event IDs already accepted.
type sessionState struct {
	agentID string
	nextSeq int64
	pending map[int64]Event
	seen    map[string]struct{}
}

// NewRouter constructs a router with sane defaults.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		sessions:     map[string]*sessionState{},
		subscribers:  map[string]map[int]*subscriber{},
		backlog:      map[string][]Event{},
		channelSize:  defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		pendingLimit: defaultPendingLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RouterWithLogger injects a logger for drop/diagnostic messages.
func RouterWithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// RouterWithSubscriberCapacity overrides the buffered channel size per subscriber.
func RouterWithSubscriberCapacity(cap int) RouterOption {
	return func(r *Router) {
		if cap > 0 {
			r.channelSize = cap
		}
	}
}

// RouterWithBacklogLimit overrides the backlog size for pre-subscription buffering.
func RouterWithBacklogLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.backlogLimit = limit
		}
	}
}

// RouterWithPendingLimit caps how many out-of-order events a session may park.
func RouterWithPendingLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.pendingLimit = limit
		}
	}
}

// Subscription represents an active agent subscription.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers for events keyed by agent ID. Events routed for the
// agent before any subscriber existed are replayed first.
func (r *Router) Subscribe(agentID string) Subscription {
	sub := newSubscriber(r.channelSize, r.logger)

	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	if r.subscribers[agentID] == nil {
		r.subscribers[agentID] = map[int]*subscriber{}
	}
	r.subscribers[agentID][id] = sub
	replay := r.backlog[agentID]
	delete(r.backlog, agentID)
	r.mu.Unlock()

	for _, event := range replay {
		sub.push(event)
	}
	return Subscription{
		Events: sub.ch,
		cancel: func() {
			r.mu.Lock()
			if subs := r.subscribers[agentID]; subs != nil {
				delete(subs, id)
				if len(subs) == 0 {
					delete(r.subscribers, agentID)
				}
			}
			r.mu.Unlock()
			sub.stop()
		},
	}
}

// HandleEvent satisfies the EventProcessor interface.
func (r *Router) HandleEvent(event Event) error {
	return r.Route(event)
}

// Route accepts one event for a session. The first event of a session must
// name its agent (participant_joined does); later events may omit agent_id
// and inherit the session binding. Duplicate event IDs and stale sequence
// numbers are dropped silently.
func (r *Router) Route(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.sessions[event.SessionID]
	if state == nil {
		if event.AgentID == "" {
			return fmt.Errorf("roombridge: no agent bound for session %s", event.SessionID)
		}
		state = &sessionState{
			agentID: event.AgentID,
			pending: map[int64]Event{},
			seen:    map[string]struct{}{},
		}
		r.sessions[event.SessionID] = state
	}
	if event.AgentID == "" {
		event.AgentID = state.agentID
	}

	if _, dup := state.seen[event.EventID]; dup {
		return nil
	}
	state.seen[event.EventID] = struct{}{}

	for _, ready := range state.release(event, r.pendingLimit, r.logger) {
		r.dispatch(state.agentID, ready)
		if ready.IsCritical() {
			// The session is over; drop its ordering and dedupe state.
			delete(r.sessions, event.SessionID)
		}
	}
	return nil
}

// ActiveSessions reports how many sessions currently hold routing state.
func (r *Router) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// release applies sequence ordering. Unsequenced events (sequence 0) pass
// straight through. The first sequenced event of a session sets the
// baseline; later events are released in order, parking early arrivals
// until the gap closes.
func (s *sessionState) release(event Event, pendingLimit int, logger Logger) []Event {
	if event.Sequence <= 0 {
		return []Event{event}
	}
	if s.nextSeq == 0 {
		s.nextSeq = event.Sequence
	}
	switch {
	case event.Sequence < s.nextSeq:
		return nil
	case event.Sequence > s.nextSeq:
		if len(s.pending) >= pendingLimit {
			if logger != nil {
				logger.Printf("roombridge: pending window full, dropped %s seq %d", event.Type, event.Sequence)
			}
			return nil
		}
		s.pending[event.Sequence] = event
		return nil
	}
	ready := []Event{event}
	s.nextSeq++
	for {
		next, ok := s.pending[s.nextSeq]
		if !ok {
			return ready
		}
		delete(s.pending, s.nextSeq)
		ready = append(ready, next)
		s.nextSeq++
	}
}

// dispatch hands the event to every live subscriber for the agent, or
// parks it in the agent's backlog when nobody is listening yet. Callers
// hold r.mu; subscriber pushes never block.
func (r *Router) dispatch(agentID string, event Event) {
	subs := r.subscribers[agentID]
	if len(subs) == 0 {
		r.buffer(agentID, event)
		return
	}
	for _, sub := range subs {
		sub.push(event)
	}
}

// buffer queues an event for an agent with no subscriber, shedding the
// oldest non-critical entry once the backlog is full. session_end and
// error entries are never shed for a non-critical arrival.
func (r *Router) buffer(agentID string, event Event) {
	queue := r.backlog[agentID]
	if len(queue) >= r.backlogLimit {
		victim := -1
		for i, queued := range queue {
			if !queued.IsCritical() {
				victim = i
				break
			}
		}
		switch {
		case victim >= 0:
			queue = append(queue[:victim], queue[victim+1:]...)
		case event.IsCritical():
			queue = queue[1:]
		default:
			if r.logger != nil {
				r.logger.Printf("roombridge: backlog full for %s, dropped %s", agentID, event.Type)
			}
			return
		}
		if r.logger != nil {
			r.logger.Printf("roombridge: backlog shed for %s (limit %d)", agentID, r.backlogLimit)
		}
	}
	r.backlog[agentID] = append(queue, event)
}

// subscriber owns one delivery channel. The channel is never closed;
// cancellation closes done instead, so a push racing Close can never
// panic or block.
type subscriber struct {
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	logger Logger
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan Event, capacity),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// push offers the event without ever blocking. A full buffer sheds
// whichever of the oldest queued event and the incoming one ranks lower,
// so session_end and error survive while agent_reply goes first.
func (s *subscriber) push(event Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- event:
		return
	default:
	}
	select {
	case oldest := <-s.ch:
		keep, drop := event, oldest
		if shedRank(oldest) > shedRank(event) {
			keep, drop = oldest, event
		}
		s.logDrop(drop)
		select {
		case s.ch <- keep:
		default:
			s.logDrop(keep)
		}
	default:
		s.logDrop(event)
	}
}

func (s *subscriber) logDrop(event Event) {
	if s.logger != nil {
		s.logger.Printf("roombridge: dropped %s (queue overflow)", event.Type)
	}
}

// shedRank orders events for shedding: critical events outrank everything,
// and agent replies are the first to go since the worker can regenerate them.
func shedRank(event Event) int {
	switch {
	case event.IsCritical():
		return 2
	case event.Type == TypeAgentReply:
		return 0
	default:
		return 1
	}
}
