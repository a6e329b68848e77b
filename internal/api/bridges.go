package api

import (
	"sync"

	"resultsdash/ports"
)

// Map commands carried in EventMap payloads
const (
	MapReset        = "reset"
	MapResetColours = "resetColours"
	MapLeading      = "mapLeadingConstituencyResults"
	MapStrength     = "mapStrengthOfParty"
	MapSelectBySlug = "selectBySlug"
)

// MapBridge is one session's map widget as seen from the server: commands are broadcast to the
// session's browser tabs and clicks reported back by the browser are delivered with Emit.
type MapBridge struct {
	hub       *SSEHub
	sessionID string

	mu        sync.RWMutex
	callbacks []func(string)
}

var (
	_ ports.MapPort     = (*MapBridge)(nil)
	_ ports.ClickSource = (*MapBridge)(nil)
)

// NewMapBridge creates the map bridge of one session
func NewMapBridge(hub *SSEHub, sessionID string) *MapBridge {
	return &MapBridge{hub: hub, sessionID: sessionID}
}

func (m *MapBridge) command(name string, args map[string]interface{}) {
	data := map[string]interface{}{"command": name}
	for k, v := range args {
		data[k] = v
	}
	m.hub.Broadcast(m.sessionID, EventMap, data)
}

func (m *MapBridge) Reset()                         { m.command(MapReset, nil) }
func (m *MapBridge) ResetColours()                  { m.command(MapResetColours, nil) }
func (m *MapBridge) MapLeadingConstituencyResults() { m.command(MapLeading, nil) }

func (m *MapBridge) MapStrengthOfParty(partySlug string) {
	m.command(MapStrength, map[string]interface{}{"party": partySlug})
}

func (m *MapBridge) SelectBySlug(constituencySlug string) {
	m.command(MapSelectBySlug, map[string]interface{}{"slug": constituencySlug})
}

// OnClick implements ports.ClickSource
func (m *MapBridge) OnClick(cb func(featureName string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Emit delivers a click on the feature named name to every callback
func (m *MapBridge) Emit(name string) {
	m.mu.RLock()
	callbacks := make([]func(string), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for _, cb := range callbacks {
		cb(name)
	}
}

// HistoryBridge asks the session's browser tabs to push a history entry
type HistoryBridge struct {
	hub       *SSEHub
	sessionID string
}

var _ ports.HistoryPort = (*HistoryBridge)(nil)

func NewHistoryBridge(hub *SSEHub, sessionID string) *HistoryBridge {
	return &HistoryBridge{hub: hub, sessionID: sessionID}
}

// PushState implements ports.HistoryPort
func (b *HistoryBridge) PushState(url string) {
	b.hub.Broadcast(b.sessionID, EventHistory, map[string]interface{}{"url": url})
}

// PublishState broadcasts a session's state after a change
func (h *SSEHub) PublishState(sessionID string, state interface{}) {
	h.Broadcast(sessionID, EventState, map[string]interface{}{"state": state})
}
