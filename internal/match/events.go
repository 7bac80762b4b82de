package match

import "encoding/json"

// EventKind tags everything that lands in the match record. uint8 keeps
// events compact; payloads carry the kind-specific detail.
type EventKind uint8

const (
	EventKickoff EventKind = iota
	EventPass
	EventShot
	EventGoal
	EventSave
	EventTackle
	EventInterception
	EventFoul
	EventCard
	EventThrowIn
	EventCorner
	EventGoalKick
	EventHalfTime
	EventFullTime
)

func (k EventKind) String() string {
	switch k {
	case EventKickoff:
		return "kickoff"
	case EventPass:
		return "pass"
	case EventShot:
		return "shot"
	case EventGoal:
		return "goal"
	case EventSave:
		return "save"
	case EventTackle:
		return "tackle"
	case EventInterception:
		return "interception"
	case EventFoul:
		return "foul"
	case EventCard:
		return "card"
	case EventThrowIn:
		return "throw_in"
	case EventCorner:
		return "corner"
	case EventGoalKick:
		return "goal_kick"
	case EventHalfTime:
		return "half_time"
	case EventFullTime:
		return "full_time"
	default:
		return "unknown"
	}
}

// Event is one timestamped match record entry. Payload is the JSON-encoded
// kind-specific struct; Seq is the insertion order and, together with the
// deterministic engine, makes two replays byte-comparable.
type Event struct {
	Seq     uint32          `json:"seq"`
	Tick    uint32          `json:"tick"`
	Minute  uint16          `json:"minute"`
	Kind    EventKind       `json:"kind"`
	KindStr string          `json:"kindStr"`
	Team    Team            `json:"team"`
	Player  int8            `json:"player"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload shapes, one per kind that needs detail.

type PassPayload struct {
	From      int8 `json:"from"`
	To        int8 `json:"to"`
	Completed bool `json:"completed"`
}

type ShotPayload struct {
	OnTarget bool    `json:"onTarget"`
	FromXM   float64 `json:"fromXm"`
	FromYM   float64 `json:"fromYm"`
}

type GoalPayload struct {
	Scorer int8 `json:"scorer"`
	Assist int8 `json:"assist"`
	Home   int  `json:"home"`
	Away   int  `json:"away"`
}

type CardPayload struct {
	Color string `json:"color"` // "yellow" or "red"
}

type RestartPayload struct {
	XM float64 `json:"xm"`
	YM float64 `json:"ym"`
}

// EventRecord collects events in order, in memory, synchronously. The tick
// loop appends; nothing inside the engine ever blocks on I/O for it.
type EventRecord struct {
	events []Event
	counts [EventFullTime + 1]int
}

// NewEventRecord sizes the record for a full match.
func NewEventRecord() *EventRecord {
	return &EventRecord{events: make([]Event, 0, 4096)}
}

// Add appends an event, stamping sequence and kind string.
func (r *EventRecord) Add(tick uint32, minute uint16, kind EventKind, team Team, player int8, payload any) {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	r.events = append(r.events, Event{
		Seq:     uint32(len(r.events)),
		Tick:    tick,
		Minute:  minute,
		Kind:    kind,
		KindStr: kind.String(),
		Team:    team,
		Player:  player,
		Payload: raw,
	})
	if int(kind) < len(r.counts) {
		r.counts[kind]++
	}
}

// Events returns the ordered record. The engine exposes this read-only.
func (r *EventRecord) Events() []Event { return r.events }

// Count returns how many events of a kind were recorded.
func (r *EventRecord) Count(kind EventKind) int {
	if int(kind) >= len(r.counts) {
		return 0
	}
	return r.counts[kind]
}

// Len returns the total event count.
func (r *EventRecord) Len() int { return len(r.events) }
