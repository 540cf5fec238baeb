package gateway

// EventType is the closed set of events a game server may send.
type EventType int

const (
	MatchLoad EventType = iota + 1
	MatchStart
	MatchEnd
	PlayerJoin
	PlayerLeave
	PlayerDeath
	PlayerChat
)

var eventNames = map[EventType]string{
	MatchLoad:   "MatchLoad",
	MatchStart:  "MatchStart",
	MatchEnd:    "MatchEnd",
	PlayerJoin:  "PlayerJoin",
	PlayerLeave: "PlayerLeave",
	PlayerDeath: "PlayerDeath",
	PlayerChat:  "PlayerChat",
}

var eventTypes = func() map[string]EventType {
	m := make(map[string]EventType, len(eventNames))
	for t, name := range eventNames {
		m[name] = t
	}
	return m
}()

// ParseEventType maps a wire name to its EventType. Unknown names are a
// decode error.
func ParseEventType(name string) (EventType, error) {
	t, ok := eventTypes[name]
	if !ok {
		return 0, decodeError(ErrUnknownEvent, name, nil)
	}
	return t, nil
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "EventType(unknown)"
}

// Event payloads.

type MatchLoadData struct {
	MatchID string `json:"matchId"`
	Map     string `json:"map"`
}

type MatchStartData struct {
	MatchID string `json:"matchId"`
}

type MatchEndData struct {
	MatchID string   `json:"matchId"`
	Winners []string `json:"winners"`
}

type PlayerJoinData struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
}

type PlayerLeaveData struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
}

type PlayerDeathData struct {
	Victim   string `json:"victim"`
	Attacker string `json:"attacker"`
	MatchID  string `json:"matchId"`
	Cause    string `json:"cause"`
}

type PlayerChatData struct {
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
	Channel  string `json:"channel"`
}
