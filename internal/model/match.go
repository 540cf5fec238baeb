package model

import "slices"

// Match is the state a game server reports for one round on one map.
type Match struct {
	ID           string   `json:"_id"`
	ServerID     string   `json:"serverId"`
	Map          string   `json:"map"`
	LoadedAt     int64    `json:"loadedAt"`
	StartedAt    int64    `json:"startedAt"`
	EndedAt      int64    `json:"endedAt"`
	Winner       string   `json:"winner,omitempty"`
	Participants []string `json:"participants"`
	Kills        int      `json:"kills"`
}

func (m *Match) EntityID() string { return m.ID }

// LookupName is empty: matches are only addressed by id.
func (m *Match) LookupName() string { return "" }

func (m *Match) Join(playerID string) {
	if !slices.Contains(m.Participants, playerID) {
		m.Participants = append(m.Participants, playerID)
	}
}

func (m *Match) Leave(playerID string) {
	m.Participants = slices.DeleteFunc(m.Participants, func(id string) bool { return id == playerID })
}

func (m *Match) Started() bool { return m.StartedAt > 0 }

func (m *Match) Ended() bool { return m.EndedAt > 0 }
