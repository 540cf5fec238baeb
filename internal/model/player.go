package model

import (
	"slices"
	"strings"
)

// Player is a game account keyed by the client-provided UUID.
//
// Name changes go through Rename so that NameLower, the secondary lookup key,
// always mirrors Name.
type Player struct {
	ID            string      `json:"_id"`
	Name          string      `json:"name"`
	NameLower     string      `json:"nameLower"`
	IPs           []string    `json:"ips"`
	FirstJoinedAt int64       `json:"firstJoinedAt"`
	LastJoinedAt  int64       `json:"lastJoinedAt"`
	RankIDs       []string    `json:"rankIds"`
	TagIDs        []string    `json:"tagIds"`
	ActiveTagID   *string     `json:"activeTagId"`
	Stats         PlayerStats `json:"stats"`
}

type PlayerStats struct {
	ServerPlaytime int64 `json:"serverPlaytime"`
	Kills          int   `json:"kills"`
	Deaths         int   `json:"deaths"`
	Wins           int   `json:"wins"`
	Losses         int   `json:"losses"`
	MatchesPlayed  int   `json:"matchesPlayed"`
}

// SimplePlayer is the embedded reference stored on punishments.
type SimplePlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewPlayer(id, name string) *Player {
	p := &Player{
		ID:      id,
		IPs:     []string{},
		RankIDs: []string{},
		TagIDs:  []string{},
	}
	p.Rename(name)
	return p
}

func (p *Player) EntityID() string { return p.ID }

func (p *Player) LookupName() string { return p.NameLower }

func (p *Player) Rename(name string) {
	p.Name = name
	p.NameLower = strings.ToLower(name)
}

func (p *Player) Simple() SimplePlayer {
	return SimplePlayer{ID: p.ID, Name: p.Name}
}

// AddIP records a hashed address once.
func (p *Player) AddIP(hashed string) {
	if !slices.Contains(p.IPs, hashed) {
		p.IPs = append(p.IPs, hashed)
	}
}

func (p *Player) HasRank(rankID string) bool { return slices.Contains(p.RankIDs, rankID) }

func (p *Player) HasTag(tagID string) bool { return slices.Contains(p.TagIDs, tagID) }

func (p *Player) AddRank(rankID string) error {
	if p.HasRank(rankID) {
		return ErrRankAlreadyPresent
	}
	p.RankIDs = append(p.RankIDs, rankID)
	return nil
}

func (p *Player) RemoveRank(rankID string) error {
	if !p.HasRank(rankID) {
		return ErrRankNotPresent
	}
	p.RankIDs = slices.DeleteFunc(p.RankIDs, func(id string) bool { return id == rankID })
	return nil
}

// MergeRanks adds every id not already held, keeping order.
func (p *Player) MergeRanks(rankIDs []string) {
	for _, id := range rankIDs {
		if !p.HasRank(id) {
			p.RankIDs = append(p.RankIDs, id)
		}
	}
}

func (p *Player) AddTag(tagID string) error {
	if p.HasTag(tagID) {
		return ErrTagAlreadyPresent
	}
	p.TagIDs = append(p.TagIDs, tagID)
	return nil
}

// RemoveTag drops the tag and clears it as the active tag if it was selected.
func (p *Player) RemoveTag(tagID string) error {
	if !p.HasTag(tagID) {
		return ErrTagNotPresent
	}
	p.TagIDs = slices.DeleteFunc(p.TagIDs, func(id string) bool { return id == tagID })
	if p.ActiveTagID != nil && *p.ActiveTagID == tagID {
		p.ActiveTagID = nil
	}
	return nil
}

// SetActiveTag selects one of the player's tags; nil clears the selection.
func (p *Player) SetActiveTag(tagID *string) error {
	if tagID == nil {
		p.ActiveTagID = nil
		return nil
	}
	if !p.HasTag(*tagID) {
		return ErrTagNotPresent
	}
	id := *tagID
	p.ActiveTagID = &id
	return nil
}
