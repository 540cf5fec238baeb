package model

import "strings"

type Rank struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	NameLower   string   `json:"nameLower"`
	DisplayName string   `json:"displayName,omitempty"`
	Priority    int      `json:"priority"`
	Prefix      string   `json:"prefix,omitempty"`
	Permissions []string `json:"permissions"`
	Staff       bool     `json:"staff"`
	ApplyOnJoin bool     `json:"applyOnJoin"`
	CreatedAt   int64    `json:"createdAt"`
}

func (r *Rank) EntityID() string { return r.ID }

func (r *Rank) LookupName() string { return r.NameLower }

func (r *Rank) Rename(name string) {
	r.Name = name
	r.NameLower = strings.ToLower(name)
}

type Tag struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	NameLower string `json:"nameLower"`
	Display   string `json:"display"`
	CreatedAt int64  `json:"createdAt"`
}

func (t *Tag) EntityID() string { return t.ID }

func (t *Tag) LookupName() string { return t.NameLower }

func (t *Tag) Rename(name string) {
	t.Name = name
	t.NameLower = strings.ToLower(name)
}
