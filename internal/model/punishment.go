package model

type PunishmentKind string

const (
	PunishmentWarn  PunishmentKind = "WARN"
	PunishmentKick  PunishmentKind = "KICK"
	PunishmentMute  PunishmentKind = "MUTE"
	PunishmentBan   PunishmentKind = "BAN"
	PunishmentIPBan PunishmentKind = "IP_BAN"
)

func (k PunishmentKind) Valid() bool {
	switch k {
	case PunishmentWarn, PunishmentKick, PunishmentMute, PunishmentBan, PunishmentIPBan:
		return true
	}
	return false
}

type PunishmentAction struct {
	Kind PunishmentKind `json:"kind"`
	// Length in milliseconds; 0 or negative means permanent.
	Length int64 `json:"length"`
}

func (a PunishmentAction) IsBan() bool {
	return a.Kind == PunishmentBan || a.Kind == PunishmentIPBan
}

type Punishment struct {
	ID        string           `json:"_id"`
	Reason    string           `json:"reason"`
	IssuedAt  int64            `json:"issuedAt"`
	Offence   int              `json:"offence"`
	Action    PunishmentAction `json:"action"`
	Note      string           `json:"note,omitempty"`
	Punisher  *SimplePlayer    `json:"punisher,omitempty"`
	Target    SimplePlayer     `json:"target"`
	TargetIPs []string         `json:"targetIps"`
	Silent    bool             `json:"silent"`
	Reverted  bool             `json:"reverted"`
}

func (p *Punishment) EntityID() string { return p.ID }

func (p *Punishment) LookupName() string { return "" }

// ActiveAt reports whether the punishment still applies at now (unix millis).
// Warnings and kicks are instantaneous and never active.
func (p *Punishment) ActiveAt(now int64) bool {
	if p.Reverted {
		return false
	}
	switch p.Action.Kind {
	case PunishmentWarn, PunishmentKick:
		return false
	}
	if p.Action.Length <= 0 {
		return true
	}
	return p.IssuedAt+p.Action.Length > now
}

// Session spans one login to the matching logout. EndedAt is 0 while active.
type Session struct {
	ID        string `json:"_id"`
	PlayerID  string `json:"playerId"`
	CreatedAt int64  `json:"createdAt"`
	EndedAt   int64  `json:"endedAt"`
}

func (s *Session) EntityID() string { return s.ID }

func (s *Session) LookupName() string { return "" }

func (s *Session) Active() bool { return s.EndedAt == 0 }
