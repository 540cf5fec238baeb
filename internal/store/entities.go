package store

import (
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/gamerelay/internal/model"
)

// MatchLifetime bounds how long a match stays cached: match data is only
// useful while the match or its immediate aftermath is relevant.
const MatchLifetime = 24 * time.Hour

const (
	NamespacePlayer = "player"
	NamespaceMatch  = "match"
	NamespaceRank   = "rank"
	NamespaceTag    = "tag"
)

type (
	PlayerStore = Keyed[*model.Player]
	MatchStore  = Keyed[*model.Match]
	RankStore   = Keyed[*model.Rank]
	TagStore    = Keyed[*model.Tag]
)

func NewPlayerStore(cache redis.Cmdable, db Durable) *PlayerStore {
	return NewKeyed[*model.Player](KeyedConfig{Namespace: NamespacePlayer, Table: TablePlayers}, cache, db)
}

// NewMatchStore uses MatchLifetime when ttl is not positive.
func NewMatchStore(cache redis.Cmdable, db Durable, ttl time.Duration) *MatchStore {
	if ttl <= 0 {
		ttl = MatchLifetime
	}
	return NewKeyed[*model.Match](KeyedConfig{Namespace: NamespaceMatch, Table: TableMatches, TTL: ttl}, cache, db)
}

func NewRankStore(cache redis.Cmdable, db Durable) *RankStore {
	return NewKeyed[*model.Rank](KeyedConfig{Namespace: NamespaceRank, Table: TableRanks}, cache, db)
}

func NewTagStore(cache redis.Cmdable, db Durable) *TagStore {
	return NewKeyed[*model.Tag](KeyedConfig{Namespace: NamespaceTag, Table: TableTags}, cache, db)
}

// Stores is the process-wide set of entity stores, built once in app.New and
// passed to the gateway and the admin API.
type Stores struct {
	Players     *PlayerStore
	Matches     *MatchStore
	Ranks       *RankStore
	Tags        *TagStore
	Sessions    *Collection[*model.Session]
	Punishments *Collection[*model.Punishment]
}

func New(cache redis.Cmdable, db Durable, matchTTL time.Duration) *Stores {
	return &Stores{
		Players:     NewPlayerStore(cache, db),
		Matches:     NewMatchStore(cache, db, matchTTL),
		Ranks:       NewRankStore(cache, db),
		Tags:        NewTagStore(cache, db),
		Sessions:    NewCollection[*model.Session](TableSessions, db),
		Punishments: NewCollection[*model.Punishment](TablePunishments, db),
	}
}
