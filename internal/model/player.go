package model

import "time"

// Default stats for a freshly spawned player
const (
	DefaultHealth = 100
	MaxHealth     = 100
)

// Player mirrors the on-chain player entity owned by a single account
type Player struct {
	Owner       string `json:"owner"`
	Experience  uint64 `json:"experience"`
	Health      int64  `json:"health"`
	Coins       uint64 `json:"coins"`
	CreationDay int64  `json:"creation_day"` // days since the Unix epoch
}

// Clone returns a copy of the player, or nil for a nil player
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// NewPlayer returns the initial record for an owner spawned at the given time
func NewPlayer(owner string, now time.Time) *Player {
	return &Player{
		Owner:       owner,
		Health:      DefaultHealth,
		CreationDay: DayIndex(now),
	}
}

// DayIndex converts a time to whole days since the Unix epoch
func DayIndex(t time.Time) int64 {
	return t.Unix() / int64((24 * time.Hour).Seconds())
}

// DurableState is the persisted subset of the player store
type DurableState struct {
	Player      *Player `json:"player"`
	GameStarted bool    `json:"game_started"`
}

// PlayerDelta is the signed change to a player's stats made by one transaction
type PlayerDelta struct {
	Experience int64 `json:"experience"`
	Health     int64 `json:"health"`
	Coins      int64 `json:"coins"`
}

// Diff returns the change that turns before into after
func Diff(before, after Player) PlayerDelta {
	return PlayerDelta{
		Experience: int64(after.Experience) - int64(before.Experience),
		Health:     after.Health - before.Health,
		Coins:      int64(after.Coins) - int64(before.Coins),
	}
}

// Without removes d from p. Stats never drop below zero.
func (p Player) Without(d PlayerDelta) Player {
	p.Experience = subClamped(p.Experience, d.Experience)
	p.Coins = subClamped(p.Coins, d.Coins)
	p.Health -= d.Health
	if p.Health < 0 {
		p.Health = 0
	}
	return p
}

func subClamped(v uint64, d int64) uint64 {
	n := int64(v) - d
	if n < 0 {
		return 0
	}
	return uint64(n)
}
