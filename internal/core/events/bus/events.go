package bus

import (
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/world"
)

// Topics published by the simulation core.
const (
	TopicWeaponFired      = "weapon.fired"
	TopicGrenadeDetonated = "grenade.detonated"
	TopicRoundEnded       = "round.ended"
	TopicMatchEnded       = "match.ended"
)

// WeaponFired is published once per successful weapon discharge. The audio
// collaborator keys playback off the weapon identifier.
type WeaponFired struct {
	PawnID int
	Weapon world.WeaponID
}

func (WeaponFired) Topic() string { return TopicWeaponFired }

// GrenadeDetonated is published when a utility item activates.
type GrenadeDetonated struct {
	Kind    world.UtilityID
	Pos     mathx.Vec3
	OwnerID int
}

func (GrenadeDetonated) Topic() string { return TopicGrenadeDetonated }

// RoundEnded is published on the transition into ROUND_OVER.
type RoundEnded struct {
	Winner world.Team
	Round  int
}

func (RoundEnded) Topic() string { return TopicRoundEnded }

// MatchEnded is published on the transition into MATCH_OVER.
type MatchEnded struct {
	ScoreAttack int
	ScoreDefend int
}

func (MatchEnded) Topic() string { return TopicMatchEnded }
