package match

import (
	"encoding/binary"
	"hash/fnv"

	"matchday/internal/pitch"
)

// ---------------------------------------------------------------------------
// OWNERSHIP TUNING
// ---------------------------------------------------------------------------
const (
	ownershipRadiusM = 1.2
	// Outfielders can claim up to header height; keepers up to catch height;
	// above that the ball belongs to nobody until it drops.
	headerHeightM = 2.2
	catchHeightM  = 2.9

	// Contest score weights, in integer basis (attribute × weight×100).
	tacklingWeight   = 40
	aggressionWeight = 20
	braveryWeight    = 10
	strengthWeight   = 20
	agilityWeight    = 10

	// Home crowd edge, applied multiplicatively in percent.
	homeAdvantagePct = 105

	// Ball-at-feet edge for the current owner in a contest, in percent.
	possessionBonusPct = 115

	// Flat deterministic bonus for the designated hero player.
	heroBonus = 150
)

var (
	ownershipRadius   = pitch.FromFloat(ownershipRadiusM)
	ownershipRadiusSq = ownershipRadius.Mul(ownershipRadius)
	headerHeight      = pitch.FromFloat(headerHeightM)
	catchHeight       = pitch.FromFloat(catchHeightM)
)

// ownershipOutcome reports what the resolver decided for one tick.
type ownershipOutcome struct {
	Changed bool
	From    int8
	To      int8
}

// contestScore is the deterministic, integer contest strength of a player.
// No RNG: identical states must contest identically.
func contestScore(p *Player, isOwner bool) int64 {
	s := int64(p.Attr.Tackling)*tacklingWeight +
		int64(p.Attr.Aggression)*aggressionWeight +
		int64(p.Attr.Bravery)*braveryWeight +
		int64(p.Attr.Strength)*strengthWeight +
		int64(p.Attr.Agility)*agilityWeight
	if p.Team() == TeamHome {
		s = s * homeAdvantagePct / 100
	}
	if isOwner {
		s = s * possessionBonusPct / 100
	}
	if p.Hero {
		s += heroBonus
	}
	return s
}

// canReach applies the ownership height filter for a player.
func canReach(p *Player, ballH pitch.Fixed) bool {
	if p.IsKeeper() {
		return ballH <= catchHeight
	}
	return ballH <= headerHeight
}

// tieBreakHash returns a deterministic, order-independent hash of a
// candidate's identity and rounded position. Used only when score and
// distance both tie; including the slot makes collisions impossible, so the
// chain is total and never falls back to list order.
func tieBreakHash(slot int8, pos pitch.Coord10) uint64 {
	var buf [9]byte
	buf[0] = byte(slot)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(roundDecimeters(pos.X)))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(roundDecimeters(pos.Y)))
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}

// flightApproach returns the point on the ball's swept path closest to a
// player, with the height chord-interpolated along the path. A loose ball
// moves up to a few meters per tick, several times the ownership radius, so
// claims have to test the path rather than the end point alone.
func flightApproach(at pitch.Coord10, from, to pitch.Coord10) pitch.Coord10 {
	path := from.To(to)
	den := path.LenSq()
	if den == 0 {
		return to
	}
	t := from.To(at).Dot(path).Div(den)
	if t < 0 {
		t = 0
	} else if t > pitch.One {
		t = pitch.One
	}
	closest := from.Add(path.Scale(t))
	closest.H = from.H + (to.H - from.H).Mul(t)
	return closest
}

// roundDecimeters rounds a fixed coordinate to the nearest 0.1 m.
func roundDecimeters(v pitch.Fixed) int32 {
	const q = pitch.Scale / 10
	if v >= 0 {
		return int32((int64(v) + q/2) / q)
	}
	return -int32((int64(-v) + q/2) / q)
}

// resolveOwnership adjudicates the contested ball for one tick.
//
// Candidates are active players inside the ownership radius that pass the
// height filter. With a current owner, a teammate of the owner inside the
// radius freezes ownership (no intra-team ping-pong); otherwise the owner
// defends the ball against the challengers on contest score. Ties resolve
// score → distance → position hash, a total order with no list-order bias.
func resolveOwnership(b *Ball, players []Player) ownershipOutcome {
	type candidate struct {
		slot   int8
		score  int64
		distSq pitch.Fixed
		hash   uint64
	}
	var cands [TotalSlots]candidate
	n := 0

	ownerTeam := Team(0)
	hasOwner := b.Owner != NoPlayer
	if hasOwner {
		ownerTeam = SlotTeam(b.Owner)
	}

	// A loose ball is contested along its whole path this tick; an owned
	// ball rides at its carrier's feet and is contested where it sits. The
	// previous toucher only sees the end point: the path starts at their
	// feet, and a kick they could instantly re-claim would never leave.
	swept := !hasOwner && (b.sweptFrom.X != b.Pos.X || b.sweptFrom.Y != b.Pos.Y)

	for i := range players {
		p := &players[i]
		if !p.Active() {
			continue
		}
		ballAt := b.Pos
		if swept && p.Slot != b.PrevOwner {
			ballAt = flightApproach(p.Pos, b.sweptFrom, b.Pos)
		}
		if !canReach(p, ballAt.H) {
			continue
		}
		distSq := p.Pos.DistSqTo(ballAt)
		if distSq > ownershipRadiusSq {
			continue
		}
		if hasOwner && p.Slot != b.Owner && p.Team() == ownerTeam {
			// Owner's teammate in range: possession is settled.
			return ownershipOutcome{From: b.Owner, To: b.Owner}
		}
		cands[n] = candidate{
			slot:   p.Slot,
			score:  contestScore(p, hasOwner && p.Slot == b.Owner),
			distSq: distSq,
		}
		n++
	}

	if n == 0 {
		return ownershipOutcome{From: b.Owner, To: b.Owner}
	}

	best := &cands[0]
	for i := 1; i < n; i++ {
		c := &cands[i]
		switch {
		case c.score > best.score:
			best = c
		case c.score < best.score:
			continue
		case c.distSq < best.distSq:
			best = c
		case c.distSq > best.distSq:
			continue
		default:
			// Full tie: highest position hash wins, whatever the order the
			// candidates were visited in.
			if c.hash == 0 {
				c.hash = tieBreakHash(c.slot, players[c.slot].Pos)
			}
			if best.hash == 0 {
				best.hash = tieBreakHash(best.slot, players[best.slot].Pos)
			}
			if c.hash > best.hash {
				best = c
			}
		}
	}

	if hasOwner && best.slot == b.Owner {
		return ownershipOutcome{From: b.Owner, To: b.Owner}
	}

	from := b.Owner
	b.giveTo(best.slot, players[best.slot].Pos)
	return ownershipOutcome{Changed: true, From: from, To: best.slot}
}
