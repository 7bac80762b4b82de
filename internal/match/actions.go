package match

import "matchday/internal/pitch"

// ScheduledAction is a pending or in-flight ball action. The queue owns
// them; at most one active action per player at a time.
type ScheduledAction struct {
	Kind       ActionKind
	Actor      int8
	TargetSlot int8 // pass receiver, NoPlayer otherwise
	TargetPos  pitch.Coord10
	// Power is the intended launch speed in units/s.
	Power pitch.Fixed
	// LaunchVZ is the intended vertical launch speed in units/s.
	LaunchVZ pitch.Fixed
	// Curve is the intended spin magnitude.
	Curve pitch.Fixed
	// CompleteTick is when the action executes.
	CompleteTick uint32
	// DecisionQuality 0.5–2.0 feeds the error model.
	DecisionQuality float64
	WeakFoot        bool
}

// actionWindup is how many ticks an action takes from decision to contact.
var actionWindup = map[ActionKind]uint32{
	ActionPass:         3,
	ActionShot:         4,
	ActionCross:        4,
	ActionClearance:    2,
	ActionDribbleTouch: 1,
}

// actionQueue holds scheduled actions and enforces one-per-player.
type actionQueue struct {
	pending []ScheduledAction
	busy    [TotalSlots]bool
}

func newActionQueue() actionQueue {
	return actionQueue{pending: make([]ScheduledAction, 0, 8)}
}

// schedule adds an action unless the actor already has one in flight.
func (q *actionQueue) schedule(a ScheduledAction) bool {
	if a.Actor < 0 || int(a.Actor) >= TotalSlots || q.busy[a.Actor] {
		return false
	}
	q.busy[a.Actor] = true
	q.pending = append(q.pending, a)
	return true
}

// hasAction reports whether a player has an action in flight.
func (q *actionQueue) hasAction(slot int8) bool {
	return slot >= 0 && int(slot) < TotalSlots && q.busy[slot]
}

// collectDue moves every action completing at tick into out, filtering the
// pending list in place without reallocating.
func (q *actionQueue) collectDue(tick uint32, out []ScheduledAction) []ScheduledAction {
	kept := q.pending[:0]
	for _, a := range q.pending {
		if a.CompleteTick <= tick {
			q.busy[a.Actor] = false
			out = append(out, a)
		} else {
			kept = append(kept, a)
		}
	}
	q.pending = kept
	return out
}

// cancelFor drops any pending action for a slot (lost the ball, play dead).
func (q *actionQueue) cancelFor(slot int8) {
	if slot < 0 || int(slot) >= TotalSlots || !q.busy[slot] {
		return
	}
	kept := q.pending[:0]
	for _, a := range q.pending {
		if a.Actor != slot {
			kept = append(kept, a)
		}
	}
	q.pending = kept
	q.busy[slot] = false
}

// reset clears everything (restarts, half-time).
func (q *actionQueue) reset() {
	q.pending = q.pending[:0]
	for i := range q.busy {
		q.busy[i] = false
	}
}

// ---------------------------------------------------------------------------
// DECISION TUNING
// ---------------------------------------------------------------------------
const (
	shootRangeM      = 26.0
	crossChannelM    = 14.0 // within this of a touchline counts as wide
	passMaxRangeM    = 38.0
	pressureRadiusM  = 5.0
	dribbleTouchGapM = 2.2
)

// pressureOn measures how crowded a player is by opponents, 0..1.
func (e *MatchEngine) pressureOn(p *Player) float64 {
	var scratch [TotalSlots]int8
	radius := pitch.FromFloat(pressureRadiusM)
	nearby := e.grid.QueryRadius(e.players[:], p.Pos, radius, scratch[:0])
	total := 0.0
	for _, slot := range nearby {
		if SlotTeam(slot) == p.Team() {
			continue
		}
		d := e.players[slot].Pos.DistTo(p.Pos).Meters()
		total += (1 - d/pressureRadiusM) * 0.6
	}
	return clamp01(total)
}

// decideForOwner picks what the ball carrier does this tick. Options are
// scored, the carrier takes the best one, and how clearly it beat the
// runner-up becomes the decision quality fed to the error model.
func (e *MatchEngine) decideForOwner(p *Player) {
	if e.queue.hasAction(p.Slot) {
		return
	}
	d := e.dir[p.Team()]
	goal := d.OppGoalCenter()
	distGoal := p.Pos.DistTo(goal).Meters()

	shotScore := e.scoreShot(p, distGoal)
	passSlot, passScore := e.scorePass(p, d)
	crossScore := e.scoreCross(p, d)
	dribbleScore := e.scoreDribble(p, d)

	// Difficulty handicaps the AI's read of its options.
	jitterSpan := 0.06 + 0.10*(1-float64(e.difficulty[p.Team()])/100)
	shotScore += (e.rng.Float64()*2 - 1) * jitterSpan
	passScore += (e.rng.Float64()*2 - 1) * jitterSpan
	crossScore += (e.rng.Float64()*2 - 1) * jitterSpan
	dribbleScore += (e.rng.Float64()*2 - 1) * jitterSpan

	best, second := shotScore, passScore
	choice := ActionShot
	if passScore > best {
		best, second = passScore, best
		choice = ActionPass
	} else if passScore > second {
		second = passScore
	}
	if crossScore > best {
		best, second = crossScore, best
		choice = ActionCross
	} else if crossScore > second {
		second = crossScore
	}
	if dribbleScore > best {
		best, second = dribbleScore, best
		choice = ActionDribbleTouch
	} else if dribbleScore > second {
		second = dribbleScore
	}

	quality := clampFloat(0.75+0.5*float64(p.Attr.Decisions)/100+0.4*(best-second), 0.5, 2.0)

	switch choice {
	case ActionShot:
		e.scheduleShot(p, quality)
	case ActionPass:
		e.schedulePass(p, passSlot, quality)
	case ActionCross:
		e.scheduleCross(p, quality)
	default:
		e.scheduleDribbleTouch(p, quality)
	}
}

func (e *MatchEngine) scoreShot(p *Player, distGoalM float64) float64 {
	if distGoalM > shootRangeM {
		return -1
	}
	base := (shootRangeM - distGoalM) / shootRangeM
	return base*0.9*(0.4+0.6*float64(p.Attr.Shooting)/100) + 0.1
}

// scorePass finds the best receiving teammate and scores the option.
func (e *MatchEngine) scorePass(p *Player, d DirectionContext) (int8, float64) {
	bestSlot := NoPlayer
	bestScore := -1.0
	for i := range e.players {
		mate := &e.players[i]
		if mate.Team() != p.Team() || mate.Slot == p.Slot || !mate.Active() {
			continue
		}
		distM := p.Pos.DistTo(mate.Pos).Meters()
		if distM < 3 || distM > passMaxRangeM {
			continue
		}
		// Forward progress plus receiver openness minus length risk.
		gain := (d.AttackDepth(mate.Pos) - d.AttackDepth(p.Pos)).Meters()
		openness := e.nearestOpponentDistM(mate)
		score := 0.35 + gain*0.012 + clampFloat(openness/12, 0, 0.4) - distM*0.004
		if score > bestScore {
			bestScore = score
			bestSlot = mate.Slot
		}
	}
	if bestSlot == NoPlayer {
		return NoPlayer, -1
	}
	// Good passers trust harder options.
	bestScore *= 0.7 + 0.5*float64(p.Attr.Passing)/100
	return bestSlot, bestScore
}

func (e *MatchEngine) scoreCross(p *Player, d DirectionContext) float64 {
	// Only from wide channels in the attacking third.
	depthM := d.AttackDepth(p.Pos).Meters()
	if depthM < pitch.FieldLengthM*2/3 {
		return -1
	}
	yM := p.Pos.Y.Meters()
	if yM > crossChannelM && yM < pitch.FieldWidthM-crossChannelM {
		return -1
	}
	// Worth more with bodies in the box.
	box := e.boxPresence(p.Team(), d)
	return 0.3 + 0.15*float64(box) + 0.3*float64(p.Attr.Crossing)/100
}

func (e *MatchEngine) scoreDribble(p *Player, d DirectionContext) float64 {
	ahead := d.Advance(p.Pos, pitch.FromMeters(8))
	space := 1.0
	for i := range e.players {
		opp := &e.players[i]
		if opp.Team() == p.Team() || !opp.Active() {
			continue
		}
		if distM := opp.Pos.DistTo(ahead).Meters(); distM < 8 {
			space = clampFloat(distM/8, 0, space)
		}
	}
	return 0.34 + 0.35*space*(0.4+0.6*float64(p.Attr.Technique)/100)
}

func (e *MatchEngine) nearestOpponentDistM(p *Player) float64 {
	best := 1e9
	for i := range e.players {
		opp := &e.players[i]
		if opp.Team() == p.Team() || !opp.Active() {
			continue
		}
		if d := opp.Pos.DistTo(p.Pos).Meters(); d < best {
			best = d
		}
	}
	return best
}

// boxPresence counts teammates inside the attacked penalty area.
func (e *MatchEngine) boxPresence(t Team, d DirectionContext) int {
	box := pitch.LeftPenaltyArea
	if d.OppGoalCenter().X != 0 {
		box = pitch.RightPenaltyArea
	}
	n := 0
	for i := range e.players {
		p := &e.players[i]
		if p.Team() == t && p.Active() && box.Contains(p.Pos) {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Scheduling
// ---------------------------------------------------------------------------

func (e *MatchEngine) scheduleShot(p *Player, quality float64) {
	d := e.dir[p.Team()]
	goal := d.OppGoalCenter()
	// Aim inside a post; which one is a taste draw from the match stream.
	aimY := goal.Y + pitch.GoalHalfWidth - pitch.FromFloat(0.6)
	if e.rng.Float64() < 0.5 {
		aimY = goal.Y - pitch.GoalHalfWidth + pitch.FromFloat(0.6)
	}
	target := pitch.Coord10{X: goal.X, Y: aimY}

	distM := p.Pos.DistTo(target).Meters()
	power := pitch.FromFloat(clampFloat(22+distM*0.45, 22, 34))
	vz := pitch.FromFloat(clampFloat(distM*0.08, 0.4, 3.2))
	curve := pitch.FromFloat(2.0 + 4.0*float64(p.Attr.Technique)/100)

	e.queue.schedule(ScheduledAction{
		Kind:            ActionShot,
		Actor:           p.Slot,
		TargetSlot:      NoPlayer,
		TargetPos:       target,
		Power:           power,
		LaunchVZ:        vz,
		Curve:           curve,
		CompleteTick:    e.tick + actionWindup[ActionShot],
		DecisionQuality: quality,
		WeakFoot:        e.onWeakFoot(p, target),
	})
}

func (e *MatchEngine) schedulePass(p *Player, to int8, quality float64) {
	if to == NoPlayer {
		e.scheduleDribbleTouch(p, quality)
		return
	}
	mate := &e.players[to]
	// Lead the receiver a touch.
	target := mate.Pos.Add(mate.Vel.Scale(pitch.FromFloat(0.4))).ClampTo(pitch.SafeRect)
	distM := p.Pos.DistTo(target).Meters()
	power := pitch.FromFloat(clampFloat(7+distM*0.55, 8, 26))

	// Loft the ball over a blocked lane.
	vz := pitch.Fixed(0)
	if distM > 20 || e.laneBlocked(p, target) {
		vz = pitch.FromFloat(clampFloat(distM*0.14, 1.5, 4.5))
	}

	e.queue.schedule(ScheduledAction{
		Kind:            ActionPass,
		Actor:           p.Slot,
		TargetSlot:      to,
		TargetPos:       target,
		Power:           power,
		LaunchVZ:        vz,
		Curve:           0,
		CompleteTick:    e.tick + actionWindup[ActionPass],
		DecisionQuality: quality,
		WeakFoot:        e.onWeakFoot(p, target),
	})
}

func (e *MatchEngine) scheduleCross(p *Player, quality float64) {
	d := e.dir[p.Team()]
	goal := d.OppGoalCenter()
	// Drop it around the penalty spot.
	spot := d.Advance(goal, -pitch.FromMeters(pitch.PenaltySpotDepthM))
	spot.Y = goal.Y + pitch.FromFloat((e.rng.Float64()*2-1)*4)
	target := spot.ClampTo(pitch.SafeRect)

	distM := p.Pos.DistTo(target).Meters()
	power := pitch.FromFloat(clampFloat(12+distM*0.5, 14, 28))
	vz := pitch.FromFloat(clampFloat(distM*0.18, 3.0, 6.0))
	// Inswing toward goal.
	curve := pitch.FromFloat(3.0 + 3.0*float64(p.Attr.Crossing)/100)

	e.queue.schedule(ScheduledAction{
		Kind:            ActionCross,
		Actor:           p.Slot,
		TargetSlot:      NoPlayer,
		TargetPos:       target,
		Power:           power,
		LaunchVZ:        vz,
		Curve:           curve,
		CompleteTick:    e.tick + actionWindup[ActionCross],
		DecisionQuality: quality,
		WeakFoot:        e.onWeakFoot(p, target),
	})
}

// scheduleClearance hoofs the ball away from the defended goal.
func (e *MatchEngine) scheduleClearance(p *Player, quality float64) {
	d := e.dir[p.Team()]
	target := d.Advance(p.Pos, pitch.FromMeters(35))
	target.Y += pitch.FromFloat((e.rng.Float64()*2 - 1) * 12)
	target = target.ClampTo(pitch.SafeRect)

	e.queue.schedule(ScheduledAction{
		Kind:            ActionClearance,
		Actor:           p.Slot,
		TargetSlot:      NoPlayer,
		TargetPos:       target,
		Power:           pitch.FromMeters(26),
		LaunchVZ:        pitch.FromFloat(4.0),
		Curve:           0,
		CompleteTick:    e.tick + actionWindup[ActionClearance],
		DecisionQuality: quality,
		WeakFoot:        false,
	})
}

func (e *MatchEngine) scheduleDribbleTouch(p *Player, quality float64) {
	dir := p.Vel
	if dir.IsZero() {
		dir = e.dir[p.Team()].Forward()
	}
	target := p.Pos.Add(dir.WithLen(pitch.FromFloat(dribbleTouchGapM))).ClampTo(pitch.SafeRect)
	speed := p.Vel.Len() + pitch.FromFloat(1.5)

	e.queue.schedule(ScheduledAction{
		Kind:            ActionDribbleTouch,
		Actor:           p.Slot,
		TargetSlot:      NoPlayer,
		TargetPos:       target,
		Power:           speed,
		CompleteTick:    e.tick + actionWindup[ActionDribbleTouch],
		DecisionQuality: quality,
		WeakFoot:        false,
	})
}

// laneBlocked checks for an opponent sitting on the passing lane.
func (e *MatchEngine) laneBlocked(p *Player, target pitch.Coord10) bool {
	lane := p.Pos.To(target)
	laneLen := lane.Len()
	if laneLen == 0 {
		return false
	}
	dir := lane.Normalize()
	for i := range e.players {
		opp := &e.players[i]
		if opp.Team() == p.Team() || !opp.Active() {
			continue
		}
		rel := p.Pos.To(opp.Pos)
		along := rel.Dot(dir)
		if along <= 0 || along >= laneLen {
			continue
		}
		// Perpendicular miss distance.
		perp := rel.Sub(dir.Scale(along)).Len()
		if perp < pitch.FromFloat(1.2) {
			return true
		}
	}
	return false
}

// onWeakFoot guesses whether the kick direction forces the weak foot: a
// right-footer striking hard left (and vice versa).
func (e *MatchEngine) onWeakFoot(p *Player, target pitch.Coord10) bool {
	to := p.Pos.To(target)
	if to.X.Abs() >= to.Y.Abs() {
		return false
	}
	if p.Foot == FootRight {
		return to.Y < 0
	}
	return to.Y > 0
}
