package match

import (
	"math/rand"

	"matchday/internal/pitch"
)

// MatchPhase is the engine's top-level play state.
type MatchPhase uint8

const (
	PhaseRestart MatchPhase = iota // dead ball, waiting on a restart
	PhaseOpenPlay
	PhaseFullTime
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseOpenPlay:
		return "open_play"
	case PhaseFullTime:
		return "full_time"
	default:
		return "restart"
	}
}

// pendingRestart is a scheduled dead-ball resumption.
type pendingRestart struct {
	kind       EventKind
	team       Team
	spot       pitch.Coord10
	resumeTick uint32
}

// pendingPass tracks a launched pass until it finds a foot.
type pendingPass struct {
	from int8
	to   int8
	team Team
}

// pendingShot tracks a launched shot until it is saved, scored, or dies.
type pendingShot struct {
	shooter  int8
	team     Team
	onTarget bool
}

// Restart pacing and assorted engine tuning.
const (
	restartDelayTicks = 30 // 1.5 s of dead time before a restart is taken
	decisionCooldown  = 6  // minimum ticks between a carrier's decisions
	dribbleLeadM      = 0.4
	saveRadiusM       = 1.8
	foulChancePct     = 12
	yellowChancePct   = 22
	redChancePct      = 3
	halfTimeRecovery  = 180_000 // stamina PPM given back at the break
)

// MatchEngine owns every piece of match state and advances it one decision
// tick at a time. It is exclusively the caller's: no goroutines, no locks,
// no I/O inside stepping. Same plan, same seed, same match.
type MatchEngine struct {
	plan      MatchPlan
	rng       *rand.Rand
	telemetry Telemetry

	tick      uint32
	half      uint8
	halfTicks uint32
	phase     MatchPhase

	players [TotalSlots]Player
	ball    Ball
	grid    *playerGrid

	dir        [2]DirectionContext
	tactics    [2]TeamTactics
	keeper     [2]KeeperState
	difficulty [2]uint8
	score      [2]int

	queue        actionQueue
	nextDecision uint32

	restart *pendingRestart
	pass    *pendingPass
	shot    *pendingShot

	record    *EventRecord
	stats     MatchStats
	trace     *Trace
	snapshots *SnapshotPool

	// due is scratch for action collection, reused every tick.
	due []ScheduledAction
}

// Option customizes engine construction.
type Option func(*MatchEngine)

// WithTelemetry attaches a diagnostic sink. Without it the engine stays
// silent; there is no ambient global to leak into.
func WithTelemetry(t Telemetry) Option {
	return func(e *MatchEngine) {
		if t != nil {
			e.telemetry = t
		}
	}
}

// NewMatchEngine validates the plan and builds a ready-to-step engine with
// both sides at kickoff positions. A validation failure returns a
// descriptive error and no engine.
func NewMatchEngine(plan MatchPlan, opts ...Option) (*MatchEngine, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	e := &MatchEngine{
		plan:      plan,
		rng:       rand.New(rand.NewSource(plan.Seed)),
		telemetry: NopTelemetry{},
		half:      1,
		halfTicks: plan.halfTicks(),
		grid:      newPlayerGrid(),
		queue:     newActionQueue(),
		record:    NewEventRecord(),
		snapshots: NewSnapshotPool(),
		due:       make([]ScheduledAction, 0, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.dir[TeamHome] = DirectionContext{IsHome: true, AttacksRight: true}
	e.dir[TeamAway] = DirectionContext{IsHome: false, AttacksRight: false}
	e.tactics[TeamHome] = TeamTactics{
		Formation:    FormationByName(plan.Home.Formation),
		Instructions: plan.Home.Instructions,
		Coordination: plan.Home.Coordination,
	}
	e.tactics[TeamAway] = TeamTactics{
		Formation:    FormationByName(plan.Away.Formation),
		Instructions: plan.Away.Instructions,
		Coordination: plan.Away.Coordination,
	}
	e.difficulty[TeamHome] = plan.difficulty(TeamHome)
	e.difficulty[TeamAway] = plan.difficulty(TeamAway)

	e.buildSquad(TeamHome, &plan.Home)
	e.buildSquad(TeamAway, &plan.Away)

	if plan.Capabilities.Trace {
		e.trace = newTrace(e.halfTicks * 2)
	}

	e.ball = NewBall(pitch.CenterSpot)
	e.lineUp()
	e.scheduleRestart(EventKickoff, TeamHome, pitch.CenterSpot)
	e.record.Add(e.tick, e.minute(), EventKickoff, TeamHome, NoPlayer, nil)
	e.telemetry.EventRecorded(EventKickoff)
	return e, nil
}

// buildSquad instantiates one side's starting XI into the slot array.
func (e *MatchEngine) buildSquad(t Team, tp *TeamPlan) {
	formation := FormationByName(tp.Formation)
	base := int8(0)
	if t == TeamAway {
		base = SlotsPerTeam
	}
	for i := range tp.Starters {
		s := &tp.Starters[i]
		slot := base + int8(s.Slot)
		e.players[slot] = Player{
			Slot:       slot,
			Name:       s.Name,
			Role:       formation.Roles[s.Slot],
			Foot:       s.Foot,
			Attr:       s.Attr,
			Trait:      s.Trait,
			StaminaPPM: staminaFullPPM,
			Hero:       e.plan.UserSlot == slot,
		}
	}
}

// lineUp places everyone on their defending waypoints for a kickoff.
func (e *MatchEngine) lineUp() {
	for i := range e.players {
		p := &e.players[i]
		d := e.dir[p.Team()]
		local := int(p.Slot) % SlotsPerTeam
		p.Pos = d.Mirror(e.tactics[p.Team()].Formation.Defending[local])
		p.Vel = pitch.Vec{}
	}
}

// minute converts the current tick to a match minute for event stamps.
func (e *MatchEngine) minute() uint16 {
	t := e.tick
	base := uint32(0)
	if e.half == 2 {
		t -= e.halfTicks
		base = 45
	}
	m := base + t/(60*TickHz)
	return uint16(m)
}

// ---------------------------------------------------------------------------
// Read-only accessors
// ---------------------------------------------------------------------------

// Score returns (home, away) goals.
func (e *MatchEngine) Score() (int, int) { return e.score[TeamHome], e.score[TeamAway] }

// BallPosition returns the ball's current position.
func (e *MatchEngine) BallPosition() pitch.Coord10 { return e.ball.Pos }

// BallOwner returns the owning slot or NoPlayer.
func (e *MatchEngine) BallOwner() int8 { return e.ball.Owner }

// Tick returns the current tick counter.
func (e *MatchEngine) Tick() uint32 { return e.tick }

// Done reports whether full time has been reached.
func (e *MatchEngine) Done() bool { return e.phase == PhaseFullTime }

// Phase returns the engine's top-level play state.
func (e *MatchEngine) Phase() MatchPhase { return e.phase }

// Events returns the ordered event record.
func (e *MatchEngine) Events() []Event { return e.record.Events() }

// EventCount returns how many events of the kind were recorded.
func (e *MatchEngine) EventCount(kind EventKind) int { return e.record.Count(kind) }

// Player returns a read-only copy of a slot's state.
func (e *MatchEngine) Player(slot int8) (Player, bool) {
	if slot < 0 || int(slot) >= TotalSlots {
		return Player{}, false
	}
	return e.players[slot], true
}

// Metric exposes named probes for the scenario runner and analytics layers.
// Unknown names return 0; probing is never an error.
func (e *MatchEngine) Metric(name string) float64 {
	switch name {
	case "tick":
		return float64(e.tick)
	case "minute":
		return float64(e.minute())
	case "ball.speed_ms":
		return e.ball.Speed().Meters()
	case "ball.height_m":
		return e.ball.Pos.H.Meters()
	case "possession.home":
		h, _ := e.stats.PossessionPct()
		return h
	case "possession.away":
		_, a := e.stats.PossessionPct()
		return a
	case "score.home":
		return float64(e.score[TeamHome])
	case "score.away":
		return float64(e.score[TeamAway])
	case "stamina.avg_home":
		return e.avgStamina(TeamHome)
	case "stamina.avg_away":
		return e.avgStamina(TeamAway)
	default:
		return 0
	}
}

func (e *MatchEngine) avgStamina(t Team) float64 {
	total, n := 0.0, 0
	for i := range e.players {
		if e.players[i].Team() == t {
			total += float64(e.players[i].StaminaPPM) / staminaFullPPM
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Result assembles the match output. Valid any time; complete once Done.
func (e *MatchEngine) Result() MatchResult {
	stats := e.stats
	stats.finalizeMovement(e.players[:])
	return MatchResult{
		HomeTeam:  e.plan.Home.Name,
		AwayTeam:  e.plan.Away.Name,
		HomeGoals: e.score[TeamHome],
		AwayGoals: e.score[TeamAway],
		Seed:      e.plan.Seed,
		Events:    e.record.Events(),
		Stats:     stats,
		Trace:     e.trace,
	}
}

// Play steps to full time and returns the result.
func (e *MatchEngine) Play() MatchResult {
	for !e.Done() {
		e.Step()
	}
	return e.Result()
}

// ---------------------------------------------------------------------------
// The tick
// ---------------------------------------------------------------------------

// Step advances exactly one decision tick. Everything happens synchronously
// inside this call; a tick is atomic and there is no mid-tick cancellation.
func (e *MatchEngine) Step() {
	if e.phase == PhaseFullTime {
		return
	}

	// Clock transitions fire before anything else moves.
	if e.half == 1 && e.tick >= e.halfTicks {
		e.beginSecondHalf()
	}
	if e.tick >= e.halfTicks*2 {
		e.finish()
		return
	}

	// Dead-ball resumption.
	if e.restart != nil && e.tick >= e.restart.resumeTick {
		e.takeRestart()
	}

	if e.phase == PhaseOpenPlay {
		e.due = e.queue.collectDue(e.tick, e.due[:0])
		for i := range e.due {
			e.executeAction(&e.due[i])
		}
		e.decide()
	}

	e.updateKeepers()
	e.movePlayers()
	e.updateBall()

	if e.phase == PhaseOpenPlay && e.ball.Loose() {
		e.keeperSaveCheck()
	}
	if e.phase == PhaseOpenPlay {
		e.resolveBallOwnership()
	}

	if owner := e.ball.Owner; owner != NoPlayer {
		e.stats.team(SlotTeam(owner)).PossessionTicks++
	}
	if e.trace != nil {
		e.trace.record(e.tick, &e.ball, e.players[:])
	}
	e.telemetry.TickDone(e.tick)
	e.tick++
}

func (e *MatchEngine) beginSecondHalf() {
	e.half = 2
	e.record.Add(e.tick, e.minute(), EventHalfTime, TeamHome, NoPlayer, nil)
	e.telemetry.EventRecorded(EventHalfTime)

	e.dir[TeamHome] = e.dir[TeamHome].Swapped()
	e.dir[TeamAway] = e.dir[TeamAway].Swapped()
	for i := range e.players {
		p := &e.players[i]
		p.StaminaPPM += halfTimeRecovery
		if p.StaminaPPM > staminaFullPPM {
			p.StaminaPPM = staminaFullPPM
		}
	}
	e.lineUp()
	// The side that did not open the match kicks off the second half.
	e.scheduleRestart(EventKickoff, TeamAway, pitch.CenterSpot)
	e.record.Add(e.tick, e.minute(), EventKickoff, TeamAway, NoPlayer, nil)
	e.telemetry.EventRecorded(EventKickoff)
}

func (e *MatchEngine) finish() {
	e.phase = PhaseFullTime
	e.record.Add(e.tick, e.minute(), EventFullTime, TeamHome, NoPlayer, nil)
	e.telemetry.EventRecorded(EventFullTime)
}

// scheduleRestart stops play and queues a dead-ball resumption.
func (e *MatchEngine) scheduleRestart(kind EventKind, team Team, spot pitch.Coord10) {
	e.phase = PhaseRestart
	e.queue.reset()
	e.pass, e.shot = nil, nil
	e.ball.PlaceAt(spot)
	e.restart = &pendingRestart{
		kind:       kind,
		team:       team,
		spot:       spot,
		resumeTick: e.tick + restartDelayTicks,
	}
}

// takeRestart puts the ball in play: the nearest eligible restart-team
// player takes it and play opens.
func (e *MatchEngine) takeRestart() {
	r := e.restart
	e.restart = nil

	taker := e.restartTaker(r)
	if taker == NoPlayer {
		// Nobody can take it (all sent off): dead match, roll play on.
		e.phase = PhaseOpenPlay
		return
	}
	// The taker steps to the spot; everyone else has been repositioning
	// during the dead time.
	e.players[taker].Pos = r.spot
	e.ball.giveTo(taker, e.players[taker].Pos)
	e.nextDecision = e.tick + 2
	e.phase = PhaseOpenPlay
}

// restartTaker picks who takes a dead ball: the keeper for goal kicks,
// otherwise the nearest active teammate.
func (e *MatchEngine) restartTaker(r *pendingRestart) int8 {
	if r.kind == EventGoalKick {
		for i := range e.players {
			p := &e.players[i]
			if p.Team() == r.team && p.IsKeeper() && p.Active() {
				return p.Slot
			}
		}
	}
	best := NoPlayer
	bestDist := pitch.Fixed(1 << 40)
	for i := range e.players {
		p := &e.players[i]
		if p.Team() != r.team || !p.Active() || p.IsKeeper() {
			continue
		}
		if d := p.Pos.DistTo(r.spot); d < bestDist {
			bestDist = d
			best = p.Slot
		}
	}
	return best
}

// decide runs the carrier's decision layer on its cooldown.
func (e *MatchEngine) decide() {
	owner := e.ball.Owner
	if owner == NoPlayer || e.tick < e.nextDecision {
		return
	}
	p := &e.players[owner]
	if e.queue.hasAction(p.Slot) {
		return
	}
	e.nextDecision = e.tick + decisionCooldown

	// Keepers under pressure do not play out from the back here.
	if p.IsKeeper() && e.pressureOn(p) > 0.4 {
		e.scheduleClearance(p, 1.0)
		return
	}
	e.decideForOwner(p)
}

// updateKeepers advances both sweeping state machines.
func (e *MatchEngine) updateKeepers() {
	for t := Team(0); t <= TeamAway; t++ {
		k := e.keeperOf(t)
		if k == nil {
			continue
		}
		d := e.dir[t]
		in := keeperInputs{
			ballDist:     k.Pos.DistTo(e.ball.Pos),
			ballLoose:    e.ball.Loose(),
			ballInDanger: e.ball.Loose() && dangerZone(d).Contains(e.ball.Pos),
			shotInbound:  shotToward(d, &e.ball),
			nearHome:     k.Pos.DistTo(keeperAnchor(d, e.ball.Pos)) <= keeperHomeRadius,
		}
		if in.ballLoose && in.ballInDanger {
			if opp := e.nearestOpponentTo(t, e.ball.Pos); opp != nil {
				in.winsRace = keeperWinsRace(k, opp, e.ball.Pos)
			} else {
				in.winsRace = true
			}
		}
		e.keeper[t] = nextKeeperState(e.keeper[t], in)
	}
}

func (e *MatchEngine) keeperOf(t Team) *Player {
	for i := range e.players {
		p := &e.players[i]
		if p.Team() == t && p.IsKeeper() && p.Active() {
			return p
		}
	}
	return nil
}

func (e *MatchEngine) nearestOpponentTo(t Team, at pitch.Coord10) *Player {
	var best *Player
	bestDist := pitch.Fixed(1 << 40)
	for i := range e.players {
		p := &e.players[i]
		if p.Team() == t || !p.Active() {
			continue
		}
		if d := p.Pos.DistTo(at); d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// movePlayers computes all 22 targets and advances movement.
func (e *MatchEngine) movePlayers() {
	e.grid.Rebuild(e.players[:])
	tc := e.buildTargetContext()

	for i := range e.players {
		p := &e.players[i]
		if !p.Active() {
			continue
		}
		var desired pitch.Vec
		switch {
		case p.Slot == e.ball.Owner:
			desired = Seek(p.Pos, e.dribbleTarget(p), p.SprintSpeed().Mul(pitch.FromFloat(0.8)))
		case tc.chaser[p.Team()] == p.Slot && e.ball.Loose():
			desired = Pursue(p.Pos, e.ball.Pos, e.ball.Vel, p.SprintSpeed())
		default:
			desired = Arrive(p.Pos, tc.targetFor(p), p.SprintSpeed())
		}
		MoveStep(p, desired)
	}
}

// dribbleTarget is where the carrier runs: forward, drifting toward the
// goal line of attack, shaded off the nearest defender.
func (e *MatchEngine) dribbleTarget(p *Player) pitch.Coord10 {
	d := e.dir[p.Team()]
	target := d.Advance(p.Pos, pitch.FromMeters(6))
	// Drift toward the goal center lane.
	goalY := d.OppGoalCenter().Y
	target.Y += (goalY - target.Y).Mul(pitch.FromFloat(0.15))
	// Shade away from the nearest opponent.
	if opp := e.nearestOpponentTo(p.Team(), p.Pos); opp != nil {
		away := opp.Pos.To(target)
		if away.Len() < pitch.FromMeters(4) && !away.IsZero() {
			target = target.Add(away.WithLen(pitch.FromMeters(2)))
		}
	}
	return target.ClampTo(pitch.SafeRect)
}

// buildTargetContext assembles the shared per-tick view for target calc.
func (e *MatchEngine) buildTargetContext() *targetContext {
	ballRef := e.ball.Pos
	if e.restart != nil {
		// During dead time everyone shapes around the restart spot.
		ballRef = e.restart.spot
	}
	tc := &targetContext{
		players:     e.players[:],
		grid:        e.grid,
		ball:        ballRef,
		ballVel:     e.ball.Vel,
		ballOwner:   e.ball.Owner,
		dir:         e.dir,
		tactics:     e.tactics,
		keeper:      e.keeper,
		elapsedFrac: float64(e.tick) / float64(e.halfTicks*2),
	}
	diff := e.score[TeamHome] - e.score[TeamAway]
	tc.goalDiff[TeamHome] = diff
	tc.goalDiff[TeamAway] = -diff
	for t := Team(0); t <= TeamAway; t++ {
		tc.chaser[t] = pickChaser(e.players[:], t, e.dir[t], ballRef)
		tc.defLine[t] = computeDefLine(e.players[:], t, e.dir[t], &e.tactics[t])
	}
	return tc
}

// updateBall pins an owned ball to its carrier or integrates a loose one,
// then routes any field exit.
func (e *MatchEngine) updateBall() {
	// Everything the ball does this tick sweeps from here.
	e.ball.sweptFrom = e.ball.Pos
	if owner := e.ball.Owner; owner != NoPlayer {
		p := &e.players[owner]
		lead := p.Vel.WithLen(pitch.FromFloat(dribbleLeadM))
		e.ball.Pos = p.Pos.Add(lead).ClampTo(pitch.MarginRect)
		e.ball.Pos.H = 0
		e.ball.Vel = p.Vel
		if !pitch.FieldRect.ContainsVec(e.ball.Pos.Vec2()) {
			// Carried it out.
			e.handleBallOut(ballExit{crossed: true, at: e.ball.Pos, vel: p.Vel})
		}
		return
	}
	if e.phase != PhaseOpenPlay {
		return
	}
	exit := stepBallTick(&e.ball)
	if exit.crossed {
		e.handleBallOut(exit)
	}
}

// resolveBallOwnership runs the contested-ball resolver and classifies the
// outcome: pass completion, first touch, interception, or tackle.
func (e *MatchEngine) resolveBallOwnership() {
	incoming := e.ball.Vel
	out := resolveOwnership(&e.ball, e.players[:])
	if !out.Changed {
		return
	}
	e.telemetry.OwnershipChanged(out.From, out.To)
	e.queue.cancelFor(out.From)
	e.nextDecision = e.tick + 3

	winner := &e.players[out.To]

	// A pass finding its intended receiver goes through the first touch.
	if pp := e.pass; pp != nil {
		e.pass = nil
		sameTeam := SlotTeam(out.To) == pp.team
		if sameTeam && out.To == pp.to {
			e.completePass(pp, e.firstTouch(winner, incoming))
			return
		}
		e.completePass(pp, false)
		if !sameTeam {
			e.record.Add(e.tick, e.minute(), EventInterception, winner.Team(), out.To, nil)
			e.telemetry.EventRecorded(EventInterception)
			e.stats.team(winner.Team()).Interceptions++
		}
		e.shot = nil
		return
	}

	// A defender swallowing a shot is a block; the shot just dies.
	if e.shot != nil {
		e.shot = nil
		return
	}

	// Losing a carried ball to an opponent is a tackle.
	if out.From != NoPlayer && SlotTeam(out.From) != winner.Team() {
		e.resolveTackle(out.From, winner)
	}
}

// firstTouch samples control quality on receipt. Perfect and good touches
// keep the ball; a heavy or loose touch deflects part of the incoming pace
// past the receiver and reports failure. Whoever is closest picks up the
// pieces through the normal contest.
func (e *MatchEngine) firstTouch(p *Player, incoming pitch.Vec) bool {
	sample := SampleExecutionError(e.rng, ErrorContext{
		Kind:            ActionFirstTouch,
		Skill:           p.Attr.Technique,
		Composure:       p.Attr.Composure,
		Decisions:       p.Attr.Decisions,
		Concentration:   p.Attr.Concentration,
		Pressure:        e.pressureOn(p),
		Fatigue:         p.Fatigue(),
		DecisionQuality: 1,
	})
	quality := ClassifyTouch(sample.ControlDistanceM())
	if quality == TouchPerfect || quality == TouchGood {
		return true
	}

	keep := 0.45
	if quality == TouchLoose {
		keep = 0.7
	}
	pushM := clampFloat(incoming.Len().Meters()*keep, 2.0, 11.0)
	dir := incoming
	if dir.IsZero() {
		dir = e.dir[p.Team()].Forward()
	}
	deflected := dir.Rotate(sample.DirAngleDeg * 3).WithLen(pitch.FromFloat(pushM))
	e.ball.Launch(deflected, 0, pitch.Vec{})
	return false
}

func (e *MatchEngine) completePass(pp *pendingPass, completed bool) {
	e.record.Add(e.tick, e.minute(), EventPass, pp.team, pp.from, PassPayload{
		From:      pp.from,
		To:        pp.to,
		Completed: completed,
	})
	e.telemetry.EventRecorded(EventPass)
	if completed {
		e.stats.team(pp.team).PassesCompleted++
	}
}

// resolveTackle records the challenge and rolls fouls and cards.
func (e *MatchEngine) resolveTackle(victim int8, tackler *Player) {
	e.record.Add(e.tick, e.minute(), EventTackle, tackler.Team(), tackler.Slot, nil)
	e.telemetry.EventRecorded(EventTackle)
	e.stats.team(tackler.Team()).TacklesWon++

	// Aggressive, clumsy challenges give it back.
	foulRoll := e.rng.Intn(100)
	threshold := foulChancePct + int(tackler.Attr.Aggression)/10 - int(tackler.Attr.Tackling)/12
	if foulRoll >= threshold {
		return
	}
	e.record.Add(e.tick, e.minute(), EventFoul, tackler.Team(), tackler.Slot, nil)
	e.telemetry.EventRecorded(EventFoul)
	e.stats.team(tackler.Team()).Fouls++
	e.bookCard(tackler)

	// Advantage to the fouled side: ball straight back on the spot.
	if e.phase == PhaseOpenPlay && e.players[victim].Active() {
		spot := e.ball.Pos.ClampTo(pitch.SafeRect)
		e.ball.giveTo(victim, spot)
		e.players[victim].Pos = spot
		e.nextDecision = e.tick + decisionCooldown
	}
}

// bookCard escalates discipline: some fouls draw yellow, a second yellow or
// a straight red ends the player's match.
func (e *MatchEngine) bookCard(p *Player) {
	roll := e.rng.Intn(100)
	if roll < redChancePct {
		e.sendOff(p, "red")
		return
	}
	if roll < yellowChancePct {
		if p.Booked {
			e.sendOff(p, "red")
			return
		}
		p.Booked = true
		e.record.Add(e.tick, e.minute(), EventCard, p.Team(), p.Slot, CardPayload{Color: "yellow"})
		e.telemetry.EventRecorded(EventCard)
		e.stats.team(p.Team()).YellowCards++
	}
}

func (e *MatchEngine) sendOff(p *Player, color string) {
	p.SentOff = true
	e.record.Add(e.tick, e.minute(), EventCard, p.Team(), p.Slot, CardPayload{Color: color})
	e.telemetry.EventRecorded(EventCard)
	e.stats.team(p.Team()).RedCards++
	e.queue.cancelFor(p.Slot)
	if e.ball.Owner == p.Slot {
		e.ball.Launch(pitch.Vec{}, 0, pitch.Vec{})
	}
}

// keeperSaveCheck gives a set keeper his chance at a live shot.
func (e *MatchEngine) keeperSaveCheck() {
	ps := e.shot
	if ps == nil {
		return
	}
	defending := ps.team.Other()
	k := e.keeperOf(defending)
	if k == nil || e.keeper[defending] != KeeperPreparingSave {
		return
	}
	if k.Pos.DistTo(e.ball.Pos) > pitch.FromFloat(saveRadiusM) || e.ball.Pos.H > catchHeight {
		return
	}

	speedM := e.ball.Speed().Meters()
	pSave := clampFloat(
		0.38+float64(k.Attr.Reflexes)/160+float64(k.Attr.Handling)/400-speedM/55*0.35,
		0.05, 0.92)
	if e.rng.Float64() >= pSave {
		return
	}

	e.shot = nil
	e.record.Add(e.tick, e.minute(), EventSave, defending, k.Slot, nil)
	e.telemetry.EventRecorded(EventSave)
	e.stats.team(defending).Saves++

	// Strong hands hold it; otherwise it is parried back out.
	holdP := clampFloat(float64(k.Attr.Handling)/130-speedM/80, 0.1, 0.85)
	if e.rng.Float64() < holdP {
		e.ball.giveTo(k.Slot, k.Pos)
		e.nextDecision = e.tick + decisionCooldown
		return
	}
	parry := e.dir[defending].Forward().Rotate((e.rng.Float64()*2 - 1) * 50)
	e.ball.Launch(parry.WithLen(pitch.FromMeters(8)), pitch.FromFloat(2.0), pitch.Vec{})
}

// handleBallOut converts a field exit into a goal or a restart.
func (e *MatchEngine) handleBallOut(exit ballExit) {
	at := exit.at
	leftLine := at.X <= pitch.FieldRect.MinX
	rightLine := at.X >= pitch.FieldRect.MaxX

	if leftLine || rightLine {
		if pitch.InGoalMouth(at, leftLine) {
			e.goalScored(leftLine)
			return
		}
		e.goalLineOut(leftLine, at)
		return
	}
	e.throwInOut(at)
}

// teamDefendingLine maps a crossed goal line to the team whose goal sits on
// it for the current half.
func (e *MatchEngine) teamDefendingLine(leftLine bool) Team {
	homeDefendsLeft := e.dir[TeamHome].OwnGoalCenter().X == 0
	if homeDefendsLeft == leftLine {
		return TeamHome
	}
	return TeamAway
}

// goalScored credits the team attacking the crossed goal line. The credit
// follows the goal, not the kicker, so own goals count for the other side.
func (e *MatchEngine) goalScored(leftLine bool) {
	scoring := e.teamDefendingLine(leftLine).Other()
	e.score[scoring]++
	e.stats.team(scoring).Goals++

	scorer := e.ball.LastTouch()
	assist := NoPlayer
	if e.pass != nil && e.pass.team == scoring && e.pass.from != scorer {
		assist = e.pass.from
	}

	e.record.Add(e.tick, e.minute(), EventGoal, scoring, scorer, GoalPayload{
		Scorer: scorer,
		Assist: assist,
		Home:   e.score[TeamHome],
		Away:   e.score[TeamAway],
	})
	e.telemetry.EventRecorded(EventGoal)

	conceding := scoring.Other()
	e.scheduleRestart(EventKickoff, conceding, pitch.CenterSpot)
	e.record.Add(e.tick, e.minute(), EventKickoff, conceding, NoPlayer, nil)
	e.telemetry.EventRecorded(EventKickoff)
	e.lineUp()
}

// goalLineOut is a corner or a goal kick depending on who touched it last.
func (e *MatchEngine) goalLineOut(leftLine bool, at pitch.Coord10) {
	defendsLine := e.teamDefendingLine(leftLine)
	lastTouch := e.ball.LastTouch()
	attackersTouched := lastTouch != NoPlayer && SlotTeam(lastTouch) != defendsLine

	if attackersTouched {
		// Goal kick for the defenders.
		spot := e.dir[defendsLine].Advance(e.dir[defendsLine].OwnGoalCenter(), pitch.FromMeters(pitch.GoalAreaDepthM))
		e.scheduleRestart(EventGoalKick, defendsLine, spot)
		e.record.Add(e.tick, e.minute(), EventGoalKick, defendsLine, NoPlayer, restartPayload(spot))
		e.telemetry.EventRecorded(EventGoalKick)
		e.stats.team(defendsLine).GoalKicks++
		return
	}
	// Corner for the attackers, taken from the nearer corner arc.
	attacking := defendsLine.Other()
	cornerX := pitch.FieldRect.MaxX
	if leftLine {
		cornerX = pitch.FieldRect.MinX
	}
	cornerY := pitch.FieldRect.MaxY
	if at.Y < pitch.CenterSpot.Y {
		cornerY = pitch.FieldRect.MinY
	}
	spot := pitch.C(cornerX, cornerY).ClampTo(pitch.SafeRect)
	e.scheduleRestart(EventCorner, attacking, spot)
	e.record.Add(e.tick, e.minute(), EventCorner, attacking, NoPlayer, restartPayload(spot))
	e.telemetry.EventRecorded(EventCorner)
	e.stats.team(attacking).Corners++
}

// throwInOut restarts from the touchline against the last touch.
func (e *MatchEngine) throwInOut(at pitch.Coord10) {
	throwTeam := TeamHome
	if last := e.ball.LastTouch(); last != NoPlayer {
		throwTeam = SlotTeam(last).Other()
	}
	spot := at.ClampTo(pitch.SafeRect)
	e.scheduleRestart(EventThrowIn, throwTeam, spot)
	e.record.Add(e.tick, e.minute(), EventThrowIn, throwTeam, NoPlayer, restartPayload(spot))
	e.telemetry.EventRecorded(EventThrowIn)
	e.stats.team(throwTeam).ThrowIns++
}

func restartPayload(spot pitch.Coord10) RestartPayload {
	return RestartPayload{XM: spot.X.Meters(), YM: spot.Y.Meters()}
}

// executeAction turns a completed windup into a real kick with sampled
// execution error.
func (e *MatchEngine) executeAction(a *ScheduledAction) {
	// The actor must still have the ball; a between-times tackle or dead
	// ball voids the attempt.
	if e.ball.Owner != a.Actor || e.phase != PhaseOpenPlay {
		return
	}
	p := &e.players[a.Actor]
	intent := p.Pos.To(a.TargetPos)
	if intent.IsZero() {
		intent = e.dir[p.Team()].Forward()
	}
	intentVel := intent.WithLen(a.Power)

	sample := SampleExecutionError(e.rng, ErrorContext{
		Kind:            a.Kind,
		Skill:           e.skillFor(p, a.Kind),
		Composure:       p.Attr.Composure,
		Decisions:       p.Attr.Decisions,
		Concentration:   p.Attr.Concentration,
		Pressure:        e.pressureOn(p),
		Fatigue:         p.Fatigue(),
		WeakFoot:        a.WeakFoot,
		DecisionQuality: a.DecisionQuality,
	})
	vel, vz := sample.ApplyToKick(a.Kind, intentVel, a.LaunchVZ)

	var spin pitch.Vec
	if a.Curve != 0 {
		// Spin bends the ball around the lane: perpendicular to intent,
		// curling in toward the goal side.
		perp := vel.Normalize().Perp()
		side := pitch.One
		if e.dir[p.Team()].OppGoalCenter().Y < p.Pos.Y {
			side = -pitch.One
		}
		spin = perp.Scale(a.Curve.Mul(side))
		e.ball.CurveFactor = a.Curve
	}

	e.ball.Launch(vel, vz, spin)
	e.nextDecision = e.tick + decisionCooldown
	e.telemetry.BallLaunched(a.Kind, vel.Len().Meters())

	switch a.Kind {
	case ActionPass:
		e.pass = &pendingPass{from: a.Actor, to: a.TargetSlot, team: p.Team()}
		e.stats.team(p.Team()).PassesAttempted++
	case ActionCross:
		e.pass = &pendingPass{from: a.Actor, to: NoPlayer, team: p.Team()}
		e.stats.team(p.Team()).Crosses++
	case ActionShot:
		onTarget := projectShotOnTarget(&e.ball, e.dir[p.Team()])
		e.shot = &pendingShot{shooter: a.Actor, team: p.Team(), onTarget: onTarget}
		st := e.stats.team(p.Team())
		st.Shots++
		if onTarget {
			st.ShotsOnTarget++
		}
		e.record.Add(e.tick, e.minute(), EventShot, p.Team(), a.Actor, ShotPayload{
			OnTarget: onTarget,
			FromXM:   p.Pos.X.Meters(),
			FromYM:   p.Pos.Y.Meters(),
		})
		e.telemetry.EventRecorded(EventShot)
	}
}

// skillFor maps an action kind to its governing attribute.
func (e *MatchEngine) skillFor(p *Player, kind ActionKind) uint8 {
	switch kind {
	case ActionShot:
		return p.Attr.Shooting
	case ActionCross:
		return p.Attr.Crossing
	case ActionPass:
		return p.Attr.Passing
	case ActionSave:
		return p.Attr.Reflexes
	default:
		return p.Attr.Technique
	}
}

// projectShotOnTarget runs the realized trajectory to the goal line and
// checks it against the mouth. Pure projection, no state change.
func projectShotOnTarget(b *Ball, d DirectionContext) bool {
	goal := d.OppGoalCenter()
	dx := (goal.X - b.Pos.X).Meters()
	vx := b.Vel.X.Meters()
	if vx == 0 || (dx > 0) != (vx > 0) {
		return false
	}
	t := dx / vx
	yAtLine := b.Pos.Y.Meters() + b.Vel.Y.Meters()*t
	hAtLine := b.Pos.H.Meters() + b.VZ.Meters()*t - 9.81*t*t/2
	if hAtLine < 0 {
		// It bounces on the way; still on target if the line is reachable.
		hAtLine = 0
	}
	missY := yAtLine - goal.Y.Meters()
	if missY < 0 {
		missY = -missY
	}
	return missY <= pitch.GoalWidthM/2 && hAtLine <= pitch.GoalHeightM
}
