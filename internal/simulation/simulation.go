// Package simulation wires geometry, routing, the operational model, the
// neighborhood index, stages/journeys and the event processor into the
// per-tick loop described by §4.I, and exposes the Setup/Runtime API of §6.
package simulation

import (
	"sync"
	"time"

	"pedsim/internal/agent"
	"pedsim/internal/clock"
	"pedsim/internal/events"
	"pedsim/internal/geometry"
	"pedsim/internal/model"
	"pedsim/internal/neighbor"
	"pedsim/internal/routing"
	"pedsim/internal/simerr"
	"pedsim/internal/stage"
	"pedsim/internal/telemetry"
	"pedsim/internal/wire"
)

// wallWarnWindow bounds how often the "pedestrian too close to wall"
// warning (§7) may fire for the same agent.
const wallWarnWindow = 5 * time.Second

// agentPoint adapts *agent.Agent to neighbor.Point.
type agentPoint struct{ a *agent.Agent }

func (p agentPoint) ID() int              { return int(p.a.ID) }
func (p agentPoint) Pos() geometry.Point  { return p.a.Pos }

// agentMeta is bookkeeping kept alongside an agent for Summary(), not part
// of the agent's own observable state.
type agentMeta struct {
	insertedAt float64
	room       int
}

// removal is one agent's lifecycle close-out, folded into Summary().
type removal struct {
	room       int
	egressTime float64
}

// Config bundles the Setup-API construction parameters (§6): the
// operational model and profile set, the pre-built geometry and router, the
// neighbor grid's cell size, and the fixed tick step.
type Config struct {
	Building      *geometry.Building
	Router        *routing.Engine
	Model         *model.Model
	Profiles      []agent.Profile
	Tracks        map[string]*geometry.Track
	CellSize      float64
	DistEffMaxPed float64
	DT            float64

	// MinPremovementTime gates the whole loop's decision passes (§4.I
	// step 3), distinct from each agent's own PremovementEnd which only
	// gates its individual position update (§4.D step 8).
	MinPremovementTime float64

	Log     telemetry.Logger
	Metrics *telemetry.Collector
}

// Simulation is the tick orchestrator: it owns agent lifecycle and wires
// the geometry/router/model/events/stage packages together every tick.
// All mutation happens under mu, matching the teacher's mutex-guarded
// simulation state.
type Simulation struct {
	mu sync.Mutex

	building *geometry.Building
	router   *routing.Engine
	opModel  *model.Model
	clk      *clock.Clock
	grid     *neighbor.Grid
	events   *events.Processor

	minPremovementTime float64
	distEffMaxPed      float64

	profiles map[int]agent.Profile

	stages        map[stage.ID]stage.Stage
	nextStageID   stage.ID
	journeys      map[stage.JourneyID]*stage.Journey
	nextJourneyID stage.JourneyID

	agents      map[int]*agent.Agent
	meta        map[int]agentMeta
	nextAgentID int

	removedThisTick []int
	removals        []removal
	doorFlowHistory []wire.DoorFlowRecord

	records chan Record
	log     telemetry.Logger
	metrics *telemetry.Collector
	warnRate *telemetry.RateLimiter
}

// New builds a Simulation from a Setup-API Config. The geometry and router
// must already be bound to each other (the router was constructed with
// routing.New(building, strategy)).
func New(cfg Config) (*Simulation, error) {
	if cfg.Building == nil {
		return nil, simerr.NewConfigError("simulation: building is required")
	}
	if cfg.Router == nil {
		return nil, simerr.NewConfigError("simulation: router is required")
	}
	if cfg.Model == nil {
		return nil, simerr.NewConfigError("simulation: operational model is required")
	}
	if cfg.DT <= 0 {
		return nil, simerr.NewConfigError("simulation: dT must be positive, got %v", cfg.DT)
	}
	if err := neighbor.CheckCellSize(cfg.CellSize, cfg.DistEffMaxPed); err != nil {
		return nil, simerr.Wrap(simerr.ConfigError, err, "simulation: neighbor grid misconfigured")
	}
	grid, err := neighbor.NewGrid(cfg.CellSize, geometry.Point{})
	if err != nil {
		return nil, simerr.Wrap(simerr.ConfigError, err, "simulation: neighbor grid misconfigured")
	}

	profiles := make(map[int]agent.Profile, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		if p.BMax <= 0 || p.V0 <= 0 || p.T <= 0 {
			return nil, simerr.NewConfigError("simulation: profile %d has a non-positive parameter", p.ID)
		}
		profiles[p.ID] = p
	}

	log := cfg.Log
	if log == nil {
		log = telemetry.Noop()
	}

	return &Simulation{
		building:           cfg.Building,
		router:             cfg.Router,
		opModel:            cfg.Model,
		clk:                clock.New(cfg.DT),
		grid:               grid,
		events:             events.New(cfg.Tracks),
		minPremovementTime:  cfg.MinPremovementTime,
		distEffMaxPed:      cfg.DistEffMaxPed,
		profiles:           profiles,
		stages:             make(map[stage.ID]stage.Stage),
		journeys:           make(map[stage.JourneyID]*stage.Journey),
		agents:             make(map[int]*agent.Agent),
		meta:               make(map[int]agentMeta),
		records:            make(chan Record, 16),
		log:                log,
		metrics:            cfg.Metrics,
		warnRate:           telemetry.NewRateLimiter(wallWarnWindow),
	}, nil
}

// StageDesc is the closed sum of stage descriptions AddStage accepts (§6),
// one concrete type per stage kind in §4.F.
type StageDesc interface{ isStageDesc() }

// WaypointDesc describes a Waypoint stage.
type WaypointDesc struct {
	Position geometry.Point
	Distance float64
}

// ExitDesc describes an Exit stage.
type ExitDesc struct {
	Polygon geometry.Polygon
}

// WaitingSetDesc describes a WaitingSet stage.
type WaitingSetDesc struct {
	Point geometry.Point
	Slots int
}

// QueueDesc describes a Queue stage.
type QueueDesc struct {
	Point geometry.Point
	Slots int
}

func (WaypointDesc) isStageDesc()   {}
func (ExitDesc) isStageDesc()       {}
func (WaitingSetDesc) isStageDesc() {}
func (QueueDesc) isStageDesc()      {}

// AddStage registers a new stage and returns its id.
func (s *Simulation) AddStage(desc StageDesc) (stage.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextStageID
	s.nextStageID++

	switch d := desc.(type) {
	case WaypointDesc:
		if d.Distance <= 0 {
			return 0, simerr.NewConfigError("waypoint stage: distance must be positive")
		}
		s.stages[id] = &stage.Waypoint{ID: id, Position: d.Position, Distance: d.Distance}
	case ExitDesc:
		if len(d.Polygon.Vertices) < 3 {
			return 0, simerr.NewConfigError("exit stage: polygon needs at least 3 vertices")
		}
		s.stages[id] = &stage.Exit{ID: id, Polygon: d.Polygon, RemovedAgents: &s.removedThisTick}
	case WaitingSetDesc:
		if d.Slots <= 0 {
			return 0, simerr.NewConfigError("waiting-set stage: slots must be positive")
		}
		s.stages[id] = stage.NewWaitingSet(id, d.Point, d.Slots)
	case QueueDesc:
		if d.Slots <= 0 {
			return 0, simerr.NewConfigError("queue stage: slots must be positive")
		}
		s.stages[id] = stage.NewQueue(id, d.Point, d.Slots)
	default:
		return 0, simerr.NewConfigError("unknown stage description %T", desc)
	}
	return id, nil
}

// AddJourney builds a Journey from every stage id referenced in nodes; each
// referenced stage must already exist (added via AddStage).
func (s *Simulation) AddJourney(nodes map[stage.ID]stage.TransitionRule) (stage.JourneyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subset := make(map[stage.ID]stage.Stage, len(nodes))
	for id := range nodes {
		st, ok := s.stages[id]
		if !ok {
			return 0, simerr.NewConfigError("journey references unknown stage %d", id)
		}
		subset[id] = st
	}

	id := s.nextJourneyID
	s.nextJourneyID++
	j, err := stage.NewJourney(id, subset, nodes)
	if err != nil {
		return 0, err
	}
	s.journeys[id] = j
	return id, nil
}
