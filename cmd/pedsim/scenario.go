package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pedsim/internal/agent"
	"pedsim/internal/geometry"
	"pedsim/internal/model"
	"pedsim/internal/routing"
	"pedsim/internal/simulation"
	"pedsim/internal/stage"
)

// scenarioFile is the YAML shape a scenario is authored in: rooms/
// subrooms/transitions describing the building, one operational model
// config, a profile set, stage/journey definitions, and the initial
// agent placement. This is the Setup API of §6 made concrete as a file
// format, the way the teacher's own demo config is loaded from disk.
type scenarioFile struct {
	Model struct {
		APed float64 `yaml:"a_ped"`
		DPed float64 `yaml:"d_ped"`
		AWall float64 `yaml:"a_wall"`
		DWall float64 `yaml:"d_wall"`
	} `yaml:"model"`

	Simulation struct {
		DT                 float64 `yaml:"dt"`
		CellSize           float64 `yaml:"cell_size"`
		DistEffMaxPed      float64 `yaml:"dist_eff_max_ped"`
		MinPremovementTime float64 `yaml:"min_premovement_time"`
		Strategy           string  `yaml:"strategy"`
	} `yaml:"simulation"`

	Profiles []struct {
		ID   int     `yaml:"id"`
		V0   float64 `yaml:"v0"`
		T    float64 `yaml:"t"`
		BMax float64 `yaml:"b_max"`
	} `yaml:"profiles"`

	Rooms []struct {
		ID       int `yaml:"id"`
		SubRooms []struct {
			ID       int         `yaml:"id"`
			Boundary [][]float64 `yaml:"boundary"`
		} `yaml:"subrooms"`
	} `yaml:"rooms"`

	Transitions []struct {
		Line     [][]float64 `yaml:"line"`
		Room1    int         `yaml:"room1"`
		SubRoom1 int         `yaml:"subroom1"`
		Room2    int         `yaml:"room2"`
		SubRoom2 int         `yaml:"subroom2"`
	} `yaml:"transitions"`

	Stages []struct {
		Kind     string      `yaml:"kind"` // waypoint | exit | waiting_set | queue
		Point    []float64   `yaml:"point"`
		Distance float64     `yaml:"distance"`
		Polygon  [][]float64 `yaml:"polygon"`
		Slots    int         `yaml:"slots"`
	} `yaml:"stages"`

	// Journey is a single linear chain through the stages listed above,
	// by index, ending in an Exit. Enough to drive a demo scenario
	// without a general rule-graph authoring format.
	Journey []int `yaml:"journey"`

	Agents []struct {
		Pos       []float64 `yaml:"pos"`
		ProfileID int       `yaml:"profile_id"`
	} `yaml:"agents"`
}

// loadScenario reads a scenario YAML file and builds a ready-to-run
// Simulation from it.
func loadScenario(path string, deps simulation.Config) (*simulation.Simulation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc scenarioFile
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	building := geometry.NewBuilding()
	for _, r := range sc.Rooms {
		room := &geometry.Room{ID: r.ID, SubRooms: make(map[int]*geometry.SubRoom)}
		for _, srRaw := range r.SubRooms {
			poly, err := polygonFromYAML(srRaw.Boundary)
			if err != nil {
				return nil, fmt.Errorf("room %d subroom %d: %w", r.ID, srRaw.ID, err)
			}
			room.SubRooms[srRaw.ID] = &geometry.SubRoom{ID: srRaw.ID, RoomID: r.ID, Boundary: poly}
		}
		building.AddRoom(room)
	}

	for _, t := range sc.Transitions {
		if len(t.Line) != 2 {
			return nil, fmt.Errorf("transition line must have exactly 2 points")
		}
		line := geometry.NewSegment(pointFromYAML(t.Line[0]), pointFromYAML(t.Line[1]))
		building.AddTransition(&geometry.Transition{
			Line: line, Room1: t.Room1, SubRoom1: t.SubRoom1, Room2: t.Room2, SubRoom2: t.SubRoom2,
			State: geometry.StateOpen,
		})
	}

	strategy := routing.ShortestPath
	if sc.Simulation.Strategy == "floor_field" {
		strategy = routing.FloorField
	}
	router := routing.New(building, strategy)

	opModel, err := model.New(sc.Model.APed, sc.Model.DPed, sc.Model.AWall, sc.Model.DWall)
	if err != nil {
		return nil, fmt.Errorf("operational model: %w", err)
	}

	profiles := make([]agent.Profile, 0, len(sc.Profiles))
	for _, p := range sc.Profiles {
		profiles = append(profiles, agent.Profile{ID: p.ID, V0: p.V0, T: p.T, BMax: p.BMax})
	}

	deps.Building = building
	deps.Router = router
	deps.Model = opModel
	deps.Profiles = profiles
	deps.DT = sc.Simulation.DT
	deps.CellSize = sc.Simulation.CellSize
	deps.DistEffMaxPed = sc.Simulation.DistEffMaxPed
	deps.MinPremovementTime = sc.Simulation.MinPremovementTime

	sim, err := simulation.New(deps)
	if err != nil {
		return nil, fmt.Errorf("building simulation: %w", err)
	}

	ids := make([]stage.ID, len(sc.Stages))
	for i, st := range sc.Stages {
		var desc simulation.StageDesc
		switch st.Kind {
		case "waypoint":
			desc = simulation.WaypointDesc{Position: pointFromYAML(st.Point), Distance: st.Distance}
		case "exit":
			poly, err := polygonFromYAML(st.Polygon)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			desc = simulation.ExitDesc{Polygon: poly}
		case "waiting_set":
			desc = simulation.WaitingSetDesc{Point: pointFromYAML(st.Point), Slots: st.Slots}
		case "queue":
			desc = simulation.QueueDesc{Point: pointFromYAML(st.Point), Slots: st.Slots}
		default:
			return nil, fmt.Errorf("stage %d: unknown kind %q", i, st.Kind)
		}
		id, err := sim.AddStage(desc)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		ids[i] = id
	}

	if len(sc.Agents) > 0 && len(sc.Journey) == 0 {
		return nil, fmt.Errorf("scenario has agents but no journey")
	}

	var journeyID stage.JourneyID
	var firstStage stage.ID
	if len(sc.Journey) > 0 {
		// A single linear chain through the stages named by Journey, by
		// index into sc.Stages: each one leads to the next via a fixed
		// transition, and the last one is terminal (typically an Exit).
		nodes := make(map[stage.ID]stage.TransitionRule, len(sc.Journey))
		for i, slot := range sc.Journey {
			id := ids[slot]
			if i == len(sc.Journey)-1 {
				nodes[id] = stage.NonTransition{Self: id}
			} else {
				nodes[id] = stage.FixedTransition{NextID: ids[sc.Journey[i+1]]}
			}
		}
		id, err := sim.AddJourney(nodes)
		if err != nil {
			return nil, fmt.Errorf("journey: %w", err)
		}
		journeyID = id
		firstStage = ids[sc.Journey[0]]
	}

	for i, ag := range sc.Agents {
		_, err := sim.AddAgent(simulation.AgentDesc{
			Pos:         pointFromYAML(ag.Pos),
			Orientation: geometry.Point{X: 1, Y: 0},
			ProfileID:   ag.ProfileID,
			JourneyID:   journeyID,
			StageID:     firstStage,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
	}

	return sim, nil
}

func polygonFromYAML(pts [][]float64) (geometry.Polygon, error) {
	if len(pts) < 3 {
		return geometry.Polygon{}, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(pts))
	}
	verts := make([]geometry.Point, len(pts))
	for i, p := range pts {
		verts[i] = pointFromYAML(p)
	}
	return geometry.NewPolygon(verts...), nil
}

func pointFromYAML(p []float64) geometry.Point {
	if len(p) != 2 {
		return geometry.Point{}
	}
	return geometry.Point{X: p[0], Y: p[1]}
}
