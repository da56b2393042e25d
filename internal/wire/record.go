// Package wire encodes the engine's persisted outputs (§6) and inbound
// control commands using the protobuf wire format, via the low-level
// protowire package rather than a protoc-generated schema — the record
// shapes are small and stable enough that hand-written field encoding is
// simpler than maintaining a .proto build step, while still speaking the
// real wire format the teacher's control stream uses.
package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// TrajectoryRecord is one agent's state at one tick, field-numbered to
// match a hypothetical Trajectory proto message.
type TrajectoryRecord struct {
	Tick        uint64
	AgentID     int32
	X           float64
	Y           float64
	Orientation float64
	Speed       float64
}

const (
	trajTick        = protowire.Number(1)
	trajAgentID     = protowire.Number(2)
	trajX           = protowire.Number(3)
	trajY           = protowire.Number(4)
	trajOrientation = protowire.Number(5)
	trajSpeed       = protowire.Number(6)
)

// MarshalBinary encodes r as a protobuf message.
func (r TrajectoryRecord) MarshalBinary() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, trajTick, protowire.VarintType)
	b = protowire.AppendVarint(b, r.Tick)
	b = protowire.AppendTag(b, trajAgentID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(r.AgentID)))
	b = appendFixed64Field(b, trajX, r.X)
	b = appendFixed64Field(b, trajY, r.Y)
	b = appendFixed64Field(b, trajOrientation, r.Orientation)
	b = appendFixed64Field(b, trajSpeed, r.Speed)
	return b, nil
}

// UnmarshalBinary decodes a TrajectoryRecord previously produced by
// MarshalBinary. Unknown fields are skipped, matching protobuf's
// forward-compatibility contract.
func (r *TrajectoryRecord) UnmarshalBinary(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, v uint64, bs []byte) error {
		switch num {
		case trajTick:
			r.Tick = v
		case trajAgentID:
			r.AgentID = int32(uint32(v))
		case trajX:
			r.X = math.Float64frombits(v)
		case trajY:
			r.Y = math.Float64frombits(v)
		case trajOrientation:
			r.Orientation = math.Float64frombits(v)
		case trajSpeed:
			r.Speed = math.Float64frombits(v)
		}
		return nil
	})
}

// DoorFlowRecord is one transition's cumulative crossing count, emitted
// on the tick an agent crosses it.
type DoorFlowRecord struct {
	Tick            uint64
	TransitionID    int32
	CumulativeCount uint64
	CrossingAgentID int32
}

const (
	doorFlowTick            = protowire.Number(1)
	doorFlowTransitionID    = protowire.Number(2)
	doorFlowCumulativeCount = protowire.Number(3)
	doorFlowCrossingAgentID = protowire.Number(4)
)

func (r DoorFlowRecord) MarshalBinary() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, doorFlowTick, protowire.VarintType)
	b = protowire.AppendVarint(b, r.Tick)
	b = protowire.AppendTag(b, doorFlowTransitionID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(r.TransitionID)))
	b = protowire.AppendTag(b, doorFlowCumulativeCount, protowire.VarintType)
	b = protowire.AppendVarint(b, r.CumulativeCount)
	b = protowire.AppendTag(b, doorFlowCrossingAgentID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(r.CrossingAgentID)))
	return b, nil
}

func (r *DoorFlowRecord) UnmarshalBinary(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, v uint64, bs []byte) error {
		switch num {
		case doorFlowTick:
			r.Tick = v
		case doorFlowTransitionID:
			r.TransitionID = int32(uint32(v))
		case doorFlowCumulativeCount:
			r.CumulativeCount = v
		case doorFlowCrossingAgentID:
			r.CrossingAgentID = int32(uint32(v))
		}
		return nil
	})
}

// ControlCommand is an inbound door/train control message received over
// the streaming hub (§4.H events, delivered externally).
type ControlCommand struct {
	Kind     string
	DoorID   int32
	TrainID  string
	TrackID  string
	Offset   float64
	Reversed bool
}

const (
	ctrlKind     = protowire.Number(1)
	ctrlDoorID   = protowire.Number(2)
	ctrlTrainID  = protowire.Number(3)
	ctrlTrackID  = protowire.Number(4)
	ctrlOffset   = protowire.Number(5)
	ctrlReversed = protowire.Number(6)
)

func (c ControlCommand) MarshalBinary() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, ctrlKind, protowire.BytesType)
	b = protowire.AppendString(b, c.Kind)
	b = protowire.AppendTag(b, ctrlDoorID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(c.DoorID)))
	b = protowire.AppendTag(b, ctrlTrainID, protowire.BytesType)
	b = protowire.AppendString(b, c.TrainID)
	b = protowire.AppendTag(b, ctrlTrackID, protowire.BytesType)
	b = protowire.AppendString(b, c.TrackID)
	b = appendFixed64Field(b, ctrlOffset, c.Offset)
	b = protowire.AppendTag(b, ctrlReversed, protowire.VarintType)
	reversed := uint64(0)
	if c.Reversed {
		reversed = 1
	}
	b = protowire.AppendVarint(b, reversed)
	return b, nil
}

func (c *ControlCommand) UnmarshalBinary(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, v uint64, bs []byte) error {
		switch num {
		case ctrlKind:
			c.Kind = string(bs)
		case ctrlDoorID:
			c.DoorID = int32(uint32(v))
		case ctrlTrainID:
			c.TrainID = string(bs)
		case ctrlTrackID:
			c.TrackID = string(bs)
		case ctrlOffset:
			c.Offset = math.Float64frombits(v)
		case ctrlReversed:
			c.Reversed = v != 0
		}
		return nil
	})
}

func appendFixed64Field(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// walkFields decodes a flat sequence of tagged fields, calling fn with
// the field number, wire type, and the decoded value (varint/fixed64
// value in v, raw bytes in bs for the Bytes wire type).
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, v uint64, bs []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("wire: invalid varint field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("wire: invalid fixed64 field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("wire: invalid bytes field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			if err := fn(num, typ, 0, v); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
