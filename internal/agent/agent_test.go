package agent

import (
	"testing"

	"pedsim/internal/geometry"
)

func TestInPremovement(t *testing.T) {
	a := &Agent{PremovementEnd: 2.0}
	if !a.InPremovement(1.0) {
		t.Fatal("expected agent to still be in premovement at t=1.0")
	}
	if a.InPremovement(2.0) {
		t.Fatal("expected agent to be free to move at t=2.0")
	}
}

func TestValidateRejectsNonUnitOrientationWhileMoving(t *testing.T) {
	a := &Agent{Speed: 1.0, Orientation: geometry.Pt(2, 0)}
	if err := a.Validate(0.2); err == nil {
		t.Fatal("expected validation error for non-unit orientation while moving")
	}
}

func TestValidateAllowsAnyOrientationWhileStill(t *testing.T) {
	a := &Agent{Speed: 0, Orientation: geometry.Point{}}
	if err := a.Validate(0.2); err != nil {
		t.Fatalf("expected still agent to validate, got %v", err)
	}
}

func TestValidateRejectsNonPositiveBodyRadius(t *testing.T) {
	a := &Agent{}
	if err := a.Validate(0); err == nil {
		t.Fatal("expected validation error for zero body radius")
	}
}

func TestProfileCollisionDistance(t *testing.T) {
	p := Profile{BMax: 0.25}
	if got := p.CollisionDistance(); got != 0.5 {
		t.Fatalf("expected collision distance 0.5, got %v", got)
	}
}
