package model

import (
	"fmt"

	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// DeletionKind is the operation applied to a single record during a cascade
type DeletionKind string

const (
	DeletionKindDelete  DeletionKind = "delete"
	DeletionKindNullify DeletionKind = "nullify"
)

// DeletionOp deletes a record or clears one of its foreign keys
type DeletionOp struct {
	Kind  DeletionKind
	Table types.Table
	ID    string
	Field string // nullify only
}

func (op DeletionOp) String() string {
	if op.Kind == DeletionKindNullify {
		return fmt.Sprintf("nullify %s/%s.%s", op.Table, op.ID, op.Field)
	}
	return fmt.Sprintf("delete %s/%s", op.Table, op.ID)
}

// DeletionPhase is a group of operations. Operations of a parallel phase have
// no dependencies on each other; a sequential phase runs in slice order.
type DeletionPhase struct {
	Name       string
	Sequential bool
	Ops        []DeletionOp
}

// DeletionPlan is an ordered list of phases. Phases never overlap: phase N+1
// starts only after every operation of phase N has completed.
type DeletionPlan struct {
	Root   string
	Phases []DeletionPhase
}

// Len returns the total number of operations
func (p *DeletionPlan) Len() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Ops)
	}
	return n
}

// Count returns the number of operations of kind
func (p *DeletionPlan) Count(kind DeletionKind) int {
	n := 0
	for _, ph := range p.Phases {
		for _, op := range ph.Ops {
			if op.Kind == kind {
				n++
			}
		}
	}
	return n
}

// IsEmpty reports whether the plan has nothing to do
func (p *DeletionPlan) IsEmpty() bool {
	return p.Len() == 0
}

// AddPhase appends a phase unless it has no operations
func (p *DeletionPlan) AddPhase(phase DeletionPhase) {
	if len(phase.Ops) == 0 {
		return
	}
	p.Phases = append(p.Phases, phase)
}
