package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Run struct {
	bun.BaseModel `bun:"table:aimless.runs,alias:r"`

	ID         uuid.UUID `bun:"type:uuid,pk"`
	TgtDir     string    `bun:",notnull"`
	Backend    string    `bun:",notnull"`
	NumPaths   int       `bun:",notnull"`
	TotalSteps int       `bun:",notnull"`
	Accepted   int       `bun:",notnull,default:0"`
	Rejected   int       `bun:",notnull,default:0"`
	Error      string    `bun:",nullzero"`

	StartedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	FinishedAt time.Time `bun:",nullzero"`
}

type PathResult struct {
	bun.BaseModel `bun:"table:aimless.path_results,alias:pr"`

	ID       int64     `bun:",pk,autoincrement"`
	RunID    uuid.UUID `bun:"type:uuid,notnull"`
	Path     int       `bun:",notnull"`
	Forward  string    `bun:",notnull"`
	Backward string    `bun:",notnull"`
	RC1Fwd   float64   `bun:"rc1_fwd,notnull"`
	RC2Fwd   float64   `bun:"rc2_fwd,notnull"`
	RC1Back  float64   `bun:"rc1_back,notnull"`
	RC2Back  float64   `bun:"rc2_back,notnull"`
	Accepted bool      `bun:",notnull"`

	FinishedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
