package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tecsitel/backend/internal/application/state"
)

// stateSnapshotModel is the single-row document table backing the SQLite
// adapter. The snapshot is stored whole as JSON; persistence is
// all-or-nothing, so there is no per-entity schema.
type stateSnapshotModel struct {
	ID        int64  `gorm:"primaryKey"`
	Document  string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName overrides the GORM table name
func (stateSnapshotModel) TableName() string {
	return "state_snapshots"
}

// snapshotRowID is the fixed primary key of the only row
const snapshotRowID = 1

// GormStateRepository persists the full state snapshot as a JSON document
// in SQLite via GORM.
type GormStateRepository struct {
	db *gorm.DB
}

// NewGormStateRepository creates the repository and ensures the table exists
func NewGormStateRepository(db *gorm.DB) (*GormStateRepository, error) {
	if err := db.AutoMigrate(&stateSnapshotModel{}); err != nil {
		return nil, state.NewPersistenceError("load", err)
	}
	return &GormStateRepository{db: db}, nil
}

// Load reads the persisted snapshot. An empty table is not an error: the
// first run starts from an empty, normalized state.
func (r *GormStateRepository) Load(ctx context.Context) (*state.FullState, error) {
	var row stateSnapshotModel
	err := r.db.WithContext(ctx).First(&row, snapshotRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := &state.FullState{}
			fresh.Normalize()
			return fresh, nil
		}
		return nil, state.NewPersistenceError("load", err)
	}

	var loaded state.FullState
	if err := json.Unmarshal([]byte(row.Document), &loaded); err != nil {
		return nil, state.NewPersistenceError("load", err)
	}
	loaded.Normalize()
	return &loaded, nil
}

// Save overwrites the persisted snapshot with the given state
func (r *GormStateRepository) Save(ctx context.Context, snapshot *state.FullState) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return state.NewPersistenceError("save", err)
	}

	row := stateSnapshotModel{
		ID:        snapshotRowID,
		Document:  string(data),
		UpdatedAt: time.Now(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return state.NewPersistenceError("save", err)
	}
	return nil
}
