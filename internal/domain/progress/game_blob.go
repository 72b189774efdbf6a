package progress

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GameBlob holds the freeform per-game progress map of one subject.
type GameBlob struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"subject_id"`
	Entries   datatypes.JSON `gorm:"column:entries" json:"entries"`
	Version   int            `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (GameBlob) TableName() string { return "progress_game_blob" }

// Map decodes Entries. A nil or empty blob yields an empty map.
func (b *GameBlob) Map() (map[string]any, error) {
	out := map[string]any{}
	if b == nil || len(b.Entries) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b.Entries, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// SetMap encodes m into Entries.
func (b *GameBlob) SetMap(m map[string]any) error {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	b.Entries = datatypes.JSON(raw)
	return nil
}
