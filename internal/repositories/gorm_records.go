package repositories

import (
	"errors"
	"time"

	"mafiamadness/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// userRecord is the SQL row for a user. Back-references are JSON array columns.
type userRecord struct {
	ID               string `gorm:"primaryKey;type:varchar(36)"`
	Name             string `gorm:"type:varchar(100)"`
	Username         string `gorm:"uniqueIndex;type:varchar(100)"`
	Email            string `gorm:"uniqueIndex;type:varchar(255)"`
	Password         string `gorm:"type:varchar(255)"`
	Role             string `gorm:"type:varchar(32);default:user"`
	GamesParticipate datatypes.JSONSlice[string]
	GamesCreated     datatypes.JSONSlice[string]
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (userRecord) TableName() string { return "users" }

// gameRecord is the SQL row for a game.
type gameRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Type      string `gorm:"type:varchar(100);not null"`
	CreatorID string `gorm:"type:varchar(36);index"`
	Players   datatypes.JSONSlice[string]
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (gameRecord) TableName() string { return "games" }

// AutoMigrate creates or updates the users and games tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRecord{}, &gameRecord{})
}

func newUserRecord(u *models.User) userRecord {
	return userRecord{
		ID:               u.ID,
		Name:             u.Name,
		Username:         u.Username,
		Email:            u.Email,
		Password:         u.Password,
		Role:             u.Role,
		GamesParticipate: datatypes.NewJSONSlice(nonNil(u.GamesParticipate)),
		GamesCreated:     datatypes.NewJSONSlice(nonNil(u.GamesCreated)),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (r userRecord) toDomain() models.User {
	return models.User{
		ID:               r.ID,
		Name:             r.Name,
		Username:         r.Username,
		Email:            r.Email,
		Password:         r.Password,
		Role:             r.Role,
		GamesParticipate: nonNil(r.GamesParticipate),
		GamesCreated:     nonNil(r.GamesCreated),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func newGameRecord(g *models.Game) gameRecord {
	return gameRecord{
		ID:        g.ID,
		Type:      g.Type,
		CreatorID: g.CreatorID,
		Players:   datatypes.NewJSONSlice(nonNil(g.Players)),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func (r gameRecord) toDomain() models.Game {
	return models.Game{
		ID:        r.ID,
		Type:      r.Type,
		CreatorID: r.CreatorID,
		Players:   nonNil(r.Players),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func translateGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.ErrDuplicateRecord
	default:
		return err
	}
}
