package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mafiamadness/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoGame struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"`
	CreatorID string             `bson:"creator_id"`
	Players   []string           `bson:"players"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d mongoGame) toDomain() models.Game {
	return models.Game{
		ID:        d.ID.Hex(),
		Type:      d.Type,
		CreatorID: d.CreatorID,
		Players:   nonNil(d.Players),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func newMongoGame(g *models.Game, id primitive.ObjectID) mongoGame {
	return mongoGame{
		ID:        id,
		Type:      g.Type,
		CreatorID: g.CreatorID,
		Players:   nonNil(g.Players),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// MongoGameRepository is a MongoDB implementation of GameRepository.
type MongoGameRepository struct {
	coll *mongo.Collection
}

// NewMongoGameRepository creates a repository over the games collection of db.
func NewMongoGameRepository(db *mongo.Database) *MongoGameRepository {
	return &MongoGameRepository{coll: db.Collection(GamesCollection)}
}

func (r *MongoGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get all games: %w", err)
	}
	var docs []mongoGame
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	games := make([]models.Game, 0, len(docs))
	for _, d := range docs {
		games = append(games, d.toDomain())
	}
	return games, nil
}

func (r *MongoGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("game with ID %s: %w", id, models.ErrRecordNotFound)
	}
	var doc mongoGame
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("game with ID %s: %w", id, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get game by ID %s: %w", id, err)
	}
	game := doc.toDomain()
	return &game, nil
}

func (r *MongoGameRepository) Create(ctx context.Context, game *models.Game) error {
	now := time.Now().UTC()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now

	doc := newMongoGame(game, primitive.NewObjectID())
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	*game = doc.toDomain()
	return nil
}

func (r *MongoGameRepository) Save(ctx context.Context, game *models.Game) error {
	oid, err := primitive.ObjectIDFromHex(game.ID)
	if err != nil {
		return fmt.Errorf("game with ID %s not found for update: %w", game.ID, models.ErrRecordNotFound)
	}
	game.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, newMongoGame(game, oid))
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("game with ID %s not found for update: %w", game.ID, models.ErrRecordNotFound)
	}
	return nil
}

func (r *MongoGameRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("game with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("game with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	return nil
}
