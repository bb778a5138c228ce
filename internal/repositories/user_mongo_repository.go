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

// UsersCollection and GamesCollection are the MongoDB collection names.
const (
	UsersCollection = "users"
	GamesCollection = "games"
)

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Username         string             `bson:"username"`
	Email            string             `bson:"email"`
	Password         string             `bson:"password"`
	Role             string             `bson:"role"`
	GamesParticipate []string           `bson:"games_participate"`
	GamesCreated     []string           `bson:"games_created"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (d mongoUser) toDomain() models.User {
	return models.User{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Username:         d.Username,
		Email:            d.Email,
		Password:         d.Password,
		Role:             d.Role,
		GamesParticipate: nonNil(d.GamesParticipate),
		GamesCreated:     nonNil(d.GamesCreated),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func newMongoUser(u *models.User, id primitive.ObjectID) mongoUser {
	return mongoUser{
		ID:               id,
		Name:             u.Name,
		Username:         u.Username,
		Email:            u.Email,
		Password:         u.Password,
		Role:             u.Role,
		GamesParticipate: nonNil(u.GamesParticipate),
		GamesCreated:     nonNil(u.GamesCreated),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// MongoUserRepository is a MongoDB implementation of UserRepository.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a repository over the users collection of db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique username and email indexes.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("user with ID %s: %w", id, models.ErrRecordNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByGame relies on MongoDB matching a scalar against array elements.
func (r *MongoUserRepository) FindByGame(ctx context.Context, gameID string, rel models.GameRelation) ([]models.User, error) {
	field := "games_participate"
	if rel == models.RelationCreated {
		field = "games_created"
	}
	return r.find(ctx, bson.M{field: gameID})
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	doc := newMongoUser(user, primitive.NewObjectID())
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Username, models.ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	*user = doc.toDomain()
	return nil
}

func (r *MongoUserRepository) Save(ctx context.Context, user *models.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, models.ErrRecordNotFound)
	}
	user.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, newMongoUser(user, oid))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, models.ErrRecordNotFound)
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("user with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("user with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user matching %v: %w", filter, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user := doc.toDomain()
	return &user, nil
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}
