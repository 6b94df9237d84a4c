package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	listingsCollection = "listings"
	reviewsCollection  = "reviews"
	sessionsCollection = "sessions"
)

// MongoStore implements Store on a MongoDB database. Documents keep the
// shape of the original collections: listings reference their owner and
// hold an ordered array of review ids.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Hash      string             `bson:"hash"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type imageDoc struct {
	URL      string `bson:"url"`
	Filename string `bson:"filename"`
}

type listingDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Image       imageDoc             `bson:"image"`
	Price       float64              `bson:"price"`
	Location    string               `bson:"location"`
	Country     string               `bson:"country"`
	Owner       primitive.ObjectID   `bson:"owner"`
	Reviews     []primitive.ObjectID `bson:"reviews"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type reviewDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Comment   string             `bson:"comment"`
	Rating    int                `bson:"rating"`
	Listing   primitive.ObjectID `bson:"listing"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	Expires   time.Time `bson:"expires"`
	CreatedAt time.Time `bson:"createdAt"`
}

// OpenMongo connects and pings the server.
func OpenMongo(ctx context.Context, cfg *config.DatabaseConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("Connected to MongoDB database", cfg.Name)
	return &MongoStore{client: client, db: client.Database(cfg.Name)}, nil
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) users() *mongo.Collection    { return s.db.Collection(usersCollection) }
func (s *MongoStore) listings() *mongo.Collection { return s.db.Collection(listingsCollection) }
func (s *MongoStore) reviews() *mongo.Collection  { return s.db.Collection(reviewsCollection) }
func (s *MongoStore) sessions() *mongo.Collection { return s.db.Collection(sessionsCollection) }

func (s *MongoStore) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Hash:      user.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateError{Field: duplicateField(err.Error())}
		}
		return err
	}
	user.Id = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) ListListings(ctx context.Context) ([]*model.Listing, error) {
	cursor, err := s.listings().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []listingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	listings := make([]*model.Listing, 0, len(docs))
	for i := range docs {
		listings = append(listings, docs[i].toModel())
	}
	return listings, nil
}

func (s *MongoStore) findListing(ctx context.Context, id string) (*listingDoc, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc listingDoc
	if err := s.listings().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	return &doc, nil
}

func (s *MongoStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	doc, err := s.findListing(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetListingDetail(ctx context.Context, id string) (*model.Listing, error) {
	doc, err := s.findListing(ctx, id)
	if err != nil {
		return nil, err
	}
	listing := doc.toModel()

	var owner userDoc
	err = s.users().FindOne(ctx, bson.M{"_id": doc.Owner}).Decode(&owner)
	switch {
	case err == nil:
		listing.Owner = owner.toModel()
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	if len(doc.Reviews) == 0 {
		listing.Reviews = []*model.Review{}
		return listing, nil
	}
	cursor, err := s.reviews().Find(ctx, bson.M{"_id": bson.M{"$in": doc.Reviews}})
	if err != nil {
		return nil, err
	}
	var reviews []reviewDoc
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*reviewDoc, len(reviews))
	for i := range reviews {
		byID[reviews[i].ID] = &reviews[i]
	}
	listing.Reviews = make([]*model.Review, 0, len(doc.Reviews))
	for pos, rid := range doc.Reviews {
		if r, ok := byID[rid]; ok {
			review := r.toModel()
			review.ListingId = listing.Id
			review.Position = pos
			listing.Reviews = append(listing.Reviews, review)
		}
	}
	return listing, nil
}

func (s *MongoStore) CreateListing(ctx context.Context, listing *model.Listing) error {
	owner, err := primitive.ObjectIDFromHex(listing.OwnerId)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", listing.OwnerId, err)
	}
	now := time.Now()
	doc := listingDoc{
		ID:          primitive.NewObjectID(),
		Title:       listing.Title,
		Description: listing.Description,
		Image:       imageDoc{URL: listing.Image.URL, Filename: listing.Image.Filename},
		Price:       listing.Price,
		Location:    listing.Location,
		Country:     listing.Country,
		Owner:       owner,
		Reviews:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.listings().InsertOne(ctx, doc); err != nil {
		return err
	}
	listing.Id = doc.ID.Hex()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	return nil
}

func (s *MongoStore) UpdateListing(ctx context.Context, listing *model.Listing) error {
	oid, err := primitive.ObjectIDFromHex(listing.Id)
	if err != nil {
		return ErrNotFound
	}
	listing.UpdatedAt = time.Now()
	res, err := s.listings().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":       listing.Title,
		"description": listing.Description,
		"image":       imageDoc{URL: listing.Image.URL, Filename: listing.Image.Filename},
		"price":       listing.Price,
		"location":    listing.Location,
		"country":     listing.Country,
		"updatedAt":   listing.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteListing(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	var doc listingDoc
	err = s.listings().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(doc.Reviews) > 0 {
		if _, err := s.reviews().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": doc.Reviews}}); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *MongoStore) DeleteAllListings(ctx context.Context) (int64, error) {
	if _, err := s.reviews().DeleteMany(ctx, bson.M{}); err != nil {
		return 0, err
	}
	res, err := s.listings().DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) AddReview(ctx context.Context, listingId string, review *model.Review) error {
	doc, err := s.findListing(ctx, listingId)
	if err != nil {
		return err
	}

	now := time.Now()
	rdoc := reviewDoc{
		ID:        primitive.NewObjectID(),
		Comment:   review.Comment,
		Rating:    review.Rating,
		Listing:   doc.ID,
		CreatedAt: now,
	}
	if _, err := s.reviews().InsertOne(ctx, rdoc); err != nil {
		return err
	}

	res, err := s.listings().UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{
		"$push": bson.M{"reviews": rdoc.ID},
		"$set":  bson.M{"updatedAt": now},
	})
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		// the listing vanished between the lookup and the push
		_, _ = s.reviews().DeleteOne(ctx, bson.M{"_id": rdoc.ID})
		return err
	}

	review.Id = rdoc.ID.Hex()
	review.ListingId = listingId
	review.Position = len(doc.Reviews)
	review.CreatedAt = now
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var doc sessionDoc
	if err := s.sessions().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	return &model.Session{Id: doc.ID, Data: doc.Data, ExpiresAt: doc.Expires, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) SaveSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	doc := sessionDoc{
		ID:        session.Id,
		Data:      session.Data,
		Expires:   session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
	_, err := s.sessions().ReplaceOne(ctx, bson.M{"_id": session.Id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.sessions().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sessions().DeleteMany(ctx, bson.M{"expires": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		Id:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Hash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *listingDoc) toModel() *model.Listing {
	return &model.Listing{
		Id:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Image:       model.Image{URL: d.Image.URL, Filename: d.Image.Filename},
		Price:       d.Price,
		Location:    d.Location,
		Country:     d.Country,
		OwnerId:     d.Owner.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *reviewDoc) toModel() *model.Review {
	return &model.Review{
		Id:        d.ID.Hex(),
		Comment:   d.Comment,
		Rating:    d.Rating,
		ListingId: d.Listing.Hex(),
		CreatedAt: d.CreatedAt,
	}
}

func translateMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateError{Field: duplicateField(strings.ToLower(err.Error()))}
	}
	return err
}
