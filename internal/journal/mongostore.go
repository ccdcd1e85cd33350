package journal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collJournals = "journals"
	collDistress = "distresslogs"
	collMemories = "healingmemorylogs"
	collSeeds    = "seeds"
)

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	client   *mongo.Client
	journals *mongo.Collection
	distress *mongo.Collection
	memories *mongo.Collection
	seeds    *mongo.Collection
	now      func() time.Time
}

// ConnectMongo connects to uri, pings the server and ensures the indexes
// on the given database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		journals: db.Collection(collJournals),
		distress: db.Collection(collDistress),
		memories: db.Collection(collMemories),
		seeds:    db.Collection(collSeeds),
		now:      time.Now,
	}
	if err := s.createIndexes(connectCtx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating mongodb indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	byUserTime := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	for _, c := range []*mongo.Collection{s.journals, s.distress, s.memories} {
		if _, err := c.Indexes().CreateMany(ctx, byUserTime); err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the server connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if at.IsZero() {
		// BSON dates carry millisecond precision.
		*at = s.now().UTC().Truncate(time.Millisecond)
	}
}

func (s *MongoStore) CreateEntry(ctx context.Context, e *Entry) error {
	s.stamp(&e.ID, &e.CreatedAt)
	if e.Emotions == nil {
		e.Emotions = []string{}
	}
	if _, err := s.journals.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("inserting journal: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateDistressLog(ctx context.Context, l *DistressLog) error {
	s.stamp(&l.ID, &l.CreatedAt)
	if _, err := s.distress.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("inserting distress log: %w", err)
	}
	return nil
}

// CreateEntryRecords inserts the entry, then its distress log and healing
// memory. Standalone servers have no multi-document transactions, so a
// failed insert removes the documents already written.
func (s *MongoStore) CreateEntryRecords(ctx context.Context, e *Entry, l *DistressLog, m *HealingMemory) error {
	if err := s.CreateEntry(ctx, e); err != nil {
		return err
	}
	l.JournalRef = e.ID
	if err := s.CreateDistressLog(ctx, l); err != nil {
		return s.undo(ctx, err, undoStep{s.journals, e.ID})
	}
	m.JournalRef = e.ID
	s.stamp(&m.ID, &m.CreatedAt)
	if _, err := s.memories.InsertOne(ctx, m); err != nil {
		return s.undo(ctx, fmt.Errorf("inserting healing memory: %w", err),
			undoStep{s.distress, l.ID}, undoStep{s.journals, e.ID})
	}
	return nil
}

type undoStep struct {
	coll *mongo.Collection
	id   string
}

// undo deletes already inserted documents after cause. Deletes run even
// when ctx is done.
func (s *MongoStore) undo(ctx context.Context, cause error, steps ...undoStep) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	for _, st := range steps {
		if _, err := st.coll.DeleteOne(ctx, bson.M{"_id": st.id}); err != nil {
			errs = append(errs, fmt.Errorf("removing %s %s: %w", st.coll.Name(), st.id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *MongoStore) CreateSeed(ctx context.Context, seed *Seed) error {
	s.stamp(&seed.ID, &seed.CreatedAt)
	if seed.EmotionTags == nil {
		seed.EmotionTags = []string{}
	}
	if _, err := s.seeds.InsertOne(ctx, seed); err != nil {
		return fmt.Errorf("inserting seed: %w", err)
	}
	return nil
}

func (s *MongoStore) ListAllSeeds(ctx context.Context) ([]Seed, error) {
	seeds := []Seed{}
	if err := findAll(ctx, s.seeds, bson.M{}, 1, &seeds); err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	return seeds, nil
}

func (s *MongoStore) ListJournals(ctx context.Context, userID string) ([]Entry, error) {
	entries := []Entry{}
	if err := findAll(ctx, s.journals, bson.M{"user_id": userID}, -1, &entries); err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) AllJournals(ctx context.Context) ([]Entry, error) {
	entries := []Entry{}
	if err := findAll(ctx, s.journals, bson.M{}, 1, &entries); err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) GetJournal(ctx context.Context, userID, id string) (*Entry, error) {
	var e Entry
	err := s.journals.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting journal: %w", err)
	}
	return &e, nil
}

func (s *MongoStore) EmotionLogs(ctx context.Context, userID string, f EmotionFilter) ([]DistressLog, error) {
	filter := bson.M{"user_id": userID}

	if !f.From.IsZero() || !f.To.IsZero() {
		rng := bson.M{}
		if !f.From.IsZero() {
			rng["$gte"] = f.From
		}
		if !f.To.IsZero() {
			rng["$lte"] = f.To
		}
		filter["created_at"] = rng
	}
	if f.Emotion != "" {
		filter["detected_emotion"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Emotion), Options: "i"}
	}

	logs := []DistressLog{}
	if err := findAll(ctx, s.distress, filter, -1, &logs); err != nil {
		return nil, fmt.Errorf("listing distress logs: %w", err)
	}
	return logs, nil
}

func (s *MongoStore) HealingMemories(ctx context.Context, userID string) ([]HealingMemory, error) {
	memories := []HealingMemory{}
	if err := findAll(ctx, s.memories, bson.M{"user_id": userID}, 1, &memories); err != nil {
		return nil, fmt.Errorf("listing healing memories: %w", err)
	}
	return memories, nil
}

func (s *MongoStore) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	vals, err := s.journals.Distinct(ctx, "user_id", bson.M{"created_at": bson.M{"$gte": since}})
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	users := make([]string, 0, len(vals))
	for _, v := range vals {
		if u, ok := v.(string); ok {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}

// findAll decodes every document matching filter into out, sorted by
// created_at in the given direction.
func findAll(ctx context.Context, c *mongo.Collection, filter bson.M, direction int, out any) error {
	cursor, err := c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: direction}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
