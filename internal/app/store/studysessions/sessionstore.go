// internal/app/store/studysessions/sessionstore.go
package sessionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound         = errors.New("study session not found")
	ErrNotCreator       = errors.New("only the session creator can change this session")
	ErrAlreadyAttending = errors.New("user is already attending this session")
)

// Store manages scheduled study sessions and their attendees.
type Store struct {
	c         *mongo.Collection
	attendees *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("study_sessions"),
		attendees: db.Collection("session_attendees"),
	}
}

// PastFilter selects sessions whose end is at or before the cutoff:
// date < today OR (date == today AND end_time <= now).
func PastFilter(c timezones.Cutoff) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"date": bson.M{"$lt": c.Date}},
		bson.M{"date": c.Date, "end_time": bson.M{"$lte": c.Time}},
	}}
}

// FutureFilter is the complement of PastFilter.
func FutureFilter(c timezones.Cutoff) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"date": bson.M{"$gt": c.Date}},
		bson.M{"date": c.Date, "end_time": bson.M{"$gt": c.Time}},
	}}
}

// Create validates and inserts a new session.
func (s *Store) Create(ctx context.Context, sess models.StudySession) (models.StudySession, error) {
	sess.Location = strings.TrimSpace(sess.Location)
	if err := sess.Validate(); err != nil {
		return models.StudySession{}, err
	}
	now := time.Now().UTC()
	sess.ID = primitive.NewObjectID()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return models.StudySession{}, err
	}
	return sess, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.StudySession, error) {
	var sess models.StudySession
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StudySession{}, ErrNotFound
	}
	return sess, err
}

// Schedule holds the fields a creator may change when rescheduling.
type Schedule struct {
	Date        string
	StartTime   string
	EndTime     string
	Location    string
	Description string
}

// Reschedule updates a session's schedule. Only the creator may do this.
func (s *Store) Reschedule(ctx context.Context, id, actorID primitive.ObjectID, sch Schedule) (models.StudySession, error) {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return models.StudySession{}, err
	}
	if sess.CreatorID != actorID {
		return models.StudySession{}, ErrNotCreator
	}

	sess.Date = sch.Date
	sess.StartTime = sch.StartTime
	sess.EndTime = sch.EndTime
	sess.Location = strings.TrimSpace(sch.Location)
	sess.Description = sch.Description
	if err := sess.Validate(); err != nil {
		return models.StudySession{}, err
	}
	sess.UpdatedAt = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "creator_id": actorID},
		bson.M{"$set": bson.M{
			"date":        sess.Date,
			"start_time":  sess.StartTime,
			"end_time":    sess.EndTime,
			"location":    sess.Location,
			"description": sess.Description,
			"updated_at":  sess.UpdatedAt,
		}},
	)
	if err != nil {
		return models.StudySession{}, err
	}
	if res.MatchedCount == 0 {
		// Deleted (or reconciled) between the read and the write.
		return models.StudySession{}, ErrNotFound
	}
	return sess, nil
}

// ListUpcoming returns sessions that have not ended yet, ordered by date then
// start time. A nil groupID lists across all groups.
func (s *Store) ListUpcoming(ctx context.Context, c timezones.Cutoff, groupID *primitive.ObjectID) ([]models.StudySession, error) {
	filter := FutureFilter(c)
	if groupID != nil {
		filter["group_id"] = *groupID
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "start_time", Value: 1},
		{Key: "_id", Value: 1},
	})
	return s.find(ctx, filter, opts)
}

// CountUpcoming counts sessions that have not ended yet.
func (s *Store) CountUpcoming(ctx context.Context, c timezones.Cutoff) (int64, error) {
	return s.c.CountDocuments(ctx, FutureFilter(c))
}

// ListPast returns every session that has ended as of the cutoff, oldest first.
func (s *Store) ListPast(ctx context.Context, c timezones.Cutoff) ([]models.StudySession, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "end_time", Value: 1},
		{Key: "_id", Value: 1},
	})
	return s.find(ctx, PastFilter(c), opts)
}

// ListPastByGroup returns a group's ended-but-unreconciled sessions.
func (s *Store) ListPastByGroup(ctx context.Context, c timezones.Cutoff, groupID primitive.ObjectID) ([]models.StudySession, error) {
	filter := PastFilter(c)
	filter["group_id"] = groupID
	return s.find(ctx, filter, options.Find())
}

// Claim deletes the session if it still exists. It reports whether this
// caller removed it; false means another caller got there first.
func (s *Store) Claim(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// Restore re-inserts a previously claimed session. Restoring a session that
// still exists is a no-op.
func (s *Store) Restore(ctx context.Context, sess models.StudySession) error {
	_, err := s.c.InsertOne(ctx, sess)
	if err != nil && wafflemongo.IsDup(err) {
		return nil
	}
	return err
}

// Delete removes a session on behalf of its creator. Attendee rows are
// removed first.
func (s *Store) Delete(ctx context.Context, id, actorID primitive.ObjectID) error {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess.CreatorID != actorID {
		return ErrNotCreator
	}
	if _, err := s.RemoveAttendees(ctx, id); err != nil {
		return err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "creator_id": actorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByGroup removes all sessions (and their attendees) of a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	ids, err := s.idsByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		if _, err := s.attendees.DeleteMany(ctx, bson.M{"session_id": bson.M{"$in": ids}}); err != nil {
			return 0, err
		}
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddAttendee registers userID for the session.
func (s *Store) AddAttendee(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	if _, err := s.GetByID(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.attendees.InsertOne(ctx, models.SessionAttendee{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrAlreadyAttending
	}
	return err
}

// RemoveAttendees deletes all attendee rows of a session.
func (s *Store) RemoveAttendees(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	res, err := s.attendees.DeleteMany(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TakeAttendees removes a session's attendee rows and returns what it removed,
// so a failed reconcile can put them back.
func (s *Store) TakeAttendees(ctx context.Context, sessionID primitive.ObjectID) ([]models.SessionAttendee, error) {
	cur, err := s.attendees.Find(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	var rows []models.SessionAttendee
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if _, err := s.attendees.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return nil, err
	}
	return rows, nil
}

// RestoreAttendees re-inserts attendee rows. Rows that still exist are skipped.
func (s *Store) RestoreAttendees(ctx context.Context, rows []models.SessionAttendee) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	_, err := s.attendees.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// CountAttendees returns the number of attendees of a session.
func (s *Store) CountAttendees(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return s.attendees.CountDocuments(ctx, bson.M{"session_id": sessionID})
}

func (s *Store) idsByGroup(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.StudySession, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StudySession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
