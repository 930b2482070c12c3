// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/melbminds/studyhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection the app uses, in creation order.
var Collections = []string{
	"users",
	"groups",
	"group_memberships",
	"study_sessions",
	"session_attendees",
	"notifications",
	"counters",
	"group_ratings",
	"messages",
	"locks",
	"flashcard_folders",
	"flashcards",
}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	schemas := map[string]bson.M{
		"users":             usersSchema(),
		"groups":            groupsSchema(),
		"group_memberships": groupMembershipsSchema(),
		"study_sessions":    studySessionsSchema(),
		"session_attendees": sessionAttendeesSchema(),
		"notifications":     notificationsSchema(),
		"group_ratings":     ratingsSchema(),
		"messages":          messagesSchema(),
		"flashcard_folders": flashcardFoldersSchema(),
		"flashcards":        flashcardsSchema(),
	}
	for _, coll := range Collections {
		ensure(coll, schemas[coll])
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectID = bson.M{"bsonType": "objectId"}
	date     = bson.M{"bsonType": "date"}
	number   = bson.A{"double", "int", "long"}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "email_ci", "password_hash", "role"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{models.RoleStudent, models.RoleAdmin}},
				"languages":     bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "subject_code", "creator_id", "progress_hours"},
			"properties": bson.M{
				"name":             nonBlank,
				"name_ci":          nonBlank,
				"subject_code":     nonBlank,
				"creator_id":       objectID,
				"progress_hours":   bson.M{"bsonType": number, "minimum": 0},
				"target_hours":     bson.M{"bsonType": number, "minimum": 0},
				"tags":             bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"personality_tags": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "group_id", "created_at"},
			"properties": bson.M{
				"user_id":    objectID,
				"group_id":   objectID,
				"created_at": date,
			},
		},
	}
}

func studySessionsSchema() bson.M {
	clock := bson.M{"bsonType": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]:[0-5][0-9]$"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "creator_id", "date", "start_time", "end_time"},
			"properties": bson.M{
				"group_id":   objectID,
				"creator_id": objectID,
				"date":       bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
				"start_time": clock,
				"end_time":   clock,
				"location":   bson.M{"bsonType": "string"},
			},
		},
	}
}

func sessionAttendeesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"session_id", "user_id"},
			"properties": bson.M{
				"session_id": objectID,
				"user_id":    objectID,
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "message", "created_at"},
			"properties": bson.M{
				"group_id":   objectID,
				"message":    nonBlank,
				"created_at": date,
			},
		},
	}
}

func ratingsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "user_id", "score"},
			"properties": bson.M{
				"group_id": objectID,
				"user_id":  objectID,
				"score":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 5},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "user_id", "text", "created_at"},
			"properties": bson.M{
				"group_id":   objectID,
				"user_id":    objectID,
				"text":       nonBlank,
				"created_at": date,
			},
		},
	}
}

func flashcardFoldersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "creator_id", "created_at"},
			"properties": bson.M{
				"name":       nonBlank,
				"creator_id": objectID,
				"group_id":   objectID,
				"created_at": date,
			},
		},
	}
}

func flashcardsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"folder_id", "question", "answer", "created_at"},
			"properties": bson.M{
				"folder_id":  objectID,
				"question":   nonBlank,
				"answer":     nonBlank,
				"created_at": date,
			},
		},
	}
}
