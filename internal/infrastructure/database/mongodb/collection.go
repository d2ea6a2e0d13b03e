package mongodb

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionManager struct {
	client *Client
}

func NewCollectionManager(client *Client) *CollectionManager {
	return &CollectionManager{client: client}
}

// FormCollectionName forms_{module}
func FormCollectionName(module string) string {
	return fmt.Sprintf("forms_%s", module)
}

// EnsureFormDraftCollection crée la collection des brouillons d'un formulaire
// (validation $jsonSchema, index d'expiration sur saved_at) si elle n'existe pas
func (cm *CollectionManager) EnsureFormDraftCollection(ctx context.Context, module string, ttl time.Duration) error {
	collectionName := FormCollectionName(module)

	exists, err := cm.CollectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if !exists {
		// Schéma de validation des brouillons
		validator := bson.M{
			"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": []string{"session_id", "mode", "step", "record", "saved_at"},
				"properties": bson.M{
					"session_id": bson.M{
						"bsonType":    "string",
						"description": "Session de saisie ayant produit le brouillon",
					},
					"mode": bson.M{
						"bsonType":    "string",
						"enum":        []string{"create", "edit"},
						"description": "Création ou édition",
					},
					"step": bson.M{
						"bsonType":    bson.A{"int", "long"},
						"minimum":     1,
						"maximum":     4,
						"description": "Étape courante",
					},
					"record": bson.M{
						"bsonType":    "object",
						"description": "Données du formulaire",
					},
					"touched": bson.M{
						"bsonType":    "array",
						"description": "Champs déjà visités",
					},
					"saved_at": bson.M{
						"bsonType":    "date",
						"description": "Date d'enregistrement",
					},
				},
			},
		}

		opts := options.CreateCollection().SetValidator(validator)
		if err := cm.client.CreateCollection(ctx, collectionName, opts); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
		}
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "patient_id", Value: 1}},
		},
	}
	if ttl > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "saved_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		})
	}

	return cm.client.CreateIndexes(ctx, collectionName, indexes)
}

func (cm *CollectionManager) CollectionExists(ctx context.Context, name string) (bool, error) {
	collections, err := cm.client.ListCollectionNames(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(collections, name), nil
}
