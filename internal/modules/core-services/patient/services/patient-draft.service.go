package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// DraftModule suffixe de la collection forms_patient_registration
const DraftModule = "patient_registration"

// PatientDraftService implémente FormDraftStore sur MongoDB
type PatientDraftService struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewPatientDraftService crée une nouvelle instance du service
func NewPatientDraftService(client *mongodb.Client, logger *zap.Logger) *PatientDraftService {
	return &PatientDraftService{
		collection: client.Collection(mongodb.FormCollectionName(DraftModule)),
		logger:     logger.Named("patient-draft"),
	}
}

// SaveDraft upsert par identifiant de brouillon
func (s *PatientDraftService) SaveDraft(ctx context.Context, draft *dto.FormDraft) error {
	if s.collection == nil {
		return mongodb.ErrDisabled
	}
	if draft.Touched == nil {
		draft.Touched = []string{}
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": draft.ID},
		draft,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	s.logger.Debug("brouillon enregistré",
		zap.String("draft_id", draft.ID),
		zap.Int("step", draft.Step),
	)
	return nil
}

// LoadDraft récupère un brouillon ; DraftNotFoundError si absent ou expiré
func (s *PatientDraftService) LoadDraft(ctx context.Context, id string) (*dto.FormDraft, error) {
	if s.collection == nil {
		return nil, mongodb.ErrDisabled
	}
	var draft dto.FormDraft
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&draft)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &dto.DraftNotFoundError{DraftID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return &draft, nil
}

// DeleteDraft supprime un brouillon (absent = pas d'erreur)
func (s *PatientDraftService) DeleteDraft(ctx context.Context, id string) error {
	if s.collection == nil {
		return mongodb.ErrDisabled
	}
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
