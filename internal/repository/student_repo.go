package repository

import (
	"context"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// StudentRepository provides access to student profile documents.
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (models.StudentProfile, error)
	FindByUserID(ctx context.Context, userID string) ([]models.StudentProfile, error)
	List(ctx context.Context) ([]models.StudentProfile, error)
	ReplacePermissions(ctx context.Context, id string, permissions []appwrite.Permission) (models.StudentProfile, error)
}

type studentRepository struct {
	store      DocumentStore
	collection Collection
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(store DocumentStore, collection Collection) StudentRepository {
	return &studentRepository{store: store, collection: collection}
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.StudentProfile, error) {
	doc, err := r.store.GetDocument(ctx, r.collection.DatabaseID, r.collection.CollectionID, id)
	if err != nil {
		return models.StudentProfile{}, err
	}

	return models.NewStudentProfile(doc), nil
}

func (r *studentRepository) FindByUserID(ctx context.Context, userID string) ([]models.StudentProfile, error) {
	docs, err := listAll(ctx, r.store, r.collection, []appwrite.Query{
		appwrite.Equal(models.StudentUserIDField, userID),
	})
	if err != nil {
		return nil, err
	}

	return toProfiles(docs), nil
}

func (r *studentRepository) List(ctx context.Context) ([]models.StudentProfile, error) {
	docs, err := listAll(ctx, r.store, r.collection, []appwrite.Query{
		appwrite.OrderDesc(appwrite.AttrCreatedAt),
	})
	if err != nil {
		return nil, err
	}

	return toProfiles(docs), nil
}

// ReplacePermissions performs a metadata-only update: no field data changes, the ACL is replaced.
func (r *studentRepository) ReplacePermissions(ctx context.Context, id string, permissions []appwrite.Permission) (models.StudentProfile, error) {
	doc, err := r.store.UpdateDocument(ctx, r.collection.DatabaseID, r.collection.CollectionID, id,
		map[string]interface{}{}, appwrite.FormatPermissions(permissions))
	if err != nil {
		return models.StudentProfile{}, err
	}

	return models.NewStudentProfile(doc), nil
}

func toProfiles(docs []appwrite.Document) []models.StudentProfile {
	profiles := make([]models.StudentProfile, 0, len(docs))
	for _, doc := range docs {
		profiles = append(profiles, models.NewStudentProfile(doc))
	}
	return profiles
}
