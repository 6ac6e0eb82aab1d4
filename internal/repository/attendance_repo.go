package repository

import (
	"context"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// AttendanceRepository persists attendance documents.
type AttendanceRepository interface {
	List(ctx context.Context) ([]models.AttendanceRecord, error)
	Create(ctx context.Context, record models.AttendanceRecord) (models.AttendanceRecord, error)
	Update(ctx context.Context, id string, record models.AttendanceRecord) (models.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
}

type attendanceRepository struct {
	store      DocumentStore
	collection Collection
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(store DocumentStore, collection Collection) AttendanceRepository {
	return &attendanceRepository{store: store, collection: collection}
}

func (r *attendanceRepository) List(ctx context.Context) ([]models.AttendanceRecord, error) {
	docs, err := listAll(ctx, r.store, r.collection, []appwrite.Query{
		appwrite.OrderDesc(appwrite.AttrCreatedAt),
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.NewAttendanceRecord(doc))
	}
	return records, nil
}

func (r *attendanceRepository) Create(ctx context.Context, record models.AttendanceRecord) (models.AttendanceRecord, error) {
	doc, err := r.store.CreateDocument(ctx, r.collection.DatabaseID, r.collection.CollectionID, appwrite.UniqueID(), record.Fields(), nil)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	return models.NewAttendanceRecord(doc), nil
}

func (r *attendanceRepository) Update(ctx context.Context, id string, record models.AttendanceRecord) (models.AttendanceRecord, error) {
	doc, err := r.store.UpdateDocument(ctx, r.collection.DatabaseID, r.collection.CollectionID, id, record.Fields(), nil)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	return models.NewAttendanceRecord(doc), nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	return r.store.DeleteDocument(ctx, r.collection.DatabaseID, r.collection.CollectionID, id)
}
