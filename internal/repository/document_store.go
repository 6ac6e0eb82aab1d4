package repository

import (
	"context"

	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// DocumentStore is the subset of the backend document API the repositories depend on.
type DocumentStore interface {
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []appwrite.Query) (appwrite.DocumentList, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (appwrite.Document, error)
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (appwrite.Document, error)
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (appwrite.Document, error)
	DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error
}

// Collection addresses one backend collection.
type Collection struct {
	DatabaseID   string
	CollectionID string
}

var _ DocumentStore = (*appwrite.Databases)(nil)

// listPageSize is the page requested while walking a collection.
const listPageSize = 100

// listAll walks every page matching queries using cursor pagination.
func listAll(ctx context.Context, store DocumentStore, collection Collection, queries []appwrite.Query) ([]appwrite.Document, error) {
	docs := make([]appwrite.Document, 0)
	cursor := ""
	for {
		page := make([]appwrite.Query, 0, len(queries)+2)
		page = append(page, queries...)
		page = append(page, appwrite.Limit(listPageSize))
		if cursor != "" {
			page = append(page, appwrite.CursorAfter(cursor))
		}

		list, err := store.ListDocuments(ctx, collection.DatabaseID, collection.CollectionID, page)
		if err != nil {
			return nil, err
		}
		docs = append(docs, list.Documents...)

		if len(list.Documents) < listPageSize || (list.Total > 0 && len(docs) >= list.Total) {
			return docs, nil
		}
		cursor = list.Documents[len(list.Documents)-1].ID
	}
}
