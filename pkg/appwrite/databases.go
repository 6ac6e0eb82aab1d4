package appwrite

import (
	"context"
	"fmt"
)

// Databases exposes the document primitives of the backend.
type Databases struct {
	client *Client
}

// NewDatabases wraps the client with document operations.
func NewDatabases(client *Client) *Databases {
	return &Databases{client: client}
}

type decoder interface {
	Decode(value interface{}) error
}

func decodeDocument(source decoder) (Document, error) {
	var doc Document
	if err := source.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns one page of documents matching queries.
func (d *Databases) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []Query) (DocumentList, error) {
	encoded := make([]string, 0, len(queries))
	for _, q := range queries {
		encoded = append(encoded, q.String())
	}

	service := d.client.databases
	return call(ctx, d.client.timeout, func() (DocumentList, error) {
		list, err := service.ListDocuments(databaseID, collectionID, service.WithListDocumentsQueries(encoded))
		if err != nil {
			return DocumentList{}, err
		}
		var out DocumentList
		if err := list.Decode(&out); err != nil {
			return DocumentList{}, fmt.Errorf("failed to decode document list: %w", err)
		}
		return out, nil
	})
}

// GetDocument fetches a document by id.
func (d *Databases) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (Document, error) {
	return call(ctx, d.client.timeout, func() (Document, error) {
		doc, err := d.client.databases.GetDocument(databaseID, collectionID, documentID)
		if err != nil {
			return Document{}, err
		}
		return decodeDocument(doc)
	})
}

// CreateDocument stores a new document. Pass UniqueID() to let the backend generate the id.
func (d *Databases) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (Document, error) {
	if data == nil {
		data = map[string]interface{}{}
	}

	service := d.client.databases
	return call(ctx, d.client.timeout, func() (Document, error) {
		if permissions == nil {
			doc, err := service.CreateDocument(databaseID, collectionID, documentID, data)
			if err != nil {
				return Document{}, err
			}
			return decodeDocument(doc)
		}
		doc, err := service.CreateDocument(databaseID, collectionID, documentID, data,
			service.WithCreateDocumentPermissions(permissions))
		if err != nil {
			return Document{}, err
		}
		return decodeDocument(doc)
	})
}

// UpdateDocument patches a document. A nil permissions slice leaves the ACL untouched; a non-nil one
// replaces it.
func (d *Databases) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (Document, error) {
	if data == nil {
		data = map[string]interface{}{}
	}

	service := d.client.databases
	return call(ctx, d.client.timeout, func() (Document, error) {
		if permissions == nil {
			doc, err := service.UpdateDocument(databaseID, collectionID, documentID,
				service.WithUpdateDocumentData(data))
			if err != nil {
				return Document{}, err
			}
			return decodeDocument(doc)
		}
		doc, err := service.UpdateDocument(databaseID, collectionID, documentID,
			service.WithUpdateDocumentData(data),
			service.WithUpdateDocumentPermissions(permissions))
		if err != nil {
			return Document{}, err
		}
		return decodeDocument(doc)
	})
}

// DeleteDocument removes a document by id.
func (d *Databases) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	_, err := call(ctx, d.client.timeout, func() (struct{}, error) {
		_, err := d.client.databases.DeleteDocument(databaseID, collectionID, documentID)
		return struct{}{}, err
	})
	return err
}
