// Package testutil provides an in-memory stand-in for the hosted backend used by package tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// Operation names counted by MemoryBackend.
const (
	OpCreateSession = "account.create_session"
	OpGetAccount    = "account.get"
	OpDeleteSession = "account.delete_session"
	OpList          = "documents.list"
	OpGet           = "documents.get"
	OpCreate        = "documents.create"
	OpUpdate        = "documents.update"
	OpDelete        = "documents.delete"
)

type memoryUser struct {
	password string
	user     appwrite.User
}

// MemoryBackend implements the account and document primitives in memory. Creation timestamps advance
// one second per write so ordering is deterministic.
type MemoryBackend struct {
	mu       sync.Mutex
	clock    time.Time
	seq      int
	users    map[string]memoryUser
	sessions map[string]string
	docs     map[string]map[string]appwrite.Document
	calls    map[string]int
	failures map[string]error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		clock:    time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC),
		users:    make(map[string]memoryUser),
		sessions: make(map[string]string),
		docs:     make(map[string]map[string]appwrite.Document),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// AddUser registers credentials for user.
func (m *MemoryBackend) AddUser(user appwrite.User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Email] = memoryUser{password: password, user: user}
}

// StartSession opens a session for userID directly and returns its secret.
func (m *MemoryBackend) StartSession(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newSessionLocked(userID)
}

// HasSession reports whether secret is still valid.
func (m *MemoryBackend) HasSession(secret string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[secret]
	return ok
}

// SessionCount returns the number of live sessions.
func (m *MemoryBackend) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Seed stores doc as-is, stamping timestamps when missing.
func (m *MemoryBackend) Seed(databaseID, collectionID string, doc appwrite.Document) appwrite.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		doc.ID = m.nextIDLocked()
	}
	now := m.tickLocked()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.Data == nil {
		doc.Data = map[string]interface{}{}
	}
	doc.DatabaseID = databaseID
	doc.CollectionID = collectionID

	m.collectionLocked(databaseID, collectionID)[doc.ID] = cloneDocument(doc)
	return cloneDocument(doc)
}

// Document returns a stored document.
func (m *MemoryBackend) Document(databaseID, collectionID, id string) (appwrite.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collectionLocked(databaseID, collectionID)[id]
	return cloneDocument(doc), ok
}

// Count returns the number of documents in a collection.
func (m *MemoryBackend) Count(databaseID, collectionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collectionLocked(databaseID, collectionID))
}

// Calls returns how often op was invoked.
func (m *MemoryBackend) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// FailOn makes every subsequent call of op fail with err. A nil err clears the failure.
func (m *MemoryBackend) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// CreateEmailPasswordSession opens a session by credential.
func (m *MemoryBackend) CreateEmailPasswordSession(_ context.Context, email, password string) (appwrite.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpCreateSession); err != nil {
		return appwrite.Session{}, err
	}

	entry, ok := m.users[email]
	if !ok || entry.password != password {
		return appwrite.Session{}, &appwrite.Error{
			Code:    http.StatusUnauthorized,
			Type:    "user_invalid_credentials",
			Message: "Invalid credentials. Please check the email and password.",
		}
	}

	secret := m.newSessionLocked(entry.user.ID)
	return appwrite.Session{ID: "sess_" + secret, UserID: entry.user.ID, Secret: secret}, nil
}

// Get returns the user bound to secret.
func (m *MemoryBackend) Get(_ context.Context, secret string) (appwrite.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpGetAccount); err != nil {
		return appwrite.User{}, err
	}

	userID, ok := m.sessions[secret]
	if !ok {
		return appwrite.User{}, unauthorized()
	}
	for _, entry := range m.users {
		if entry.user.ID == userID {
			return entry.user, nil
		}
	}
	return appwrite.User{}, unauthorized()
}

// DeleteSession removes the session bound to secret.
func (m *MemoryBackend) DeleteSession(_ context.Context, secret, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpDeleteSession); err != nil {
		return err
	}

	if _, ok := m.sessions[secret]; !ok {
		return unauthorized()
	}
	delete(m.sessions, secret)
	return nil
}

// ListDocuments applies equal filters, creation-time ordering and cursor paging. Without a limit it
// returns the backend's default page.
func (m *MemoryBackend) ListDocuments(_ context.Context, databaseID, collectionID string, queries []appwrite.Query) (appwrite.DocumentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpList); err != nil {
		return appwrite.DocumentList{}, err
	}

	docs := make([]appwrite.Document, 0)
	for _, doc := range m.collectionLocked(databaseID, collectionID) {
		if matches(doc, queries) {
			docs = append(docs, cloneDocument(doc))
		}
	}

	descending := false
	for _, query := range queries {
		if query.Attribute != appwrite.AttrCreatedAt {
			continue
		}
		switch query.Method {
		case appwrite.QueryOrderDesc:
			descending = true
		case appwrite.QueryOrderAsc:
			descending = false
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			if descending {
				return docs[i].CreatedAt.After(docs[j].CreatedAt)
			}
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	total := len(docs)
	limit := appwrite.DefaultPageSize
	for _, query := range queries {
		switch query.Method {
		case appwrite.QueryLimit:
			if value := query.LimitValue(); value > 0 {
				limit = value
			}
		case appwrite.QueryCursorAfter:
			cursor := query.CursorValue()
			position := -1
			for i, doc := range docs {
				if doc.ID == cursor {
					position = i
					break
				}
			}
			if position < 0 {
				return appwrite.DocumentList{}, &appwrite.Error{
					Code:    http.StatusBadRequest,
					Type:    "general_cursor_not_found",
					Message: fmt.Sprintf("Document '%s' for the 'cursor' value not found.", cursor),
				}
			}
			docs = docs[position+1:]
		}
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	return appwrite.DocumentList{Total: total, Documents: docs}, nil
}

// GetDocument fetches a document by id.
func (m *MemoryBackend) GetDocument(_ context.Context, databaseID, collectionID, documentID string) (appwrite.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpGet); err != nil {
		return appwrite.Document{}, err
	}

	doc, ok := m.collectionLocked(databaseID, collectionID)[documentID]
	if !ok {
		return appwrite.Document{}, documentNotFound()
	}
	return cloneDocument(doc), nil
}

// CreateDocument stores a new document.
func (m *MemoryBackend) CreateDocument(_ context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (appwrite.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpCreate); err != nil {
		return appwrite.Document{}, err
	}

	if documentID == "" || documentID == appwrite.UniqueID() {
		documentID = m.nextIDLocked()
	}
	collection := m.collectionLocked(databaseID, collectionID)
	if _, exists := collection[documentID]; exists {
		return appwrite.Document{}, &appwrite.Error{
			Code:    http.StatusConflict,
			Type:    "document_already_exists",
			Message: "Document with the requested ID already exists.",
		}
	}

	now := m.tickLocked()
	doc := appwrite.Document{
		ID:           documentID,
		DatabaseID:   databaseID,
		CollectionID: collectionID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Permissions:  append([]string{}, permissions...),
		Data:         cloneData(data),
	}
	collection[documentID] = doc
	return cloneDocument(doc), nil
}

// UpdateDocument merges data and replaces permissions when non-nil.
func (m *MemoryBackend) UpdateDocument(_ context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (appwrite.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpUpdate); err != nil {
		return appwrite.Document{}, err
	}

	collection := m.collectionLocked(databaseID, collectionID)
	doc, ok := collection[documentID]
	if !ok {
		return appwrite.Document{}, documentNotFound()
	}

	for key, value := range data {
		doc.Data[key] = value
	}
	if permissions != nil {
		doc.Permissions = append([]string{}, permissions...)
	}
	doc.UpdatedAt = m.tickLocked()
	collection[documentID] = doc
	return cloneDocument(doc), nil
}

// DeleteDocument removes a document.
func (m *MemoryBackend) DeleteDocument(_ context.Context, databaseID, collectionID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(OpDelete); err != nil {
		return err
	}

	collection := m.collectionLocked(databaseID, collectionID)
	if _, ok := collection[documentID]; !ok {
		return documentNotFound()
	}
	delete(collection, documentID)
	return nil
}

func (m *MemoryBackend) enterLocked(op string) error {
	m.calls[op]++
	return m.failures[op]
}

func (m *MemoryBackend) tickLocked() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemoryBackend) nextIDLocked() string {
	m.seq++
	return fmt.Sprintf("doc_%04d", m.seq)
}

func (m *MemoryBackend) newSessionLocked(userID string) string {
	m.seq++
	secret := fmt.Sprintf("secret_%04d", m.seq)
	m.sessions[secret] = userID
	return secret
}

func (m *MemoryBackend) collectionLocked(databaseID, collectionID string) map[string]appwrite.Document {
	key := databaseID + "/" + collectionID
	collection, ok := m.docs[key]
	if !ok {
		collection = make(map[string]appwrite.Document)
		m.docs[key] = collection
	}
	return collection
}

func matches(doc appwrite.Document, queries []appwrite.Query) bool {
	for _, query := range queries {
		if query.Method != appwrite.QueryEqual {
			continue
		}
		value := fmt.Sprint(doc.Data[query.Attribute])
		found := false
		for _, candidate := range query.Values {
			if fmt.Sprint(candidate) == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cloneDocument(doc appwrite.Document) appwrite.Document {
	doc.Data = cloneData(doc.Data)
	if doc.Permissions != nil {
		doc.Permissions = append([]string{}, doc.Permissions...)
	}
	return doc
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		out[key] = value
	}
	return out
}

func documentNotFound() error {
	return &appwrite.Error{
		Code:    http.StatusNotFound,
		Type:    "document_not_found",
		Message: "Document with the requested ID could not be found.",
	}
}

func unauthorized() error {
	return &appwrite.Error{
		Code:    http.StatusUnauthorized,
		Type:    "general_unauthorized_scope",
		Message: "User (role: guests) missing scope (account)",
	}
}
