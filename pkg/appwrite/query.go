package appwrite

import "github.com/appwrite/sdk-for-go/query"

// Query methods understood by the backend.
const (
	QueryEqual       = "equal"
	QueryOrderDesc   = "orderDesc"
	QueryOrderAsc    = "orderAsc"
	QueryLimit       = "limit"
	QueryCursorAfter = "cursorAfter"
)

// AttrCreatedAt is the system creation timestamp attribute.
const AttrCreatedAt = "$createdAt"

// DefaultPageSize is the page the backend returns when a list carries no limit.
const DefaultPageSize = 25

// Query is a single list filter, ordering or paging clause.
type Query struct {
	Method    string
	Attribute string
	Values    []interface{}
}

// String encodes the query with the SDK's query builders.
func (q Query) String() string {
	switch q.Method {
	case QueryEqual:
		if len(q.Values) == 1 {
			return query.Equal(q.Attribute, q.Values[0])
		}
		return query.Equal(q.Attribute, q.Values)
	case QueryOrderDesc:
		return query.OrderDesc(q.Attribute)
	case QueryOrderAsc:
		return query.OrderAsc(q.Attribute)
	case QueryLimit:
		return query.Limit(q.LimitValue())
	case QueryCursorAfter:
		return query.CursorAfter(q.CursorValue())
	}
	return ""
}

// LimitValue returns the page size carried by a limit query, or 0.
func (q Query) LimitValue() int {
	if q.Method != QueryLimit || len(q.Values) == 0 {
		return 0
	}
	limit, _ := q.Values[0].(int)
	return limit
}

// CursorValue returns the document id carried by a cursor query, or "".
func (q Query) CursorValue() string {
	if q.Method != QueryCursorAfter || len(q.Values) == 0 {
		return ""
	}
	cursor, _ := q.Values[0].(string)
	return cursor
}

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...interface{}) Query {
	return Query{Method: QueryEqual, Attribute: attribute, Values: values}
}

// OrderDesc sorts by attribute, newest/largest first.
func OrderDesc(attribute string) Query {
	return Query{Method: QueryOrderDesc, Attribute: attribute}
}

// OrderAsc sorts by attribute, oldest/smallest first.
func OrderAsc(attribute string) Query {
	return Query{Method: QueryOrderAsc, Attribute: attribute}
}

// Limit caps the number of documents in one page.
func Limit(limit int) Query {
	return Query{Method: QueryLimit, Values: []interface{}{limit}}
}

// CursorAfter starts the page after the document with the given id.
func CursorAfter(documentID string) Query {
	return Query{Method: QueryCursorAfter, Values: []interface{}{documentID}}
}
