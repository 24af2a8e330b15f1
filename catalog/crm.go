package catalog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/prognoshealth/integrationproxy/soql"
)

const (
	defaultLimit = 50
	maxLimit     = 2000
)

var (
	objectType = operation.Requirement{
		Field:   "objectType",
		Message: "Object type is required",
		Format:  engine.FormatAPIName,
		Invalid: "Invalid object type",
	}
	recordID = operation.Requirement{
		Field:   "recordId",
		Message: "Record ID is required",
		Format:  engine.FormatRecordID,
		Invalid: "Invalid record ID",
	}
	ownerID = operation.Requirement{
		Field:   "ownerId",
		Message: "Owner ID is required",
		Format:  engine.FormatRecordID,
		Invalid: "Invalid owner ID",
	}
)

// created maps a Salesforce create result.
var created = operation.Shape{
	Fields: []operation.Field{
		{From: "id", To: "id"},
		{From: "success", To: "success", Default: true},
	},
}

// queried maps a Salesforce query result.
var queried = operation.Shape{
	Fields: []operation.Field{
		{From: "records", To: "records", Default: []any{}},
		{From: "totalSize", To: "totalSize", Default: 0},
		{From: "done", To: "done", Default: true},
	},
}

// taskFields are the Task fields a caller may set.
var taskFields = []string{
	"Subject",
	"Description",
	"ActivityDate",
	"Status",
	"Priority",
	"WhoId",
	"WhatId",
	"OwnerId",
	"Type",
}

// CRM returns the Salesforce descriptors. All of them authenticate with the
// caller's session token against the caller's instance url.
func CRM() []*operation.Descriptor {
	return []*operation.Descriptor{
		{
			Name:     "crm.account.create",
			Route:    "/crm/accounts/create",
			Platform: operation.CRM,
			Kind:     operation.Create,
			Auth:     operation.AuthCaller,
			Method:   http.MethodPost,
			Path:     "/sobjects/Account",
			Required: []operation.Requirement{
				{Field: "data", Message: "Account data is required"},
				{Field: "data.Name", Message: "Account Name is required"},
			},
			Body:             dataBody,
			Shape:            created,
			PassthroughError: true,
		},
		{
			Name:     "crm.contact.create",
			Route:    "/crm/contacts/create",
			Platform: operation.CRM,
			Kind:     operation.Create,
			Auth:     operation.AuthCaller,
			Method:   http.MethodPost,
			Path:     "/sobjects/Contact",
			Required: []operation.Requirement{
				{Field: "data", Message: "Contact data is required"},
				{Field: "data.LastName", Message: "Contact LastName is required"},
			},
			Body:             dataBody,
			Shape:            created,
			PassthroughError: true,
		},
		{
			Name:     "crm.task.create",
			Route:    "/crm/tasks/create",
			Platform: operation.CRM,
			Kind:     operation.Create,
			Auth:     operation.AuthCaller,
			Method:   http.MethodPost,
			Path:     "/sobjects/Task",
			Required: []operation.Requirement{
				{Field: "data", Message: "Task data is required"},
				{Field: "data.Subject", Message: "Task Subject is required"},
			},
			Body:           taskBody,
			Shape:          created,
			FailureMessage: "Failed to create task",
		},
		{
			Name:     "crm.record.create",
			Route:    "/crm/records/create",
			Platform: operation.CRM,
			Kind:     operation.Create,
			Auth:     operation.AuthCaller,
			Method:   http.MethodPost,
			Path:     "/sobjects/{objectType}",
			Required: []operation.Requirement{
				objectType,
				{Field: "data", Message: "Record data is required"},
			},
			Body:             dataBody,
			Shape:            created,
			PassthroughError: true,
		},
		{
			Name:     "crm.record.get",
			Route:    "/crm/records/get",
			Platform: operation.CRM,
			Kind:     operation.Read,
			Auth:     operation.AuthCaller,
			Method:   http.MethodGet,
			Path:     "/sobjects/{objectType}/{recordId}",
			Required: []operation.Requirement{objectType, recordID},
			Query:    recordFields,
			Shape: operation.Shape{
				Fields: []operation.Field{{From: "", To: "record"}},
			},
			PassthroughError: true,
		},
		{
			Name:     "crm.record.update",
			Route:    "/crm/records/update",
			Platform: operation.CRM,
			Kind:     operation.Update,
			Auth:     operation.AuthCaller,
			Method:   http.MethodPatch,
			Path:     "/sobjects/{objectType}/{recordId}",
			Required: []operation.Requirement{
				objectType,
				recordID,
				{Field: "data", Message: "Update data is required"},
			},
			Body:           dataBody,
			Shape:          operation.Shape{Success: true},
			FailureMessage: "Failed to update record",
		},
		{
			Name:           "crm.record.delete",
			Route:          "/crm/records/delete",
			Platform:       operation.CRM,
			Kind:           operation.Delete,
			Auth:           operation.AuthCaller,
			Method:         http.MethodDelete,
			Path:           "/sobjects/{objectType}/{recordId}",
			Required:       []operation.Requirement{objectType, recordID},
			Shape:          operation.Shape{Success: true},
			FailureMessage: "Failed to delete record",
		},
		{
			// Deleting the ContentDocument removes its versions and links.
			Name:     "crm.file.delete",
			Route:    "/crm/files/delete",
			Platform: operation.CRM,
			Kind:     operation.Delete,
			Auth:     operation.AuthCaller,
			Method:   http.MethodDelete,
			Path:     "/sobjects/ContentDocument/{documentId}",
			Required: []operation.Requirement{{
				Field:   "documentId",
				Message: "Document ID is required",
				Format:  engine.FormatRecordID,
				Invalid: "Invalid document ID",
			}},
			Shape:          operation.Shape{Success: true},
			FailureMessage: "Failed to delete file",
		},
		{
			Name:             "crm.accounts.list",
			Route:            "/crm/accounts/list",
			Platform:         operation.CRM,
			Kind:             operation.Query,
			Auth:             operation.AuthCaller,
			Method:           http.MethodGet,
			Path:             "/query",
			Query:            accountsQuery,
			Shape:            queried,
			PassthroughError: true,
		},
		{
			Name:             "crm.opportunities.list",
			Route:            "/crm/opportunities/list",
			Platform:         operation.CRM,
			Kind:             operation.Query,
			Auth:             operation.AuthCaller,
			Method:           http.MethodGet,
			Path:             "/query",
			Required:         []operation.Requirement{ownerID},
			Query:            opportunitiesQuery,
			Shape:            queried,
			PassthroughError: true,
		},
		{
			Name:             "crm.tasks.list",
			Route:            "/crm/tasks/list",
			Platform:         operation.CRM,
			Kind:             operation.Query,
			Auth:             operation.AuthCaller,
			Method:           http.MethodGet,
			Path:             "/query",
			Required:         []operation.Requirement{ownerID},
			Query:            tasksQuery,
			Shape:            queried,
			PassthroughError: true,
		},
		{
			Name:     "crm.contacts.search",
			Route:    "/crm/contacts/search",
			Platform: operation.CRM,
			Kind:     operation.Query,
			Auth:     operation.AuthCaller,
			Method:   http.MethodGet,
			Path:     "/query",
			Required: []operation.Requirement{
				{Field: "searchTerm", Message: "Search term is required"},
			},
			Query:            contactsQuery,
			Shape:            queried,
			PassthroughError: true,
		},
		{
			// The expression is opaque: it is forwarded whole and never parsed.
			Name:     "crm.query",
			Route:    "/crm/query",
			Platform: operation.CRM,
			Kind:     operation.Query,
			Auth:     operation.AuthCaller,
			Method:   http.MethodGet,
			Path:     "/query",
			Required: []operation.Requirement{
				{Field: "query", Message: "Query is required"},
			},
			Query: func(inv *operation.Invocation) (url.Values, error) {
				return url.Values{"q": {inv.Payload.String("query")}}, nil
			},
			Shape:            queried,
			PassthroughError: true,
		},
	}
}

func dataBody(inv *operation.Invocation) (any, error) {
	return inv.Payload.Object("data"), nil
}

func taskBody(inv *operation.Invocation) (any, error) {
	data := inv.Payload.Object("data")
	body := map[string]any{}

	for _, f := range taskFields {
		if v, ok := data[f]; ok && v != nil {
			body[f] = v
		}
	}

	return body, nil
}

func recordFields(inv *operation.Invocation) (url.Values, error) {
	fields := inv.Payload.Strings("fields")
	if len(fields) == 0 {
		return nil, nil
	}

	for _, f := range fields {
		if !soql.ValidField(f) {
			return nil, operation.Invalid("Invalid field name: " + f)
		}
	}

	return url.Values{"fields": {strings.Join(fields, ",")}}, nil
}

func accountsQuery(inv *operation.Invocation) (url.Values, error) {
	q := soql.Select("Id", "Name", "Industry", "Phone", "Website", "BillingCity", "BillingState", "OwnerId", "LastModifiedDate").
		From("Account")

	if owner := inv.Payload.String("ownerId"); owner != "" {
		q.WhereID("OwnerId", owner)
	}

	return build(q.OrderBy("Name ASC").Limit(limit(inv.Payload)))
}

func opportunitiesQuery(inv *operation.Invocation) (url.Values, error) {
	q := soql.Select("Id", "Name", "StageName", "Amount", "CloseDate", "Probability", "AccountId", "Account.Name", "OwnerId").
		From("Opportunity").
		WhereID("OwnerId", inv.Payload.String("ownerId"))

	if !flag(inv.Payload, "includeClosed") {
		q.WhereBool("IsClosed", false)
	}

	return build(q.OrderBy("CloseDate ASC").Limit(limit(inv.Payload)))
}

func tasksQuery(inv *operation.Invocation) (url.Values, error) {
	q := soql.Select("Id", "Subject", "Status", "Priority", "ActivityDate", "WhoId", "WhatId", "Description").
		From("Task").
		WhereID("OwnerId", inv.Payload.String("ownerId"))

	if !flag(inv.Payload, "includeClosed") {
		q.WhereBool("IsClosed", false)
	}

	return build(q.OrderBy("ActivityDate ASC NULLS LAST").Limit(limit(inv.Payload)))
}

func contactsQuery(inv *operation.Invocation) (url.Values, error) {
	q := soql.Select("Id", "FirstName", "LastName", "Name", "Email", "Phone", "MobilePhone", "Title", "AccountId", "Account.Name").
		From("Contact").
		WhereAnyContains(inv.Payload.String("searchTerm"), "Name", "Email", "Phone", "MobilePhone")

	if account := inv.Payload.String("accountId"); account != "" {
		q.WhereID("AccountId", account)
	}

	return build(q.OrderBy("LastName ASC").Limit(limit(inv.Payload)))
}

// build renders q as the q parameter of the query resource. Values rejected by
// the builder are caller errors.
func build(q *soql.Query) (url.Values, error) {
	expression, err := q.Build()
	if errors.Cause(err) == soql.ErrInvalidValue {
		return nil, operation.Invalid("Invalid query parameter: " + err.Error())
	}

	if err != nil {
		return nil, err
	}

	return url.Values{"q": {expression}}, nil
}

func limit(p *operation.Payload) int {
	n, err := strconv.Atoi(p.String("limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}

	if n > maxLimit {
		return maxLimit
	}

	return n
}

func flag(p *operation.Payload, path string) bool {
	v, _ := strconv.ParseBool(p.String(path))
	return v
}
