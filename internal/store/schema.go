package store

import "recordhub/api/internal/predicate"

// Logical field names shared by predicates, ordering and grouping.
const (
	FieldID            = "id"
	FieldTitle         = "title"
	FieldStatus        = "status"
	FieldVisibility    = "visibility"
	FieldUserID        = "userId"
	FieldTeamID        = "teamId"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
	FieldCompletedAt   = "completedAt"
	FieldDeletedAt     = "deletedAt"
	FieldDocumentID    = "documentId"
	FieldTaskID        = "taskId"
	FieldName          = "name"
	FieldEmail         = "email"
	FieldRole          = "role"
	FieldSigningStatus = "signingStatus"
	FieldDescription   = "description"
	FieldPriority      = "priority"
	FieldDueDate       = "dueDate"
	FieldFileName      = "fileName"
	FieldArtists       = "artists"
	FieldStartDate     = "startDate"
	FieldEndDate       = "endDate"
	FieldArtist        = "artist"
	FieldType          = "type"
	FieldUPC           = "upc"
	FieldReleaseDate   = "releaseDate"
	FieldISRC          = "isrc"
	FieldCatalogNumber = "catalogNumber"
)

const (
	RelRecipients = "recipients"
	RelSender     = "sender"
	RelAssignees  = "assignees"
)

var UserSchema = &predicate.Schema{
	Table: "users",
	Columns: map[string]string{
		FieldID:    "id",
		FieldName:  "name",
		FieldEmail: "email",
	},
}

var RecipientSchema = &predicate.Schema{
	Table: "recipients",
	Columns: map[string]string{
		FieldID:            "id",
		FieldDocumentID:    "document_id",
		FieldEmail:         "email",
		FieldName:          "name",
		FieldRole:          "role",
		FieldSigningStatus: "signing_status",
	},
}

var DocumentSchema = &predicate.Schema{
	Table: "documents",
	Columns: map[string]string{
		FieldID:          "id",
		FieldTitle:       "title",
		FieldStatus:      "status",
		FieldVisibility:  "visibility",
		FieldUserID:      "user_id",
		FieldTeamID:      "team_id",
		FieldCreatedAt:   "created_at",
		FieldUpdatedAt:   "updated_at",
		FieldCompletedAt: "completed_at",
		FieldDeletedAt:   "deleted_at",
	},
	Relations: map[string]predicate.Relation{
		RelRecipients: {Target: RecipientSchema, LocalColumn: "id", RemoteColumn: "document_id"},
		RelSender:     {Target: UserSchema, LocalColumn: "user_id", RemoteColumn: "id"},
	},
}

var TaskAssigneeSchema = &predicate.Schema{
	Table: "task_assignees",
	Columns: map[string]string{
		FieldTaskID: "task_id",
		FieldUserID: "user_id",
		FieldEmail:  "email",
	},
}

var TaskSchema = &predicate.Schema{
	Table: "tasks",
	Columns: map[string]string{
		FieldID:          "id",
		FieldTitle:       "title",
		FieldDescription: "description",
		FieldStatus:      "status",
		FieldPriority:    "priority",
		FieldVisibility:  "visibility",
		FieldUserID:      "user_id",
		FieldTeamID:      "team_id",
		FieldDueDate:     "due_date",
		FieldCreatedAt:   "created_at",
		FieldUpdatedAt:   "updated_at",
		FieldDeletedAt:   "deleted_at",
	},
	Relations: map[string]predicate.Relation{
		RelAssignees: {Target: TaskAssigneeSchema, LocalColumn: "id", RemoteColumn: "task_id"},
	},
}

var ContractSchema = &predicate.Schema{
	Table: "contracts",
	Columns: map[string]string{
		FieldID:         "id",
		FieldTitle:      "title",
		FieldFileName:   "file_name",
		FieldArtists:    "artists",
		FieldStatus:     "status",
		FieldVisibility: "visibility",
		FieldStartDate:  "start_date",
		FieldEndDate:    "end_date",
		FieldUserID:     "user_id",
		FieldTeamID:     "team_id",
		FieldCreatedAt:  "created_at",
		FieldDeletedAt:  "deleted_at",
	},
}

var ReleaseSchema = &predicate.Schema{
	Table: "releases",
	Columns: map[string]string{
		FieldID:          "id",
		FieldTitle:       "title",
		FieldArtist:      "artist",
		FieldType:        "type",
		FieldUPC:         "upc",
		FieldVisibility:  "visibility",
		FieldReleaseDate: "release_date",
		FieldUserID:      "user_id",
		FieldTeamID:      "team_id",
		FieldCreatedAt:   "created_at",
	},
}

var CatalogSchema = &predicate.Schema{
	Table: "catalog_rows",
	Columns: map[string]string{
		FieldID:            "id",
		FieldTitle:         "title",
		FieldArtist:        "artist",
		FieldISRC:          "isrc",
		FieldCatalogNumber: "catalog_number",
		FieldType:          "type",
		FieldVisibility:    "visibility",
		FieldUserID:        "user_id",
		FieldTeamID:        "team_id",
		FieldCreatedAt:     "created_at",
	},
}

// The methods below let hydrated models be evaluated by predicate.Match.

func (u User) Value(field string) any {
	switch field {
	case FieldID:
		return u.ID
	case FieldName:
		return u.Name
	case FieldEmail:
		return u.Email
	}
	return nil
}

func (User) Related(string) []predicate.Row { return nil }

func (r Recipient) Value(field string) any {
	switch field {
	case FieldID:
		return r.ID
	case FieldDocumentID:
		return r.DocumentID
	case FieldEmail:
		return r.Email
	case FieldName:
		return r.Name
	case FieldRole:
		return r.Role
	case FieldSigningStatus:
		return r.SigningStatus
	}
	return nil
}

func (Recipient) Related(string) []predicate.Row { return nil }

func (d Document) Value(field string) any {
	switch field {
	case FieldID:
		return d.ID
	case FieldTitle:
		return d.Title
	case FieldStatus:
		return d.Status
	case FieldVisibility:
		return d.Visibility
	case FieldUserID:
		return d.UserID
	case FieldTeamID:
		return d.TeamID
	case FieldCreatedAt:
		return d.CreatedAt
	case FieldUpdatedAt:
		return d.UpdatedAt
	case FieldCompletedAt:
		return d.CompletedAt
	case FieldDeletedAt:
		return d.DeletedAt
	}
	return nil
}

func (d Document) Related(relation string) []predicate.Row {
	switch relation {
	case RelRecipients:
		rows := make([]predicate.Row, 0, len(d.Recipients))
		for _, r := range d.Recipients {
			rows = append(rows, r)
		}
		return rows
	case RelSender:
		if d.Sender.ID == "" {
			return nil
		}
		return []predicate.Row{d.Sender}
	}
	return nil
}

func (a TaskAssignee) Value(field string) any {
	switch field {
	case FieldTaskID:
		return a.TaskID
	case FieldUserID:
		return a.UserID
	case FieldEmail:
		return a.Email
	}
	return nil
}

func (TaskAssignee) Related(string) []predicate.Row { return nil }

func (t Task) Value(field string) any {
	switch field {
	case FieldID:
		return t.ID
	case FieldTitle:
		return t.Title
	case FieldDescription:
		return t.Description
	case FieldStatus:
		return t.Status
	case FieldPriority:
		return t.Priority
	case FieldVisibility:
		return t.Visibility
	case FieldUserID:
		return t.UserID
	case FieldTeamID:
		return t.TeamID
	case FieldDueDate:
		return t.DueDate
	case FieldCreatedAt:
		return t.CreatedAt
	case FieldUpdatedAt:
		return t.UpdatedAt
	case FieldDeletedAt:
		return t.DeletedAt
	}
	return nil
}

func (t Task) Related(relation string) []predicate.Row {
	if relation != RelAssignees {
		return nil
	}
	rows := make([]predicate.Row, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		rows = append(rows, a)
	}
	return rows
}

func (c Contract) Value(field string) any {
	switch field {
	case FieldID:
		return c.ID
	case FieldTitle:
		return c.Title
	case FieldFileName:
		return c.FileName
	case FieldArtists:
		return c.Artists
	case FieldStatus:
		return c.Status
	case FieldVisibility:
		return c.Visibility
	case FieldStartDate:
		return c.StartDate
	case FieldEndDate:
		return c.EndDate
	case FieldUserID:
		return c.UserID
	case FieldTeamID:
		return c.TeamID
	case FieldCreatedAt:
		return c.CreatedAt
	case FieldDeletedAt:
		return c.DeletedAt
	}
	return nil
}

func (Contract) Related(string) []predicate.Row { return nil }

func (r Release) Value(field string) any {
	switch field {
	case FieldID:
		return r.ID
	case FieldTitle:
		return r.Title
	case FieldArtist:
		return r.Artist
	case FieldType:
		return r.Type
	case FieldUPC:
		return r.UPC
	case FieldVisibility:
		return r.Visibility
	case FieldReleaseDate:
		return r.ReleaseDate
	case FieldUserID:
		return r.UserID
	case FieldTeamID:
		return r.TeamID
	case FieldCreatedAt:
		return r.CreatedAt
	}
	return nil
}

func (Release) Related(string) []predicate.Row { return nil }

func (c CatalogRow) Value(field string) any {
	switch field {
	case FieldID:
		return c.ID
	case FieldTitle:
		return c.Title
	case FieldArtist:
		return c.Artist
	case FieldISRC:
		return c.ISRC
	case FieldCatalogNumber:
		return c.CatalogNumber
	case FieldType:
		return c.Type
	case FieldVisibility:
		return c.Visibility
	case FieldUserID:
		return c.UserID
	case FieldTeamID:
		return c.TeamID
	case FieldCreatedAt:
		return c.CreatedAt
	}
	return nil
}

func (CatalogRow) Related(string) []predicate.Row { return nil }
