package store

import "time"

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Team.Email is the team's inbox alias; empty when none is configured.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Email string `json:"email,omitempty"`
}

type TeamMember struct {
	TeamID string `json:"teamId"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "DRAFT"
	DocumentPending   DocumentStatus = "PENDING"
	DocumentCompleted DocumentStatus = "COMPLETED"
	DocumentRejected  DocumentStatus = "REJECTED"
	DocumentError     DocumentStatus = "ERROR"
)

var DocumentStatuses = []DocumentStatus{DocumentDraft, DocumentPending, DocumentCompleted, DocumentRejected, DocumentError}

type RecipientRole string

const (
	RecipientSigner   RecipientRole = "SIGNER"
	RecipientApprover RecipientRole = "APPROVER"
	RecipientViewer   RecipientRole = "VIEWER"
	RecipientCC       RecipientRole = "CC"
)

type SigningStatus string

const (
	NotSigned SigningStatus = "NOT_SIGNED"
	Signed    SigningStatus = "SIGNED"
	Rejected  SigningStatus = "REJECTED"
)

type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Status      DocumentStatus `json:"status"`
	Visibility  string         `json:"visibility"`
	UserID      string         `json:"userId"`
	TeamID      *string        `json:"teamId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
	DeletedAt   *time.Time     `json:"-"`
	Sender      User           `json:"sender"`
	Recipients  []Recipient    `json:"recipients"`
}

type Recipient struct {
	ID            string        `json:"id"`
	DocumentID    string        `json:"documentId"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Role          RecipientRole `json:"role"`
	SigningStatus SigningStatus `json:"signingStatus"`
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	Priority    TaskPriority   `json:"priority"`
	Visibility  string         `json:"visibility"`
	UserID      string         `json:"userId"`
	TeamID      string         `json:"teamId"`
	DueDate     *time.Time     `json:"dueDate"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   *time.Time     `json:"-"`
	Assignees   []TaskAssignee `json:"assignees"`
}

type TaskAssignee struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type ContractStatus string

const (
	ContractActive      ContractStatus = "ACTIVE"
	ContractExpired     ContractStatus = "EXPIRED"
	ContractUnspecified ContractStatus = "UNSPECIFIED"
)

var ContractStatuses = []ContractStatus{ContractActive, ContractExpired, ContractUnspecified}

type Contract struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	FileName   string         `json:"fileName"`
	Artists    string         `json:"artists"`
	Status     ContractStatus `json:"status"`
	Visibility string         `json:"visibility"`
	StartDate  *time.Time     `json:"startDate"`
	EndDate    *time.Time     `json:"endDate"`
	UserID     string         `json:"userId"`
	TeamID     string         `json:"teamId"`
	CreatedAt  time.Time      `json:"createdAt"`
	DeletedAt  *time.Time     `json:"-"`
}

type ReleaseType string

const (
	ReleaseAlbum  ReleaseType = "ALBUM"
	ReleaseEP     ReleaseType = "EP"
	ReleaseSingle ReleaseType = "SINGLE"
)

var ReleaseTypes = []ReleaseType{ReleaseAlbum, ReleaseEP, ReleaseSingle}

type Release struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Type        ReleaseType `json:"type"`
	UPC         string      `json:"upc"`
	Visibility  string      `json:"visibility"`
	ReleaseDate *time.Time  `json:"releaseDate"`
	UserID      string      `json:"userId"`
	TeamID      string      `json:"teamId"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type CatalogType string

const (
	CatalogAudio  CatalogType = "AUDIO"
	CatalogVideo  CatalogType = "VIDEO"
	CatalogLyrics CatalogType = "LYRICS"
)

var CatalogTypes = []CatalogType{CatalogAudio, CatalogVideo, CatalogLyrics}

type CatalogRow struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Artist        string      `json:"artist"`
	ISRC          string      `json:"isrc"`
	CatalogNumber string      `json:"catalogNumber"`
	Type          CatalogType `json:"type"`
	Visibility    string      `json:"visibility"`
	UserID        string      `json:"userId"`
	TeamID        string      `json:"teamId"`
	CreatedAt     time.Time   `json:"createdAt"`
}
