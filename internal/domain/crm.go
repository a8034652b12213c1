package domain

import "time"

// The CRM record models below back the exportable entity tables. The
// export pipeline reads them column-wise; the structs exist for schema
// migration and seeding. Archived and Deleted are plain flags rather
// than gorm soft deletes so that exports can opt into them.

// Contact is a person record.
type Contact struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	FirstName string    `gorm:"type:text" json:"first_name"`
	LastName  string    `gorm:"type:text" json:"last_name"`
	Email     string    `gorm:"type:text;index" json:"email"`
	Phone     string    `gorm:"type:text" json:"phone"`
	CompanyID string    `gorm:"type:text;index" json:"company_id"`
	Owner     string    `gorm:"type:text" json:"owner"`
	Archived  bool      `gorm:"default:false" json:"archived"`
	Deleted   bool      `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }

// Company is an organization record.
type Company struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;index" json:"name"`
	Website   string    `gorm:"type:text" json:"website"`
	Industry  string    `gorm:"type:text" json:"industry"`
	Employees int       `json:"employees"`
	Owner     string    `gorm:"type:text" json:"owner"`
	Archived  bool      `gorm:"default:false" json:"archived"`
	Deleted   bool      `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

// Deal is a sales opportunity record.
type Deal struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	Name      string     `gorm:"type:text" json:"name"`
	CompanyID string     `gorm:"type:text;index" json:"company_id"`
	ContactID string     `gorm:"type:text;index" json:"contact_id"`
	Stage     string     `gorm:"type:text;index" json:"stage"`
	Amount    float64    `json:"amount"`
	CloseDate *time.Time `json:"close_date,omitempty"`
	Archived  bool       `gorm:"default:false" json:"archived"`
	Deleted   bool       `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Deal) TableName() string { return "deals" }

// CRMTask is a to-do item attached to a contact or deal.
type CRMTask struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	Title     string     `gorm:"type:text" json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Done      bool       `gorm:"default:false" json:"done"`
	Priority  string     `gorm:"type:text" json:"priority"`
	ContactID string     `gorm:"type:text;index" json:"contact_id"`
	Archived  bool       `gorm:"default:false" json:"archived"`
	Deleted   bool       `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (CRMTask) TableName() string { return "crm_tasks" }

// Activity is a logged interaction (call, meeting, note).
type Activity struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	Type       string    `gorm:"type:text;index" json:"type"`
	Subject    string    `gorm:"type:text" json:"subject"`
	ContactID  string    `gorm:"type:text;index" json:"contact_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Archived   bool      `gorm:"default:false" json:"archived"`
	Deleted    bool      `gorm:"default:false" json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Activity) TableName() string { return "activities" }

// EmailMessage is a tracked email tied to a contact.
type EmailMessage struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Subject     string    `gorm:"type:text" json:"subject"`
	FromAddress string    `gorm:"type:text" json:"from_address"`
	ToAddress   string    `gorm:"type:text" json:"to_address"`
	ContactID   string    `gorm:"type:text;index" json:"contact_id"`
	SentAt      time.Time `json:"sent_at"`
	Archived    bool      `gorm:"default:false" json:"archived"`
	Deleted     bool      `gorm:"default:false" json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EmailMessage) TableName() string { return "email_messages" }

// CalendarEvent is a scheduled meeting or appointment.
type CalendarEvent struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Title     string    `gorm:"type:text" json:"title"`
	Location  string    `gorm:"type:text" json:"location"`
	Organizer string    `gorm:"type:text" json:"organizer"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Archived  bool      `gorm:"default:false" json:"archived"`
	Deleted   bool      `gorm:"default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CalendarEvent) TableName() string { return "calendar_events" }
