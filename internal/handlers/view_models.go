package handlers

import (
	"time"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
)

// Page is the data every console page's header needs
type Page struct {
	Title     string
	User      *models.User
	CSRFToken string
	Nav       []models.Kind
	Active    string
	Flash     string
}

type LoginViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Success        string
}

type RegisterViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Name           string
}

type ForgotPasswordViewData struct {
	Page
	Success string
	Error   string
}

type ResetPasswordViewData struct {
	Page
	Token string
	Error string
}

type ErrorViewData struct {
	Page
	Message string
	BackURL string
}

type DashboardViewData struct {
	Page
	Dashboard *service.Dashboard
}

// RecordRow is one record in a list table
type RecordRow struct {
	ID    string
	Name  string
	Cells []string
}

type RecordListViewData struct {
	Page
	Kind    models.Kind
	Query   string
	Columns []string
	Rows    []RecordRow
	Error   string
}

type RecordViewData struct {
	Page
	Kind            models.Kind
	RecordID        string
	Name            string
	Fields          []FieldView
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ChildrenEnabled bool
	Children        []models.Child
}

// ZoneView describes the zonal leader found for the zone on a unit leader form
type ZoneView struct {
	Message string
	Found   bool
}

// ChildRow is one editable child on the member registration form
type ChildRow struct {
	Index int
	models.Child
}

type RecordFormViewData struct {
	Page
	Kind            models.Kind
	RecordID        string
	Action          string
	Fields          []FieldView
	Error           string
	ErrorField      string
	Zone            *ZoneView
	ChildrenEnabled bool
	Children        []ChildRow
	GenderOptions   []models.Option
	SubmitDisabled  bool
}

type AdminBackupViewData struct {
	Page
	S3Enabled bool
	Bucket    string
	Error     string
	Success   string
}
