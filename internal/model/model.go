package model

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "ADMIN"
	RoleHR     = "HR"
	RoleViewer = "VIEWER"
)

// RoleInSet reports whether role is a case-insensitive member of allowed.
func RoleInSet(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(role, candidate) {
			return true
		}
	}
	return false
}

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         string
	EmployeeID   *int64
	Active       bool
	CreatedAt    time.Time
}

type Department struct {
	DepartmentID   int64
	DepartmentName string
	Description    string
}

type Position struct {
	PositionID int64
	Title      string
	PayGrade   string
}

type Employee struct {
	EmployeeID int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Department Department
	Position   Position
	HireDate   time.Time
	Salary     float64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeDraft carries the mutable fields accepted on create and update.
// Department and position are referenced by id and resolved at write time.
type EmployeeDraft struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	DepartmentID int64
	PositionID   int64
	HireDate     time.Time
	Salary       float64
}

type PastEmployee struct {
	PastEmployeeID     int64
	OriginalEmployeeID int64
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Department         Department
	Position           Position
	HireDate           time.Time
	Salary             float64
	TerminationDate    time.Time
	TerminationReason  string
	ArchivedAt         time.Time
}

// EmployeeFilter holds the optional search criteria. Zero values mean
// "criterion not supplied" and contribute no predicate.
type EmployeeFilter struct {
	Name       string
	Department string
	Position   string
	HireDate   *time.Time
}
