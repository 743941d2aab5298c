package models

// StudentRef is a denormalized view of a student owned by the external
// directory. The registration number is the stable identifier; the contact
// and cohort fields exist only for filtering and addressing.
type StudentRef struct {
	RegistrationNo string `json:"registration_no"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	College        string `json:"college"`
	Department     string `json:"department"`
	Year           int    `json:"year"`
}

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is the authoring-side identity, read-only for this service.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// CanAuthor reports whether the role may create or publish assessments.
func (u *User) CanAuthor() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
