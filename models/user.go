package models

// User is the account record returned by the backend.
type User struct {
	ID            int    `json:"user_id"`
	Name          string `json:"user_name"`
	Email         string `json:"email"`
	IsManager     bool   `json:"is_manager"`
	AccountStatus string `json:"account_status,omitempty"`
	ManagerID     *int   `json:"manager_id,omitempty"` // Nullable; set for team members
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up payload forwarded to the backend.
type Registration struct {
	Name      string `json:"user_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	IsManager bool   `json:"is_manager"`
	ManagerID *int   `json:"manager_id,omitempty"`
}
