package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request types ---

// productForm is bound from the HTML form or a JSON body. Dates and price
// arrive as text and are parsed by toProductInput.
type productForm struct {
	ID           int64  `form:"id"            json:"id"`
	Name         string `form:"name"          json:"name"          validate:"required,max=200"`
	Price        string `form:"price"         json:"price"         validate:"required,numeric"`
	StartDate    string `form:"start_date"    json:"start_date"    validate:"required"`
	DurationDays int    `form:"duration_days" json:"duration_days" validate:"gte=0"`
	CategoryID   int64  `form:"category_id"   json:"category_id"   validate:"required,gt=0"`
}

type categoryForm struct {
	Name string `form:"name" json:"name" validate:"required,max=100"`
}

type loginForm struct {
	Email     string `form:"email"     json:"email"     validate:"required,email"`
	Password  string `form:"password"  json:"password"  validate:"required"`
	ReturnURL string `form:"ReturnUrl" json:"return_url" query:"ReturnUrl"`
}

type registerForm struct {
	Email           string `form:"email"            json:"email"            validate:"required,email"`
	Password        string `form:"password"         json:"password"         validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
}

// --- Response types ---

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Price        string     `json:"price"`
	StartDate    time.Time  `json:"start_date"`
	DurationDays int        `json:"duration_days"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CategoryID   int64      `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by,omitempty"`
	Live         bool       `json:"live"`
}

type catalogResponse struct {
	Products           []productResponse  `json:"products"`
	Categories         []categoryResponse `json:"categories"`
	SelectedCategoryID *int64             `json:"selected_category_id,omitempty"`
	Admin              bool               `json:"-"`
}

type authResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	User      *userInfo `json:"user,omitempty"`
}

type userInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type deletedResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// --- View models (HTML only) ---

type productFormView struct {
	Form       productForm
	Errors     map[string]string
	Categories []categoryResponse
	Edit       bool
}

type categoryFormView struct {
	Form   categoryForm
	Errors map[string]string
}

type loginView struct {
	Form  loginForm
	Error string
}

type registerView struct {
	Form   registerForm
	Errors map[string]string
}

// ErrorView feeds the generic error page.
type ErrorView struct {
	Status    int    `json:"status"`
	Message   string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
