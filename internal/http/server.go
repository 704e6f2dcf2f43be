package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bimandi111/employee-managment-system/internal/apperror"
	"github.com/Bimandi111/employee-managment-system/internal/auth"
	"github.com/Bimandi111/employee-managment-system/internal/config"
	"github.com/Bimandi111/employee-managment-system/internal/crypto"
	"github.com/Bimandi111/employee-managment-system/internal/model"
	"github.com/Bimandi111/employee-managment-system/internal/ratelimit"
)

const dateLayout = "2006-01-02"

// Store is the persistence contract the handlers depend on.
type Store interface {
	FindActiveByUsername(ctx context.Context, username string) (model.User, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id int64) (model.Employee, error)
	SearchEmployees(ctx context.Context, filter model.EmployeeFilter) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, draft model.EmployeeDraft) (model.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, draft model.EmployeeDraft) (model.Employee, error)
	ArchiveEmployee(ctx context.Context, id int64, reason string) (model.PastEmployee, error)
	ListPastEmployees(ctx context.Context) ([]model.PastEmployee, error)
	GetPastEmployee(ctx context.Context, id int64) (model.PastEmployee, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	ListPositions(ctx context.Context) ([]model.Position, error)
}

type Server struct {
	cfg     config.Config
	store   Store
	limiter *ratelimit.LoginLimiter
}

func NewServer(cfg config.Config, store Store, limiter *ratelimit.LoginLimiter) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		limiter: limiter,
	}
}

// Router wires every route with its middleware chain. The allowed-role set
// of each endpoint is declared here, next to the route it protects.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Get("/auth/test", s.handleTest)

	r.Route("/employees", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListEmployees)
		r.Get("/search", s.handleSearchEmployees)
		r.Get("/past", s.handleListPastEmployees)
		r.Get("/past/{id}", s.handleGetPastEmployee)
		r.Get("/{id}", s.handleGetEmployee)
		r.With(s.requireRoles(model.RoleAdmin, model.RoleHR)).Post("/", s.handleCreateEmployee)
		r.With(s.requireRoles(model.RoleAdmin, model.RoleHR)).Put("/{id}", s.handleUpdateEmployee)
		r.With(s.requireRoles(model.RoleAdmin)).Delete("/{id}", s.handleArchiveEmployee)
	})

	r.Route("/lookups", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/departments", s.handleListDepartments)
		r.Get("/positions", s.handleListPositions)
	})

	return r
}

// Envelope

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, apiResponse{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// writeAppError maps a taxonomy error to its status. Internal failures are
// logged with full context and surfaced as a generic 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperror.GetCode(err)
	var appErr *apperror.Error
	if code != apperror.CodeInternal && errors.As(err, &appErr) {
		writeError(w, apperror.HTTPStatus(code), appErr.Message)
		return
	}
	log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

// Middleware

type identity struct {
	Username string
	Role     string
}

type identityKey struct{}

func identityFromContext(ctx context.Context) *identity {
	value := ctx.Value(identityKey{})
	id, _ := value.(*identity)
	return id
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %s", requestID, r.Method, r.URL.RequestURI(), time.Since(start))
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header.")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token is invalid or has expired.")
			return
		}

		id := &identity{Username: claims.Username(), Role: claims.Role}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFromContext(r.Context())
			if id == nil || !model.RoleInSet(id.Role, roles) {
				writeError(w, http.StatusForbidden, "You do not have permission.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Auth

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	if !s.limiter.Allow(r.Context(), req.Username) {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	user, err := s.store.FindActiveByUsername(r.Context(), req.Username)
	if err != nil {
		if apperror.GetCode(err) == apperror.CodeNotFound {
			writeError(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		writeAppError(w, r, err)
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.TokenTTL, user.Username, user.Role)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	s.limiter.Reset(r.Context(), req.Username)
	writeSuccess(w, http.StatusOK, "Login successful.", loginData{
		Token:    token,
		Role:     user.Role,
		Username: user.Username,
	})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ok"})
}

// Employees

type departmentRef struct {
	DepartmentID int64 `json:"departmentId"`
}

type positionRef struct {
	PositionID int64 `json:"positionId"`
}

type employeeRequest struct {
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	HireDate   string         `json:"hireDate"`
	Salary     *float64       `json:"salary"`
	Department *departmentRef `json:"department"`
	Position   *positionRef   `json:"position"`
}

// validate normalizes the request into a draft and collects per-field
// problems. An empty map means the draft is usable.
func (req employeeRequest) validate(now time.Time) (model.EmployeeDraft, map[string]string) {
	problems := map[string]string{}
	draft := model.EmployeeDraft{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
	}

	if draft.FirstName == "" {
		problems["firstName"] = "First name is required."
	}
	if draft.LastName == "" {
		problems["lastName"] = "Last name is required."
	}
	if draft.Email == "" {
		problems["email"] = "Email is required."
	} else if !strings.Contains(draft.Email, "@") {
		problems["email"] = "Email must be valid."
	}

	if strings.TrimSpace(req.HireDate) == "" {
		problems["hireDate"] = "Hire date is required."
	} else {
		hireDate, err := time.Parse(dateLayout, strings.TrimSpace(req.HireDate))
		switch {
		case err != nil:
			problems["hireDate"] = "Hire date must be a valid date (YYYY-MM-DD)."
		case hireDate.After(now):
			problems["hireDate"] = "Hire date cannot be in the future."
		default:
			draft.HireDate = hireDate
		}
	}

	if req.Salary == nil {
		problems["salary"] = "Salary is required."
	} else if *req.Salary < 0 {
		problems["salary"] = "Salary cannot be negative."
	} else {
		draft.Salary = *req.Salary
	}

	if req.Department == nil || req.Department.DepartmentID <= 0 {
		problems["department"] = "Department is required."
	} else {
		draft.DepartmentID = req.Department.DepartmentID
	}
	if req.Position == nil || req.Position.PositionID <= 0 {
		problems["position"] = "Position is required."
	} else {
		draft.PositionID = req.Position.PositionID
	}

	return draft, problems
}

type departmentResponse struct {
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	Description    string `json:"description,omitempty"`
}

type positionResponse struct {
	PositionID int64  `json:"positionId"`
	Title      string `json:"title"`
	PayGrade   string `json:"payGrade"`
}

type employeeResponse struct {
	EmployeeID int64              `json:"employeeId"`
	FirstName  string             `json:"firstName"`
	LastName   string             `json:"lastName"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone,omitempty"`
	Department departmentResponse `json:"department"`
	Position   positionResponse   `json:"position"`
	HireDate   string             `json:"hireDate"`
	Salary     float64            `json:"salary"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type pastEmployeeResponse struct {
	PastEmployeeID     int64              `json:"pastEmployeeId"`
	OriginalEmployeeID int64              `json:"originalEmployeeId"`
	FirstName          string             `json:"firstName"`
	LastName           string             `json:"lastName"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone,omitempty"`
	Department         departmentResponse `json:"department"`
	Position           positionResponse   `json:"position"`
	HireDate           string             `json:"hireDate"`
	Salary             float64            `json:"salary"`
	TerminationDate    string             `json:"terminationDate"`
	TerminationReason  string             `json:"terminationReason"`
	ArchivedAt         time.Time          `json:"archivedAt"`
}

func mapDepartment(d model.Department) departmentResponse {
	return departmentResponse{
		DepartmentID:   d.DepartmentID,
		DepartmentName: d.DepartmentName,
		Description:    d.Description,
	}
}

func mapPosition(p model.Position) positionResponse {
	return positionResponse{
		PositionID: p.PositionID,
		Title:      p.Title,
		PayGrade:   p.PayGrade,
	}
}

func mapEmployee(e model.Employee) employeeResponse {
	return employeeResponse{
		EmployeeID: e.EmployeeID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Phone:      e.Phone,
		Department: mapDepartment(e.Department),
		Position:   mapPosition(e.Position),
		HireDate:   e.HireDate.Format(dateLayout),
		Salary:     e.Salary,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func mapPastEmployee(pe model.PastEmployee) pastEmployeeResponse {
	return pastEmployeeResponse{
		PastEmployeeID:     pe.PastEmployeeID,
		OriginalEmployeeID: pe.OriginalEmployeeID,
		FirstName:          pe.FirstName,
		LastName:           pe.LastName,
		Email:              pe.Email,
		Phone:              pe.Phone,
		Department:         mapDepartment(pe.Department),
		Position:           mapPosition(pe.Position),
		HireDate:           pe.HireDate.Format(dateLayout),
		Salary:             pe.Salary,
		TerminationDate:    pe.TerminationDate.Format(dateLayout),
		TerminationReason:  pe.TerminationReason,
		ArchivedAt:         pe.ArchivedAt,
	}
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.ListEmployees(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, employee := range employees {
		resp = append(resp, mapEmployee(employee))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id.")
		return
	}

	employee, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", mapEmployee(employee))
}

func (s *Server) handleSearchEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.EmployeeFilter{
		Name:       query.Get("name"),
		Department: query.Get("department"),
		Position:   query.Get("position"),
	}

	if raw := strings.TrimSpace(query.Get("hireDate")); raw != "" {
		hireDate, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Search failed: hireDate must be a valid date (YYYY-MM-DD).")
			return
		}
		filter.HireDate = &hireDate
	}

	employees, err := s.store.SearchEmployees(r.Context(), filter)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, employee := range employees {
		resp = append(resp, mapEmployee(employee))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	draft, problems := req.validate(time.Now().UTC())
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Validation failed.", Errors: problems})
		return
	}

	created, err := s.store.CreateEmployee(r.Context(), draft)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Employee created successfully.", mapEmployee(created))
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id.")
		return
	}

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	draft, problems := req.validate(time.Now().UTC())
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Validation failed.", Errors: problems})
		return
	}

	updated, err := s.store.UpdateEmployee(r.Context(), id, draft)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Employee updated successfully.", mapEmployee(updated))
}

func (s *Server) handleArchiveEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id.")
		return
	}

	archived, err := s.store.ArchiveEmployee(r.Context(), id, r.URL.Query().Get("reason"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Employee archived to Past Employees.", mapPastEmployee(archived))
}

func (s *Server) handleListPastEmployees(w http.ResponseWriter, r *http.Request) {
	archived, err := s.store.ListPastEmployees(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]pastEmployeeResponse, 0, len(archived))
	for _, pe := range archived {
		resp = append(resp, mapPastEmployee(pe))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (s *Server) handleGetPastEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid past employee id.")
		return
	}

	pe, err := s.store.GetPastEmployee(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", mapPastEmployee(pe))
}

// Lookups

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := s.store.ListDepartments(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]departmentResponse, 0, len(departments))
	for _, d := range departments {
		resp = append(resp, mapDepartment(d))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListPositions(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, mapPosition(p))
	}
	writeSuccess(w, http.StatusOK, "", resp)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
