package api

import (
	"encoding/json"
	"net/http"

	"github.com/clinicops/frontdesk/internal/staff"
)

func loginHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := LoginResponse{
			Token:    result.Token,
			Username: result.User.Username,
			FullName: result.User.FullName(),
			Role:     result.User.Role,
		}
		if result.Profile != nil {
			resp.EmployeeID = result.Profile.EmployeeID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func registerStaffHandler(svc *staff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		u, p, err := svc.Register(r.Context(), staff.RegisterRequest{
			Username:    req.Username,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Role:        req.Role,
			PhoneNumber: req.PhoneNumber,
			Department:  req.Department,
			Shift:       req.Shift,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, RegisterStaffResponse{
			ID:         u.ID,
			Username:   u.Username,
			EmployeeID: p.EmployeeID,
			Role:       u.Role,
		})
	}
}
