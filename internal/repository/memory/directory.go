package memory

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/google/uuid"
)

// directoryDocument is the TOML layout of a memory-mode user and employee directory.
//
//	[[users]]
//	id = "0197a000-0000-7000-8000-000000000001"
//	organization_id = "0197a000-0000-7000-8000-0000000000aa"
//	email = "ana@example.com"
//	full_name = "Ana"
//	role = "employee"
//
//	[[employees]]
//	id = "0197a000-0000-7000-8000-000000000101"
//	organization_id = "0197a000-0000-7000-8000-0000000000aa"
//	user_id = "0197a000-0000-7000-8000-000000000001"
//	full_name = "Ana"
//	employee_code = "EMP-001"
type directoryDocument struct {
	Users []struct {
		ID             string `toml:"id"`
		OrganizationID string `toml:"organization_id"`
		Email          string `toml:"email"`
		FullName       string `toml:"full_name"`
		Role           string `toml:"role"`
	} `toml:"users"`
	Employees []struct {
		ID             string `toml:"id"`
		OrganizationID string `toml:"organization_id"`
		UserID         string `toml:"user_id"`
		FullName       string `toml:"full_name"`
		EmployeeCode   string `toml:"employee_code"`
	} `toml:"employees"`
}

// LoadDirectoryFile fills users and employees from the TOML file at path.
func LoadDirectoryFile(path string, users *UserStore, employees *EmployeeStore) error {
	var doc directoryDocument
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return fmt.Errorf("failed to decode directory file %s: %w", path, err)
	}
	return applyDirectory(doc, users, employees)
}

// ParseDirectory fills users and employees from a TOML document held in memory.
func ParseDirectory(data string, users *UserStore, employees *EmployeeStore) error {
	var doc directoryDocument
	if _, err := toml.Decode(data, &doc); err != nil {
		return fmt.Errorf("failed to decode directory document: %w", err)
	}
	return applyDirectory(doc, users, employees)
}

// applyDirectory validates the whole document before storing anything.
func applyDirectory(doc directoryDocument, users *UserStore, employees *EmployeeStore) error {
	parsedUsers := make([]user.User, 0, len(doc.Users))
	for i, u := range doc.Users {
		if err := requireUUID(u.ID, u.OrganizationID); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		role := user.Role(u.Role)
		if !role.IsValid() {
			return fmt.Errorf("users[%d]: %w: %q", i, user.ErrInvalidRole, u.Role)
		}
		parsedUsers = append(parsedUsers, user.User{
			ID:             u.ID,
			OrganizationID: u.OrganizationID,
			Email:          u.Email,
			FullName:       u.FullName,
			Role:           role,
		})
	}

	parsedEmployees := make([]employee.Employee, 0, len(doc.Employees))
	for i, e := range doc.Employees {
		if err := requireUUID(e.ID, e.OrganizationID); err != nil {
			return fmt.Errorf("employees[%d]: %w", i, err)
		}
		var userID *string
		if e.UserID != "" {
			if err := requireUUID(e.UserID); err != nil {
				return fmt.Errorf("employees[%d]: %w", i, err)
			}
			uid := e.UserID
			userID = &uid
		}
		parsedEmployees = append(parsedEmployees, employee.Employee{
			ID:             e.ID,
			OrganizationID: e.OrganizationID,
			UserID:         userID,
			FullName:       e.FullName,
			EmployeeCode:   e.EmployeeCode,
		})
	}

	for _, u := range parsedUsers {
		users.Put(u)
	}
	for _, e := range parsedEmployees {
		employees.Put(e)
	}
	return nil
}

func requireUUID(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid id %q: %w", id, err)
		}
	}
	return nil
}
