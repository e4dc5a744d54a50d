package employee

// Employee is the profile a leave request is filed for.
type Employee struct {
	ID             string
	OrganizationID string
	UserID         *string
	FullName       string
	EmployeeCode   string
	IsDeleted      bool
}

// Summary holds the identity fields shown next to a leave request.
type Summary struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	EmployeeCode string `json:"employee_code"`
}

func (e Employee) Summary() Summary {
	return Summary{
		ID:           e.ID,
		FullName:     e.FullName,
		EmployeeCode: e.EmployeeCode,
	}
}
