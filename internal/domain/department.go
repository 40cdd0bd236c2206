package domain

import "strings"

// Department is a fixed civic service category. Complaints are routed to the
// provider pool of exactly one department.
type Department string

const (
	DepartmentGeneral     Department = "General"
	DepartmentRoads       Department = "Roads & Highways"
	DepartmentWater       Department = "Water Resources"
	DepartmentElectricity Department = "Electricity"
	DepartmentSanitation  Department = "Sanitation & Waste"
	DepartmentPublicHealth Department = "Public Health"
	DepartmentParks       Department = "Parks & Recreation"
	DepartmentStreetLight Department = "Street Lighting"
)

// Departments lists every department in canonical order. Scoring ties are
// broken by this order, so it must stay stable.
func Departments() []Department {
	return []Department{
		DepartmentGeneral,
		DepartmentRoads,
		DepartmentWater,
		DepartmentElectricity,
		DepartmentSanitation,
		DepartmentPublicHealth,
		DepartmentParks,
		DepartmentStreetLight,
	}
}

// ParseDepartment resolves a free-form name against the fixed enumeration,
// case-insensitively. Returns false when the name matches no department.
func ParseDepartment(name string) (Department, bool) {
	trimmed := strings.TrimSpace(name)
	for _, dept := range Departments() {
		if strings.EqualFold(string(dept), trimmed) {
			return dept, true
		}
	}
	return "", false
}
