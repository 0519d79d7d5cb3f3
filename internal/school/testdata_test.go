package school

import "github.com/jattu8602/presentsirweb-sub001/internal/models"

func validRequest() RegisterRequest {
	return RegisterRequest{
		InstitutionType:    models.InstitutionSchool,
		RegisteredName:     "Delhi Model School",
		RegistrationNumber: "DL-2019-0042",
		PlanType:           models.PlanStandard,
		PlanDuration:       models.PlanYearly,
		Email:              "new@school.edu",
		Password:           "Secret123!",
		Phone:              "9876543210",
		AddressLine:        "14 Ring Road, Lajpat Nagar",
		City:               "New Delhi",
		State:              "Delhi",
		PostalCode:         "110024",
		PrincipalName:      "Anita Sharma",
		PrincipalEmail:     "principal@school.edu",
		PrincipalPhone:     "+91 98765 43211",
	}
}
