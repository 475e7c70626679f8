package services

import (
	"fmt"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
)

// MinimumGuaranteeIncome is the monthly income floor for joint obligors
// guaranteeing by income rather than property.
const MinimumGuaranteeIncome = 10000.0

// MinimumAvalReferences is how many personal references an aval must
// supply.
const MinimumAvalReferences = 3

// CompletenessResult is the all-or-nothing outcome of a completeness
// check. MissingFields holds human-readable entries; an empty list means
// the actor passed.
type CompletenessResult struct {
	Valid         bool     `json:"valid"`
	MissingFields []string `json:"missing_fields"`
}

// CheckCompleteness verifies that an actor has supplied every field its
// kind and person type require. Pure; callers persist nothing here.
func CheckCompleteness(a *Actor) CompletenessResult {
	var missing []string

	missing = append(missing, checkIdentityFields(a)...)

	if len(a.Addresses) == 0 {
		missing = append(missing, "at least one address is required")
	}

	switch a.Kind {
	case models.KindTenant:
		missing = append(missing, checkEmploymentFields(a)...)
	case models.KindLandlord:
		missing = append(missing, checkBankFields(a)...)
	case models.KindJointObligor:
		missing = append(missing, checkJointObligorGuarantee(a)...)
	case models.KindAval:
		missing = append(missing, checkAvalGuarantee(a)...)
	}

	return CompletenessResult{Valid: len(missing) == 0, MissingFields: missing}
}

func checkIdentityFields(a *Actor) []string {
	var missing []string
	c := a.Common

	if c.PersonType == models.PersonCompany {
		if c.CompanyName == "" {
			missing = append(missing, "missing required field: companyName")
		}
		if c.RFC == "" {
			missing = append(missing, "missing required field: rfc")
		}
		if c.LegalRepName == "" {
			missing = append(missing, "missing required field: legalRepName")
		}
	} else {
		if c.FirstName == "" {
			missing = append(missing, "missing required field: firstName")
		}
		if c.PaternalLastName == "" {
			missing = append(missing, "missing required field: paternalLastName")
		}
		if c.Nationality == "" {
			missing = append(missing, "missing required field: nationality")
		} else if !a.Foreign() && c.CURP == "" {
			missing = append(missing, "missing required field: curp")
		}
		if c.BirthDate == nil {
			missing = append(missing, "missing required field: birthDate")
		}
	}

	if c.Email == "" {
		missing = append(missing, "missing required field: email")
	}
	if c.Phone == "" {
		missing = append(missing, "missing required field: phone")
	}
	return missing
}

func checkEmploymentFields(a *Actor) []string {
	var missing []string
	if a.Common.PersonType == models.PersonCompany {
		return missing
	}
	if a.Common.Occupation == "" {
		missing = append(missing, "missing required field: occupation")
	}
	if a.Common.EmployerName == "" {
		missing = append(missing, "missing required field: employerName")
	}
	if a.Common.MonthlyIncome <= 0 {
		missing = append(missing, "missing required field: monthlyIncome")
	}
	return missing
}

func checkBankFields(a *Actor) []string {
	var missing []string
	if a.BankName == "" {
		missing = append(missing, "missing required field: bankName")
	}
	if a.CLABE == "" {
		missing = append(missing, "missing required field: clabe")
	}
	return missing
}

func checkJointObligorGuarantee(a *Actor) []string {
	var missing []string
	switch a.GuaranteeMethod {
	case models.GuaranteeIncome:
		if a.Common.MonthlyIncome < MinimumGuaranteeIncome {
			missing = append(missing, fmt.Sprintf(
				"monthly income must be at least %.0f for income guarantee", MinimumGuaranteeIncome))
		}
	case models.GuaranteeProperty:
		missing = append(missing, checkPropertyFields(a)...)
	default:
		missing = append(missing, "missing required field: guaranteeMethod (property or income)")
	}
	return missing
}

func checkAvalGuarantee(a *Actor) []string {
	missing := checkPropertyFields(a)
	personal := 0
	for _, r := range a.References {
		if r.Type == models.ReferencePersonal {
			personal++
		}
	}
	if personal < MinimumAvalReferences {
		missing = append(missing, fmt.Sprintf(
			"at least %d personal references are required", MinimumAvalReferences))
	}
	return missing
}

func checkPropertyFields(a *Actor) []string {
	var missing []string
	if a.PropertyDeedNumber == "" {
		missing = append(missing, "missing required field: propertyDeedNumber")
	}
	if a.PropertyRegistryInfo == "" {
		missing = append(missing, "missing required field: propertyRegistryInfo")
	}
	if a.PropertyAddress == "" {
		missing = append(missing, "missing required field: propertyAddress")
	}
	return missing
}

// RequiredDocuments computes the document categories the actor must
// upload, from kind, person type and nationality.
func RequiredDocuments(a *Actor) []models.DocumentCategory {
	var req []models.DocumentCategory

	if a.Common.PersonType == models.PersonCompany {
		req = append(req, models.DocActaConstitutiva, models.DocPowerOfAttorney, models.DocTaxStatus)
	} else if a.Foreign() {
		req = append(req, models.DocIdentificationPassport, models.DocImmigrationForm)
	} else {
		req = append(req, models.DocIdentificationINE)
	}

	req = append(req, models.DocProofOfAddress)

	switch a.Kind {
	case models.KindTenant:
		if a.Common.PersonType == models.PersonCompany {
			req = append(req, models.DocBankStatement)
		} else {
			req = append(req, models.DocProofOfIncome)
		}
	case models.KindLandlord:
		req = append(req, models.DocPropertyDeed)
	case models.KindJointObligor:
		switch a.GuaranteeMethod {
		case models.GuaranteeIncome:
			req = append(req, models.DocProofOfIncome, models.DocBankStatement)
		case models.GuaranteeProperty:
			req = append(req, models.DocPropertyDeed, models.DocPropertyTaxReceipt)
		}
	case models.KindAval:
		req = append(req, models.DocPropertyDeed, models.DocPropertyTaxReceipt)
	}

	return req
}

// MissingDocuments lists required categories with no uploaded document.
func MissingDocuments(a *Actor) []models.DocumentCategory {
	uploaded := make(map[models.DocumentCategory]bool, len(a.Documents))
	for _, d := range a.Documents {
		uploaded[d.Category] = true
	}
	var missing []models.DocumentCategory
	for _, cat := range RequiredDocuments(a) {
		if !uploaded[cat] {
			missing = append(missing, cat)
		}
	}
	return missing
}
