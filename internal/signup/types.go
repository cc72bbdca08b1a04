package signup

import "encoding/json"

// Step names accepted by the wizard's JSONB step store.
const (
	StepPersonal  = "personal"
	StepWork      = "work"
	StepLifestyle = "lifestyle"
	StepVeterans  = "veterans"
)

// IdentityForm is the ID-verification step after the user has reviewed and
// possibly corrected the extracted fields.
type IdentityForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IDNumber    string `json:"idNumber"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Gender      string `json:"gender"`
}

// Credentials is the account step.
type Credentials struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PersonalDetails mirrors the personal-details wizard step.
type PersonalDetails struct {
	Address            string `json:"address"`
	PhoneNumber        string `json:"phoneNumber"`
	NativeLanguage     string `json:"nativeLanguage"`
	HebrewLevel        string `json:"hebrewLevel,omitempty"`
	ArrivalDate        string `json:"arrivalDate,omitempty"`
	OriginCountry      string `json:"originCountry,omitempty"`
	MaritalStatus      string `json:"maritalStatus,omitempty"`
	FamilyInSettlement string `json:"familyInSettlement,omitempty"`
	HealthCondition    string `json:"healthCondition,omitempty"`
	MilitaryService    string `json:"militaryService,omitempty"`
	HasCar             bool   `json:"hasCar,omitempty"`
	LivingAlone        bool   `json:"livingAlone,omitempty"`
	HasWeapon          bool   `json:"hasWeapon,omitempty"`
}

// WorkBackground mirrors the work-background wizard step.
type WorkBackground struct {
	RetirementStatus string `json:"retirementStatus"`
}

// Lifestyle mirrors the lifestyle wizard step.
type Lifestyle struct {
	ComputerAbility string          `json:"computerAbility,omitempty"`
	SportActivity   string          `json:"sportActivity,omitempty"`
	WeeklySchedule  json.RawMessage `json:"weeklySchedule,omitempty"`
}

// VeteransCommunity is a large optional form; it is stored as submitted.
type VeteransCommunity map[string]interface{}
