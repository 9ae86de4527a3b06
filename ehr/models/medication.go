package models

import (
	"time"

	"github.com/GyroTools/ehr-connector-go/internals/http"
	"github.com/oapi-codegen/runtime/types"
)

const MedicationURL = "medications/"

type Medication struct {
	ID                int         `json:"id"`
	Patient           int         `json:"patient"`
	PatientName       string      `json:"patient_name"`
	MedicationName    string      `json:"medication_name"`
	Dosage            string      `json:"dosage"`
	Frequency         string      `json:"frequency"`
	PrescribingDoctor string      `json:"prescribing_doctor"`
	StartDate         types.Date  `json:"start_date"`
	EndDate           *types.Date `json:"end_date"`
	Notes             string      `json:"notes"`
	IsActive          bool        `json:"is_active"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	http.BaseModel
}

// MedicationInput leaves IsActive nil to take the server default (active).
type MedicationInput struct {
	Patient           int         `json:"patient"`
	MedicationName    string      `json:"medication_name"`
	Dosage            string      `json:"dosage"`
	Frequency         string      `json:"frequency"`
	PrescribingDoctor string      `json:"prescribing_doctor"`
	StartDate         types.Date  `json:"start_date"`
	EndDate           *types.Date `json:"end_date"`
	Notes             string      `json:"notes"`
	IsActive          *bool       `json:"is_active,omitempty"`
}
