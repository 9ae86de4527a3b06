package models

import (
	"time"

	"github.com/GyroTools/ehr-connector-go/internals/http"
)

const MedicalRecordURL = "medical-records/"

type MedicalRecord struct {
	ID             int       `json:"id"`
	Patient        int       `json:"patient"`
	PatientName    string    `json:"patient_name"`
	VisitDate      time.Time `json:"visit_date"`
	DoctorName     string    `json:"doctor_name"`
	ChiefComplaint string    `json:"chief_complaint"`
	Diagnosis      string    `json:"diagnosis"`
	TreatmentPlan  string    `json:"treatment_plan"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	http.BaseModel
}

type MedicalRecordInput struct {
	Patient        int       `json:"patient"`
	VisitDate      time.Time `json:"visit_date"`
	DoctorName     string    `json:"doctor_name"`
	ChiefComplaint string    `json:"chief_complaint"`
	Diagnosis      string    `json:"diagnosis"`
	TreatmentPlan  string    `json:"treatment_plan"`
	Notes          string    `json:"notes"`
}
