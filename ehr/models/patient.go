package models

import (
	"context"
	"fmt"
	"time"

	"github.com/GyroTools/ehr-connector-go/internals/http"
	"github.com/oapi-codegen/runtime/types"
)

const PatientURL = "patients/"

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case GenderOther:
		return "Other"
	}
	return string(g)
}

// BloodTypes lists the accepted blood types. An empty blood type is allowed.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func ValidBloodType(bloodType string) bool {
	if bloodType == "" {
		return true
	}
	for _, b := range BloodTypes {
		if b == bloodType {
			return true
		}
	}
	return false
}

type Patient struct {
	ID                    int        `json:"id"`
	MedicalRecordNumber   string     `json:"medical_record_number"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	DateOfBirth           types.Date `json:"date_of_birth"`
	Gender                Gender     `json:"gender"`
	BloodType             string     `json:"blood_type"`
	Phone                 string     `json:"phone"`
	Email                 string     `json:"email"`
	Address               string     `json:"address"`
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	http.BaseModel
}

// PatientInput is the writable part of a patient. Updates replace the whole
// record, so every required field must be set.
type PatientInput struct {
	MedicalRecordNumber   string     `json:"medical_record_number"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	DateOfBirth           types.Date `json:"date_of_birth"`
	Gender                Gender     `json:"gender"`
	BloodType             string     `json:"blood_type"`
	Phone                 string     `json:"phone"`
	Email                 string     `json:"email"`
	Address               string     `json:"address"`
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
}

func (patient *Patient) FullName() string {
	return fmt.Sprintf("%s %s", patient.FirstName, patient.LastName)
}

// Age in whole years at the given time.
func (patient *Patient) Age(at time.Time) int {
	born := patient.DateOfBirth.Time
	years := at.Year() - born.Year()
	if at.Month() < born.Month() || (at.Month() == born.Month() && at.Day() < born.Day()) {
		years--
	}
	return years
}

// Input returns the patient's writable fields, e.g. to edit and PUT them back.
func (patient *Patient) Input() PatientInput {
	return PatientInput{
		MedicalRecordNumber:   patient.MedicalRecordNumber,
		FirstName:             patient.FirstName,
		LastName:              patient.LastName,
		DateOfBirth:           patient.DateOfBirth,
		Gender:                patient.Gender,
		BloodType:             patient.BloodType,
		Phone:                 patient.Phone,
		Email:                 patient.Email,
		Address:               patient.Address,
		EmergencyContactName:  patient.EmergencyContactName,
		EmergencyContactPhone: patient.EmergencyContactPhone,
	}
}

func PatientPath(id int) string {
	return fmt.Sprintf("%s%d/", PatientURL, id)
}

// Refresh reloads the patient from the server.
func (patient *Patient) Refresh(ctx context.Context) error {
	fresh, err := http.Request[Patient](ctx, patient.Client, PatientPath(patient.ID), http.Options{})
	if err != nil {
		return err
	}
	if fresh == nil {
		return fmt.Errorf("patient %d: empty response", patient.ID)
	}
	*patient = *fresh
	return nil
}

func (patient *Patient) GetMedicalRecords(ctx context.Context, opts ...ListOption) ([]MedicalRecord, error) {
	page, err := ListForPatient[MedicalRecord](ctx, patient.Client, MedicalRecordURL, patient.ID, opts...)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (patient *Patient) GetMedications(ctx context.Context, opts ...ListOption) ([]Medication, error) {
	page, err := ListForPatient[Medication](ctx, patient.Client, MedicationURL, patient.ID, opts...)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (patient *Patient) GetVitalSigns(ctx context.Context, opts ...ListOption) ([]VitalSign, error) {
	page, err := ListForPatient[VitalSign](ctx, patient.Client, VitalSignURL, patient.ID, opts...)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (patient *Patient) GetAppointments(ctx context.Context, opts ...ListOption) ([]Appointment, error) {
	page, err := ListForPatient[Appointment](ctx, patient.Client, AppointmentURL, patient.ID, opts...)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}
