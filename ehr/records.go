package ehr

import (
	"context"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	ehrHttp "github.com/GyroTools/ehr-connector-go/internals/http"
)

// patientScoped serves a child collection. Children are only ever listed for
// a single patient.
type patientScoped[T any, I any] struct {
	client *ehrHttp.Client
	path   string
}

func newPatientScoped[T any, I any](client *ehrHttp.Client, path string) patientScoped[T, I] {
	return patientScoped[T, I]{client: client, path: path}
}

func (s patientScoped[T, I]) List(ctx context.Context, patientID int, opts ...models.ListOption) (*models.Page[T], error) {
	return models.ListForPatient[T](ctx, s.client, s.path, patientID, opts...)
}

func (s patientScoped[T, I]) Create(ctx context.Context, input I) (*T, error) {
	return ehrHttp.Request[T](ctx, s.client, s.path, ehrHttp.Options{
		Method: "POST",
		Body:   input,
	})
}

type MedicalRecordService struct {
	patientScoped[models.MedicalRecord, models.MedicalRecordInput]
}

// MedicationService lists and prescribes medications. Use models.ActiveOnly
// to filter on the active flag.
type MedicationService struct {
	patientScoped[models.Medication, models.MedicationInput]
}

type VitalSignService struct {
	patientScoped[models.VitalSign, models.VitalSignInput]
}

type AppointmentService struct {
	patientScoped[models.Appointment, models.AppointmentInput]
}

// Update changes only the fields set in patch.
func (s *AppointmentService) Update(ctx context.Context, id int, patch models.AppointmentPatch) (*models.Appointment, error) {
	return ehrHttp.Request[models.Appointment](ctx, s.client, models.AppointmentPath(id), ehrHttp.Options{
		Method: "PATCH",
		Body:   patch,
	})
}

func (s *AppointmentService) SetStatus(ctx context.Context, id int, status models.AppointmentStatus) (*models.Appointment, error) {
	return s.Update(ctx, id, models.AppointmentPatch{Status: &status})
}
