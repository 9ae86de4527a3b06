package ehr

import (
	"context"
	"fmt"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	ehrHttp "github.com/GyroTools/ehr-connector-go/internals/http"
	"github.com/GyroTools/ehr-connector-go/internals/utils"
)

// ApiError is returned by every operation that reaches the backend.
type ApiError = ehrHttp.ApiError

type ClientOption = ehrHttp.ClientOption

var (
	WithHTTPClient     = ehrHttp.WithHTTPClient
	WithLogger         = ehrHttp.WithLogger
	WithMetrics        = ehrHttp.WithMetrics
	WithTracerProvider = ehrHttp.WithTracerProvider
	WithHeader         = ehrHttp.WithHeader

	NewMetrics = ehrHttp.NewMetrics
)

type EHR struct {
	Client *ehrHttp.Client

	Patients       *PatientService
	MedicalRecords *MedicalRecordService
	Medications    *MedicationService
	VitalSigns     *VitalSignService
	Appointments   *AppointmentService
}

func NewEHR(url string, verifyCert bool, opts ...ClientOption) *EHR {
	client := ehrHttp.NewClient(url, verifyCert, opts...)
	return &EHR{
		Client:         client,
		Patients:       &PatientService{client: client},
		MedicalRecords: &MedicalRecordService{newPatientScoped[models.MedicalRecord, models.MedicalRecordInput](client, models.MedicalRecordURL)},
		Medications:    &MedicationService{newPatientScoped[models.Medication, models.MedicationInput](client, models.MedicationURL)},
		VitalSigns:     &VitalSignService{newPatientScoped[models.VitalSign, models.VitalSignInput](client, models.VitalSignURL)},
		Appointments:   &AppointmentService{newPatientScoped[models.Appointment, models.AppointmentInput](client, models.AppointmentURL)},
	}
}

// Create validates the url and checks that it serves the EHR api before
// returning the connector.
func Create(ctx context.Context, url string, verifyCertificate bool, opts ...ClientOption) (*EHR, error) {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	ehr := NewEHR(url, verifyCertificate, opts...)

	err = ehr.Client.CheckConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the EHR api: %w", err)
	}
	return ehr, nil
}

func Ping(ctx context.Context, url string) error {
	client := ehrHttp.NewClient(url, true)
	return client.Ping(ctx)
}

func (e *EHR) Ping(ctx context.Context) error {
	return e.Client.Ping(ctx)
}

func AsApiError(err error) (*ApiError, bool) {
	return ehrHttp.AsApiError(err)
}

// StatusCode returns the HTTP status of an api error, 0 for network and
// decode failures and -1 for any other error.
func StatusCode(err error) int {
	return ehrHttp.StatusCode(err)
}

func IsNotFound(err error) bool {
	return ehrHttp.IsNotFound(err)
}
