package ehr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"gotest.tools/v3/assert"
)

func TestGetPatientChart(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	patient, err := e.Patients.Create(ctx, patientInput("MRN001"))
	assert.NilError(t, err)

	_, err = e.MedicalRecords.Create(ctx, models.MedicalRecordInput{
		Patient:        patient.ID,
		VisitDate:      time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
		DoctorName:     "Dr. Williams",
		ChiefComplaint: "Migraine",
		Diagnosis:      "Severe headaches",
		TreatmentPlan:  "Preventive medication",
	})
	assert.NilError(t, err)
	_, err = e.Appointments.Create(ctx, models.AppointmentInput{
		Patient:         patient.ID,
		AppointmentDate: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		DoctorName:      "Dr. Williams",
		Department:      "Neurology",
		Reason:          "Follow-up visit",
	})
	assert.NilError(t, err)

	chart, err := e.GetPatientChart(ctx, patient.ID)
	assert.NilError(t, err)
	assert.Equal(t, chart.Patient.ID, patient.ID)
	assert.Equal(t, len(chart.MedicalRecords), 1)
	assert.Equal(t, chart.MedicalRecords[0].ChiefComplaint, "Migraine")
	assert.Equal(t, len(chart.Medications), 0)
	assert.Equal(t, len(chart.VitalSigns), 0)
	assert.Equal(t, len(chart.Appointments), 1)
	assert.Equal(t, len(chart.ActiveMedications()), 0)
}

func TestGetPatientChart_FailsWhenPatientMissing(t *testing.T) {
	e, _ := newTestEHR(t)

	chart, err := e.GetPatientChart(context.Background(), 42)
	assert.Assert(t, chart == nil)
	assert.Assert(t, ehr.IsNotFound(err))
}

func TestGetPatientChart_FailFastOnAnyRead(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/vital-signs/"):
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"A server error occurred."}`))
		case strings.HasPrefix(r.URL.Path, "/api/patients/"):
			_, _ = w.Write([]byte(`{"id":7,"first_name":"Jane","last_name":"Smith","date_of_birth":"1975-08-22","gender":"F"}`))
		default:
			_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
		}
	}))
	defer srv.Close()
	e := ehr.NewEHR(srv.URL+"/api", true)

	chart, err := e.GetPatientChart(context.Background(), 7)
	assert.Assert(t, chart == nil)
	assert.Equal(t, ehr.StatusCode(err), http.StatusInternalServerError)
	assert.Error(t, err, "A server error occurred.")
	assert.Assert(t, atomic.LoadInt32(&calls) <= 5)
}
