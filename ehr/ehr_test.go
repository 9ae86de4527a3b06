package ehr_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"github.com/GyroTools/ehr-connector-go/internals/mockserver"
	"github.com/oapi-codegen/runtime/types"
	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func newTestEHR(t *testing.T) (*ehr.EHR, *mockserver.Server) {
	t.Helper()
	ms := mockserver.New(zerolog.Nop())
	srv := httptest.NewServer(ms)
	t.Cleanup(srv.Close)
	e, err := ehr.Create(context.Background(), srv.URL+"/api", true)
	assert.NilError(t, err)
	return e, ms
}

func patientInput(mrn string) models.PatientInput {
	return models.PatientInput{
		MedicalRecordNumber:   mrn,
		FirstName:             "Sarah",
		LastName:              "Johnson",
		DateOfBirth:           types.Date{Time: time.Date(1990, 7, 22, 0, 0, 0, 0, time.UTC)},
		Gender:                models.GenderFemale,
		BloodType:             "B+",
		Phone:                 "555-0201",
		Email:                 "sarah.johnson@email.com",
		Address:               "456 Oak Ave, Somewhere, ST 67890",
		EmergencyContactName:  "Michael Johnson",
		EmergencyContactPhone: "555-0202",
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NilError(t, err)
	return string(data)
}

func TestCreate_RejectsNonEHRServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"projects": "/api/projects/"}`))
	}))
	defer srv.Close()

	_, err := ehr.Create(context.Background(), srv.URL+"/api", true)
	assert.ErrorContains(t, err, "cannot connect to the EHR api")

	_, err = ehr.Create(context.Background(), "ftp://example.org", true)
	assert.ErrorContains(t, err, "invalid url")
}

func TestPing(t *testing.T) {
	e, _ := newTestEHR(t)
	assert.NilError(t, e.Ping(context.Background()))
	assert.NilError(t, ehr.Ping(context.Background(), e.Client.BaseURL()))
}

func TestPatients_CreateThenGetRoundTrips(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	input := patientInput("MRN002")

	created, err := e.Patients.Create(ctx, input)
	assert.NilError(t, err)
	assert.Assert(t, created.ID > 0)

	got, err := e.Patients.Get(ctx, created.ID)
	assert.NilError(t, err)
	assert.Equal(t, mustJSON(t, got.Input()), mustJSON(t, input))
	assert.Assert(t, !got.CreatedAt.IsZero())
	assert.Assert(t, got.Client == e.Client)
}

func TestPatients_UpdateReplacesWholeRecord(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	created, err := e.Patients.Create(ctx, patientInput("MRN002"))
	assert.NilError(t, err)

	input := created.Input()
	input.Email = ""
	input.BloodType = ""
	input.Phone = "555-9999"
	updated, err := e.Patients.Update(ctx, created.ID, input)
	assert.NilError(t, err)
	assert.Equal(t, updated.Email, "")
	assert.Equal(t, updated.BloodType, "")
	assert.Equal(t, updated.Phone, "555-9999")
	assert.Equal(t, updated.FirstName, "Sarah")

	_, err = e.Patients.Update(ctx, created.ID, models.PatientInput{FirstName: "Only"})
	apiErr, ok := ehr.AsApiError(err)
	assert.Assert(t, ok)
	assert.Equal(t, apiErr.StatusCode, http.StatusBadRequest)
	assert.Equal(t, apiErr.Message, "HTTP 400: Bad Request")
	assert.Check(t, is.Contains(apiErr.Details, "last_name"))
}

func TestPatients_CreateValidationError(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	_, err := e.Patients.Create(ctx, patientInput("MRN001"))
	assert.NilError(t, err)

	_, err = e.Patients.Create(ctx, patientInput("MRN001"))
	apiErr, ok := ehr.AsApiError(err)
	assert.Assert(t, ok)
	assert.Equal(t, apiErr.StatusCode, 400)
	assert.DeepEqual(t, apiErr.Details["medical_record_number"], []interface{}{"patient with this medical record number already exists."})
}

func TestPatients_Delete(t *testing.T) {
	e, ms := newTestEHR(t)
	ctx := context.Background()
	created, err := e.Patients.Create(ctx, patientInput("MRN003"))
	assert.NilError(t, err)

	assert.NilError(t, e.Patients.Delete(ctx, created.ID))
	assert.Equal(t, ms.Count("patients"), 0)

	_, err = e.Patients.Get(ctx, created.ID)
	assert.Assert(t, ehr.IsNotFound(err))
	assert.Equal(t, ehr.StatusCode(err), 404)
	assert.Error(t, err, "Not found.")

	err = e.Patients.Delete(ctx, created.ID)
	assert.Assert(t, ehr.IsNotFound(err))
}

func TestPatients_ListAllFollowsNextLinks(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	for i := 1; i <= 23; i++ {
		_, err := e.Patients.Create(ctx, patientInput(fmt.Sprintf("MRN%03d", i)))
		assert.NilError(t, err)
	}

	page, err := e.Patients.List(ctx)
	assert.NilError(t, err)
	assert.Equal(t, page.Count, 23)
	assert.Equal(t, len(page.Results), mockserver.PageSize)
	assert.Assert(t, page.HasNext())
	assert.Assert(t, page.Previous == nil)

	all, err := e.Patients.ListAll(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 23)
	seen := map[string]bool{}
	for _, p := range all {
		seen[p.MedicalRecordNumber] = true
	}
	assert.Equal(t, len(seen), 23)

	found, err := e.Patients.List(ctx, models.Search("mrn017"))
	assert.NilError(t, err)
	assert.Equal(t, found.Count, 1)
	assert.Equal(t, found.Results[0].MedicalRecordNumber, "MRN017")

	ordered, err := e.Patients.List(ctx, models.Ordering("created_at"), models.PageNumber(3))
	assert.NilError(t, err)
	assert.Equal(t, len(ordered.Results), 3)
	assert.Equal(t, ordered.Results[2].MedicalRecordNumber, "MRN023")
	assert.Assert(t, !ordered.HasNext())
}

func TestChildren_EmptyListIsWellFormedEnvelope(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	patient, err := e.Patients.Create(ctx, patientInput("MRN042"))
	assert.NilError(t, err)

	page, err := e.MedicalRecords.List(ctx, patient.ID)
	assert.NilError(t, err)
	assert.Equal(t, page.Count, 0)
	assert.Assert(t, page.Results != nil)
	assert.Equal(t, len(page.Results), 0)
	assert.Assert(t, page.Next == nil)
}

func TestChildren_ScopedToPatient(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	first, err := e.Patients.Create(ctx, patientInput("MRN001"))
	assert.NilError(t, err)
	second, err := e.Patients.Create(ctx, patientInput("MRN002"))
	assert.NilError(t, err)

	inactive := false
	for _, patientID := range []int{first.ID, second.ID} {
		_, err := e.Medications.Create(ctx, models.MedicationInput{
			Patient:           patientID,
			MedicationName:    "Metformin",
			Dosage:            "500mg",
			Frequency:         "Twice daily",
			PrescribingDoctor: "Dr. Johnson",
			StartDate:         types.Date{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		})
		assert.NilError(t, err)
	}
	_, err = e.Medications.Create(ctx, models.MedicationInput{
		Patient:           first.ID,
		MedicationName:    "Ibuprofen",
		Dosage:            "200mg",
		Frequency:         "As needed for pain",
		PrescribingDoctor: "Dr. Brown",
		StartDate:         types.Date{Time: time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)},
		EndDate:           &types.Date{Time: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)},
		IsActive:          &inactive,
	})
	assert.NilError(t, err)

	page, err := e.Medications.List(ctx, first.ID)
	assert.NilError(t, err)
	assert.Equal(t, page.Count, 2)
	for _, m := range page.Results {
		assert.Equal(t, m.Patient, first.ID)
		assert.Equal(t, m.PatientName, "Sarah Johnson")
	}

	active, err := e.Medications.List(ctx, first.ID, models.ActiveOnly(true))
	assert.NilError(t, err)
	assert.Equal(t, active.Count, 1)
	assert.Equal(t, active.Results[0].MedicationName, "Metformin")
	assert.Assert(t, active.Results[0].EndDate == nil)

	vital, err := e.VitalSigns.Create(ctx, models.VitalSignInput{
		Patient:                second.ID,
		RecordedAt:             time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		BloodPressureSystolic:  118,
		BloodPressureDiastolic: 76,
		HeartRate:              64,
		Temperature:            models.MustDecimal("98.6"),
		Weight:                 models.MustDecimal("150.5"),
	})
	assert.NilError(t, err)
	assert.Equal(t, vital.Temperature.String(), "98.6")
	assert.Equal(t, vital.Weight.String(), "150.50")
	assert.Assert(t, vital.Height == nil)

	vitals, err := e.VitalSigns.List(ctx, first.ID)
	assert.NilError(t, err)
	assert.Equal(t, vitals.Count, 0)
}

func TestAppointments_UpdateIsPartial(t *testing.T) {
	e, _ := newTestEHR(t)
	ctx := context.Background()
	patient, err := e.Patients.Create(ctx, patientInput("MRN005"))
	assert.NilError(t, err)

	appointment, err := e.Appointments.Create(ctx, models.AppointmentInput{
		Patient:         patient.ID,
		AppointmentDate: time.Date(2024, 9, 1, 14, 0, 0, 0, time.UTC),
		DoctorName:      "Dr. Miller",
		Department:      "Neurology",
		Reason:          "Consultation",
		Notes:           "bring previous scans",
	})
	assert.NilError(t, err)
	assert.Equal(t, appointment.Status, models.StatusScheduled)

	status := models.StatusCompleted
	updated, err := e.Appointments.Update(ctx, appointment.ID, models.AppointmentPatch{Status: &status})
	assert.NilError(t, err)
	assert.Equal(t, updated.Status, models.StatusCompleted)
	assert.Equal(t, updated.DoctorName, "Dr. Miller")
	assert.Equal(t, updated.Department, "Neurology")
	assert.Equal(t, updated.Notes, "bring previous scans")
	assert.Assert(t, updated.AppointmentDate.Equal(appointment.AppointmentDate))

	assert.NilError(t, updated.SetStatus(ctx, models.StatusNoShow))
	assert.Equal(t, updated.Status, models.StatusNoShow)

	_, err = e.Appointments.SetStatus(ctx, appointment.ID, models.AppointmentStatus("missed"))
	assert.Equal(t, ehr.StatusCode(err), http.StatusBadRequest)

	page, err := e.Appointments.List(ctx, patient.ID, models.WithStatus(models.StatusNoShow))
	assert.NilError(t, err)
	assert.Equal(t, page.Count, 1)
}

func TestPatients_ListAllIgnoresBogusCount(t *testing.T) {
	for _, count := range []string{"-1", "9223372036854775807"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"count": ` + count + `, "next": null, "previous": null, "results": [{"id": 1, "first_name": "Jane"}]}`))
		}))

		patients, err := ehr.NewEHR(srv.URL+"/api", true).Patients.ListAll(context.Background())
		srv.Close()
		assert.NilError(t, err, "count %s", count)
		assert.Check(t, is.Len(patients, 1), "count %s", count)
	}
}
