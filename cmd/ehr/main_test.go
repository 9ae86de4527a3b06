package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"github.com/GyroTools/ehr-connector-go/internals/mockserver"
)

type cli struct {
	t      *testing.T
	apiURL string
	server *mockserver.Server
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("EHR_ENV", "production")
	t.Setenv("EHR_API_URL", "")
	t.Setenv("EHR_METRICS_FILE", "")

	ms := mockserver.New(zerolog.Nop())
	srv := httptest.NewServer(ms)
	t.Cleanup(srv.Close)
	return &cli{t: t, apiURL: srv.URL + "/api", server: ms}
}

// run executes one command line the way main does and returns stdout and
// stderr.
func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{out: &out, errOut: &errOut, logger: zerolog.Nop()}
	args = append(args, "--api-url", c.apiURL, "--log-level", "error")
	err := a.run(context.Background(), args)
	if err != nil {
		a.reportError(err)
	}
	return out.String(), errOut.String(), err
}

func (c *cli) createPatient(mrn string, firstName string) models.Patient {
	c.t.Helper()
	out, _, err := c.run("patients", "create",
		"--mrn", mrn,
		"--first-name", firstName,
		"--last-name", "Smith",
		"--dob", "1985-03-15",
		"--gender", "M",
		"--phone", "555-0101",
		"--address", "123 Main St, Anytown, ST 12345",
		"--emergency-name", "Jane Smith",
		"--emergency-phone", "555-0102",
		"--json",
	)
	assert.NilError(c.t, err)
	var patient models.Patient
	assert.NilError(c.t, json.Unmarshal([]byte(out), &patient))
	return patient
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPatients_CreateListShowUpdateDelete(t *testing.T) {
	c := newCLI(t)

	patient := c.createPatient("MRN100", "John")
	assert.Assert(t, patient.ID > 0)
	assert.Equal(t, patient.FullName(), "John Smith")
	id := strconv.Itoa(patient.ID)

	out, _, err := c.run("patients", "list")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "MRN100"))
	assert.Check(t, is.Contains(out, "John Smith"))
	assert.Check(t, is.Contains(out, "1 of 1 patients"))

	out, _, err = c.run("patients", "show", id, "--section", "medications")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Date of birth:"))
	assert.Check(t, is.Contains(out, "1985-03-15"))
	assert.Check(t, is.Contains(out, "Medications"))
	assert.Check(t, !strings.Contains(out, "Appointments"))

	out, _, err = c.run("patients", "update", id, "--first-name", "Johnny", "--blood-type", "O+")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Updated patient "+id+": Johnny Smith (MRN100)"))

	out, _, err = c.run("patients", "show", id, "--json")
	assert.NilError(t, err)
	var chart struct {
		Patient models.Patient
	}
	assert.NilError(t, json.Unmarshal([]byte(out), &chart))
	assert.Equal(t, chart.Patient.BloodType, "O+")
	assert.Equal(t, chart.Patient.Phone, "555-0101")

	out, _, err = c.run("patients", "delete", id)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Deleted patient "+id))
	assert.Equal(t, c.server.Count("patients"), 0)

	_, errOut, err := c.run("patients", "show", id)
	assert.Assert(t, ehr.IsNotFound(err))
	assert.Check(t, is.Contains(errOut, "Error: Not found."))
}

func TestPatients_ValidationErrorPrintsFields(t *testing.T) {
	c := newCLI(t)

	_, errOut, err := c.run("patients", "create", "--mrn", "MRN200")
	assert.Equal(t, ehr.StatusCode(err), 400)
	assert.Check(t, is.Contains(errOut, "Error: HTTP 400: Bad Request"))
	assert.Check(t, is.Contains(errOut, "  first_name: This field may not be blank."))
	assert.Check(t, is.Contains(errOut, "  phone: This field may not be blank."))
	assert.Equal(t, c.server.Count("patients"), 0)
}

func TestPatients_InvalidArguments(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("patients", "show", "abc")
	assert.ErrorContains(t, err, `invalid id "abc"`)

	_, _, err = c.run("patients", "create", "--dob", "15.03.1985")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")

	_, _, err = c.run("patients", "show", "1", "--section", "billing")
	assert.ErrorContains(t, err, `unknown section "billing"`)
}

func TestRecords_AddFromFile(t *testing.T) {
	c := newCLI(t)
	patient := c.createPatient("MRN300", "John")

	path := writeFile(t, "record.json", `{
		"visit_date": "2024-01-10T09:30:00Z",
		"doctor_name": "Dr. Smith",
		"chief_complaint": "Severe headaches",
		"diagnosis": "Migraine",
		"treatment_plan": "Preventive medication"
	}`)
	out, _, err := c.run("records", "add", "--patient", strconv.Itoa(patient.ID), "--file", path)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "for John Smith: Severe headaches"))
	assert.Equal(t, c.server.Count("medical-records"), 1)

	vitals := writeFile(t, "vitals.json", `{
		"recorded_at": "2024-01-10T09:35:00Z",
		"blood_pressure_systolic": 120,
		"blood_pressure_diastolic": 80,
		"heart_rate": 72,
		"temperature": "98.6",
		"weight": 170.5
	}`)
	out, _, err = c.run("vitals", "add", "--patient", strconv.Itoa(patient.ID), "--file", vitals)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "BP 120/80, HR 72"))

	out, _, err = c.run("patients", "show", strconv.Itoa(patient.ID), "--section", "vital-signs")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "98.6"))
	assert.Check(t, is.Contains(out, "170.50"))
}

func TestRecords_AddRejectsOutOfRangeVitals(t *testing.T) {
	c := newCLI(t)
	patient := c.createPatient("MRN310", "John")

	vitals := writeFile(t, "vitals.json", `{
		"recorded_at": "2024-01-10T09:35:00Z",
		"blood_pressure_systolic": 120,
		"blood_pressure_diastolic": 80,
		"heart_rate": 72,
		"temperature": 120,
		"weight": 170
	}`)
	_, errOut, err := c.run("vitals", "add", "--patient", strconv.Itoa(patient.ID), "--file", vitals)
	assert.Equal(t, ehr.StatusCode(err), 400)
	assert.Check(t, is.Contains(errOut, "temperature:"))
	assert.Equal(t, c.server.Count("vital-signs"), 0)
}

func TestAppointments_SetStatus(t *testing.T) {
	c := newCLI(t)
	patient := c.createPatient("MRN400", "John")

	path := writeFile(t, "appointment.json", `{
		"appointment_date": "2030-05-01T14:00:00Z",
		"doctor_name": "Dr. Brown",
		"department": "Cardiology",
		"reason": "Follow-up visit"
	}`)
	out, _, err := c.run("appointments", "add", "--patient", strconv.Itoa(patient.ID), "--file", path, "--json")
	assert.NilError(t, err)
	var appointment models.Appointment
	assert.NilError(t, json.Unmarshal([]byte(out), &appointment))
	assert.Equal(t, appointment.Status, models.StatusScheduled)

	id := strconv.Itoa(appointment.ID)
	out, _, err = c.run("appointments", "set-status", id, "confirmed")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Appointment "+id+" is now confirmed"))

	_, _, err = c.run("appointments", "set-status", id, "postponed")
	assert.Equal(t, ehr.StatusCode(err), 400)
}

func TestSeed(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("seed", "--patients", "3", "--seed", "7", "--workers", "2")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Loaded 3 of 3 patients"))
	assert.Check(t, is.Contains(out, "✓ Created patient John Doe"))
	assert.Equal(t, c.server.Count("patients"), 3)
	assert.Assert(t, c.server.Count("vital-signs") >= 6)

	out, _, err = c.run("seed", "--patients", "1", "--clear")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Deleted 3 existing patients"))
	assert.Equal(t, c.server.Count("patients"), 1)
}

func TestImport(t *testing.T) {
	c := newCLI(t)

	bundles := ehr.SampleBundles(2, rand.New(rand.NewSource(1)), time.Now())
	data, err := json.Marshal(bundles)
	assert.NilError(t, err)
	path := writeFile(t, "bundles.json", string(data))

	out, _, err := c.run("import", path)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Loaded 2 of 2 patients"))
	records := c.server.Count("medical-records")

	_, errOut, err := c.run("import", path)
	assert.ErrorContains(t, err, "2 of 2 patients failed to load")
	assert.Check(t, is.Contains(errOut, "✗ create patient "+bundles[0].Patient.MedicalRecordNumber))
	assert.Equal(t, c.server.Count("patients"), 2)

	out, _, err = c.run("import", path, "--reuse-existing")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "✓ Updated patient"))
	assert.Equal(t, c.server.Count("patients"), 2)
	assert.Equal(t, c.server.Count("medical-records"), 2*records)
}

func TestImport_InvalidFile(t *testing.T) {
	c := newCLI(t)
	path := writeFile(t, "bundles.json", `{"patient": `)

	_, _, err := c.run("import", path)
	assert.ErrorContains(t, err, "parse "+path)
}

func TestPing(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("ping")
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, c.apiURL+" is up"))
}

func TestPing_Unreachable(t *testing.T) {
	c := newCLI(t)
	c.apiURL = "http://127.0.0.1:1/api"

	_, errOut, err := c.run("ping")
	assert.Equal(t, ehr.StatusCode(err), 0)
	assert.Check(t, is.Contains(errOut, "Error: network error"))
}

func TestMetricsFile(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "ehr.prom")
	t.Setenv("EHR_METRICS_FILE", path)

	_, _, err := c.run("patients", "list")
	assert.NilError(t, err)

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(string(data), `ehr_client_requests_total{code="200",method="GET",resource="patients"} 1`))
}

func TestDetailLines(t *testing.T) {
	lines := detailLines(map[string]interface{}{
		"detail":                "ignored",
		"medical_record_number": []interface{}{"patient with this medical record number already exists."},
		"email":                 []interface{}{"Enter a valid email address.", "Ensure this field has no more than 254 characters."},
	})
	assert.DeepEqual(t, lines, []string{
		"email: Enter a valid email address. Ensure this field has no more than 254 characters.",
		"medical_record_number: patient with this medical record number already exists.",
	})
}

func TestCommands_EmptyResponseBody(t *testing.T) {
	c := newCLI(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/patients/1/":
			_, _ = w.Write([]byte(`{"id": 1, "medical_record_number": "MRN1", "first_name": "John", "last_name": "Smith", "date_of_birth": "1985-03-15", "gender": "M"}`))
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()
	c.apiURL = srv.URL + "/api"

	_, _, err := c.run("patients", "create", "--mrn", "MRN1")
	assert.ErrorContains(t, err, "the server did not return the created patient")

	_, _, err = c.run("patients", "update", "1", "--first-name", "Johnny")
	assert.ErrorContains(t, err, "the server did not return the updated patient 1")

	_, _, err = c.run("patients", "update", "2", "--first-name", "Johnny")
	assert.ErrorContains(t, err, "the server did not return patient 2")

	_, _, err = c.run("appointments", "set-status", "3", "confirmed")
	assert.ErrorContains(t, err, "the server did not return appointment 3")
}
