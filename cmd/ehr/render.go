package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/ehr/models"
)

const timeLayout = "2006-01-02 15:04"

// detailLines flattens a validation error body into "field: message" lines.
func detailLines(details map[string]interface{}) []string {
	keys := make([]string, 0, len(details))
	for key := range details {
		if key == "detail" || key == "message" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		var msgs []string
		switch v := details[key].(type) {
		case []interface{}:
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
		default:
			msgs = append(msgs, fmt.Sprint(v))
		}
		lines = append(lines, fmt.Sprintf("%s: %s", key, strings.Join(msgs, " ")))
	}
	return lines
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func (a *app) printPatients(patients []models.Patient) error {
	if a.jsonOut {
		return a.printJSON(patients)
	}
	w := newTable(a.out)
	fmt.Fprintln(w, "ID\tMRN\tNAME\tDATE OF BIRTH\tGENDER\tPHONE\tEMAIL")
	for _, p := range patients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.MedicalRecordNumber, p.FullName(), p.DateOfBirth.String(), p.Gender.Label(), orDash(p.Phone), orDash(p.Email))
	}
	return w.Flush()
}

func (a *app) printPatient(p *models.Patient) error {
	if a.jsonOut {
		return a.printJSON(p)
	}
	w := newTable(a.out)
	fmt.Fprintf(w, "ID:\t%d\n", p.ID)
	fmt.Fprintf(w, "MRN:\t%s\n", p.MedicalRecordNumber)
	fmt.Fprintf(w, "Name:\t%s\n", p.FullName())
	fmt.Fprintf(w, "Date of birth:\t%s (age %d)\n", p.DateOfBirth.String(), p.Age(time.Now()))
	fmt.Fprintf(w, "Gender:\t%s\n", p.Gender.Label())
	fmt.Fprintf(w, "Blood type:\t%s\n", orDash(p.BloodType))
	fmt.Fprintf(w, "Phone:\t%s\n", orDash(p.Phone))
	fmt.Fprintf(w, "Email:\t%s\n", orDash(p.Email))
	fmt.Fprintf(w, "Address:\t%s\n", orDash(p.Address))
	fmt.Fprintf(w, "Emergency contact:\t%s (%s)\n", orDash(p.EmergencyContactName), orDash(p.EmergencyContactPhone))
	return w.Flush()
}

func (a *app) printMedicalRecords(records []models.MedicalRecord) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ID\tVISIT\tDOCTOR\tCHIEF COMPLAINT\tDIAGNOSIS\tTREATMENT PLAN")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, formatTime(r.VisitDate), r.DoctorName, r.ChiefComplaint, r.Diagnosis, r.TreatmentPlan)
	}
	return w.Flush()
}

func (a *app) printMedications(medications []models.Medication) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ID\tMEDICATION\tDOSAGE\tFREQUENCY\tSTART\tEND\tACTIVE\tPRESCRIBED BY")
	for _, m := range medications {
		end := "-"
		if m.EndDate != nil {
			end = m.EndDate.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n", m.ID, m.MedicationName, m.Dosage, m.Frequency, m.StartDate.String(), end, m.IsActive, m.PrescribingDoctor)
	}
	return w.Flush()
}

func (a *app) printVitalSigns(vitals []models.VitalSign) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ID\tRECORDED\tBP\tHR\tTEMP\tWEIGHT\tHEIGHT\tSPO2")
	for _, v := range vitals {
		height, saturation := "-", "-"
		if v.Height != nil {
			height = v.Height.String()
		}
		if v.OxygenSaturation != nil {
			saturation = fmt.Sprintf("%d%%", *v.OxygenSaturation)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n", v.ID, formatTime(v.RecordedAt), v.BloodPressure(), v.HeartRate, v.Temperature.String(), v.Weight.String(), height, saturation)
	}
	return w.Flush()
}

func (a *app) printAppointments(appointments []models.Appointment) error {
	w := newTable(a.out)
	fmt.Fprintln(w, "ID\tDATE\tDOCTOR\tDEPARTMENT\tREASON\tSTATUS")
	for _, ap := range appointments {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", ap.ID, formatTime(ap.AppointmentDate), ap.DoctorName, ap.Department, ap.Reason, ap.Status)
	}
	return w.Flush()
}

func (a *app) printChart(chart *ehr.PatientChart, section string) error {
	if a.jsonOut {
		return a.printJSON(chart)
	}
	if err := a.printPatient(chart.Patient); err != nil {
		return err
	}
	sections := []struct {
		name  string
		title string
		print func() error
	}{
		{sectionMedicalRecords, "Medical records", func() error { return a.printMedicalRecords(chart.MedicalRecords) }},
		{sectionMedications, "Medications", func() error { return a.printMedications(chart.Medications) }},
		{sectionVitalSigns, "Vital signs", func() error { return a.printVitalSigns(chart.VitalSigns) }},
		{sectionAppointments, "Appointments", func() error { return a.printAppointments(chart.Appointments) }},
	}
	for _, s := range sections {
		if section != sectionAll && section != s.name {
			continue
		}
		fmt.Fprintf(a.out, "\n%s\n", s.title)
		if err := s.print(); err != nil {
			return err
		}
	}
	return nil
}

// readJSON decodes a file, or stdin when path is "-".
func readJSON(path string, v interface{}) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
