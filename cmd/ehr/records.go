package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/ehr/models"
)

// addCmd builds an "add" command creating one child record of type I from a
// JSON file. --patient overrides the patient id in the file.
func addCmd[I any, T any](a *app, what string, create func(e *ehr.EHR) func(context.Context, I) (*T, error), setPatient func(*I, int), describe func(*T) string) *cobra.Command {
	var patientID int
	var file string
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s to a patient", what),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input I
			if err := readJSON(file, &input); err != nil {
				return err
			}
			if cmd.Flags().Changed("patient") {
				setPatient(&input, patientID)
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			created, err := create(e)(cmd.Context(), input)
			if err != nil {
				return err
			}
			if created == nil {
				return fmt.Errorf("the server did not return the created %s", what)
			}
			if a.jsonOut {
				return a.printJSON(created)
			}
			fmt.Fprintf(a.out, "Created %s\n", describe(created))
			return nil
		},
	}
	cmd.Flags().IntVar(&patientID, "patient", 0, "Patient id")
	cmd.Flags().StringVar(&file, "file", "-", "JSON file with the record (- for stdin)")
	return cmd
}

func (a *app) recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"medical-records"},
		Short:   "Manage medical records",
	}
	cmd.AddCommand(addCmd(a, "medical record",
		func(e *ehr.EHR) func(context.Context, models.MedicalRecordInput) (*models.MedicalRecord, error) {
			return e.MedicalRecords.Create
		},
		func(in *models.MedicalRecordInput, id int) { in.Patient = id },
		func(r *models.MedicalRecord) string {
			return fmt.Sprintf("medical record %d for %s: %s", r.ID, r.PatientName, r.ChiefComplaint)
		},
	))
	return cmd
}

func (a *app) medicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medications",
		Short: "Manage medications",
	}
	cmd.AddCommand(addCmd(a, "medication",
		func(e *ehr.EHR) func(context.Context, models.MedicationInput) (*models.Medication, error) {
			return e.Medications.Create
		},
		func(in *models.MedicationInput, id int) { in.Patient = id },
		func(m *models.Medication) string {
			return fmt.Sprintf("medication %d for %s: %s %s", m.ID, m.PatientName, m.MedicationName, m.Dosage)
		},
	))
	return cmd
}

func (a *app) vitalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vitals",
		Aliases: []string{"vital-signs"},
		Short:   "Manage vital signs",
	}
	cmd.AddCommand(addCmd(a, "vital sign",
		func(e *ehr.EHR) func(context.Context, models.VitalSignInput) (*models.VitalSign, error) {
			return e.VitalSigns.Create
		},
		func(in *models.VitalSignInput, id int) { in.Patient = id },
		func(v *models.VitalSign) string {
			return fmt.Sprintf("vital signs %d for %s: BP %s, HR %d", v.ID, v.PatientName, v.BloodPressure(), v.HeartRate)
		},
	))
	return cmd
}

func (a *app) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Manage appointments",
	}
	cmd.AddCommand(addCmd(a, "appointment",
		func(e *ehr.EHR) func(context.Context, models.AppointmentInput) (*models.Appointment, error) {
			return e.Appointments.Create
		},
		func(in *models.AppointmentInput, id int) { in.Patient = id },
		func(ap *models.Appointment) string {
			return fmt.Sprintf("appointment %d for %s with %s (%s)", ap.ID, ap.PatientName, ap.DoctorName, ap.Status)
		},
	))
	cmd.AddCommand(a.appointmentsSetStatusCmd())
	return cmd
}

func (a *app) appointmentsSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-status <id> <status>",
		Short:     "Change the status of an appointment",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"scheduled", "confirmed", "completed", "cancelled", "no_show"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			appointment, err := e.Appointments.SetStatus(cmd.Context(), id, models.AppointmentStatus(args[1]))
			if err != nil {
				return err
			}
			if appointment == nil {
				return fmt.Errorf("the server did not return appointment %d", id)
			}
			if a.jsonOut {
				return a.printJSON(appointment)
			}
			fmt.Fprintf(a.out, "Appointment %d is now %s\n", appointment.ID, appointment.Status)
			return nil
		},
	}
}
