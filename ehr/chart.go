package ehr

import (
	"context"
	"fmt"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"golang.org/x/sync/errgroup"
)

// PatientChart is everything the patient detail view shows.
type PatientChart struct {
	Patient        *models.Patient
	MedicalRecords []models.MedicalRecord
	Medications    []models.Medication
	VitalSigns     []models.VitalSign
	Appointments   []models.Appointment
}

// GetPatientChart loads the patient and its four child collections
// concurrently. If any read fails the others are canceled and no chart is
// returned.
func (e *EHR) GetPatientChart(ctx context.Context, patientID int) (*PatientChart, error) {
	g, ctx := errgroup.WithContext(ctx)
	chart := &PatientChart{}

	g.Go(func() error {
		patient, err := e.Patients.Get(ctx, patientID)
		if err != nil {
			return err
		}
		if patient == nil {
			return fmt.Errorf("patient %d: empty response", patientID)
		}
		chart.Patient = patient
		return nil
	})
	g.Go(func() error {
		page, err := e.MedicalRecords.List(ctx, patientID)
		if err != nil {
			return err
		}
		chart.MedicalRecords = page.Results
		return nil
	})
	g.Go(func() error {
		page, err := e.Medications.List(ctx, patientID)
		if err != nil {
			return err
		}
		chart.Medications = page.Results
		return nil
	})
	g.Go(func() error {
		page, err := e.VitalSigns.List(ctx, patientID)
		if err != nil {
			return err
		}
		chart.VitalSigns = page.Results
		return nil
	})
	g.Go(func() error {
		page, err := e.Appointments.List(ctx, patientID)
		if err != nil {
			return err
		}
		chart.Appointments = page.Results
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chart, nil
}

// ActiveMedications returns the medications flagged active by the server.
func (c *PatientChart) ActiveMedications() []models.Medication {
	active := []models.Medication{}
	for _, m := range c.Medications {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active
}
