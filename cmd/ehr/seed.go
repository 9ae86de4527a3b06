package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/GyroTools/ehr-connector-go/ehr"
)

func (a *app) seedCmd() *cobra.Command {
	var nrPatients, workers int
	var clearFirst bool
	var seed int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the backend with sample patients and their records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if nrPatients < 0 {
				return fmt.Errorf("--patients must not be negative")
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			loader := ehr.NewLoader(e, workers, a.logger)
			if clearFirst {
				deleted, err := loader.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %d existing patients\n", deleted)
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			bundles := ehr.SampleBundles(nrPatients, rand.New(rand.NewSource(seed)), time.Now())
			return a.load(cmd, loader, bundles)
		},
	}
	cmd.Flags().IntVar(&nrPatients, "patients", 5, "Number of patients to create")
	cmd.Flags().IntVar(&workers, "workers", ehr.PARALLEL_LOADS, "Number of parallel workers")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Delete all patients before seeding")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for reproducible sample data")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var workers int
	var reuse bool
	cmd := &cobra.Command{
		Use:   "import <bundles.json>",
		Short: "Create patients with their records from a JSON file",
		Long:  "Create patients with their records from a JSON array of bundles: {\"patient\": {...}, \"medical_records\": [...], \"medications\": [...], \"vital_signs\": [...], \"appointments\": [...]}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bundles []ehr.PatientBundle
			if err := readJSON(args[0], &bundles); err != nil {
				return err
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			loader := ehr.NewLoader(e, workers, a.logger)
			loader.ReuseExisting = reuse
			return a.load(cmd, loader, bundles)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", ehr.PARALLEL_LOADS, "Number of parallel workers")
	cmd.Flags().BoolVar(&reuse, "reuse-existing", false, "Add records to patients that already exist with the same medical record number")
	return cmd
}

// load runs the loader and prints one line per bundle as results arrive.
func (a *app) load(cmd *cobra.Command, loader *ehr.Loader, bundles []ehr.PatientBundle) error {
	progress := make(chan ehr.LoadProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			switch p.Type {
			case ehr.TypeBundleCompleted:
				res := p.Data.(ehr.BundleResult)
				verb := "Created"
				if res.Existed {
					verb = "Updated"
				}
				fmt.Fprintf(a.out, "✓ %s patient %s %s (%s): %d records, %d medications, %d vital signs, %d appointments\n",
					verb, res.Patient.FirstName, res.Patient.LastName, res.MedicalRecordNumber,
					res.NrMedicalRecords, res.NrMedications, res.NrVitalSigns, res.NrAppointments)
			case ehr.TypeBundleError:
				res := p.Data.(ehr.BundleResult)
				fmt.Fprintf(a.errOut, "✗ %s\n", res.Err)
			}
		}
	}()

	result, err := loader.Load(cmd.Context(), bundles, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Loaded %d of %d patients with %d medical records, %d medications, %d vital signs and %d appointments\n",
		result.NrLoaded, result.NrBundles, result.NrMedicalRecords, result.NrMedications, result.NrVitalSigns, result.NrAppointments)
	if result.NrFailed > 0 {
		return fmt.Errorf("%d of %d patients failed to load", result.NrFailed, result.NrBundles)
	}
	return nil
}
