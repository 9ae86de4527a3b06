package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
)

const (
	sectionAll            = "all"
	sectionMedicalRecords = "medical-records"
	sectionMedications    = "medications"
	sectionVitalSigns     = "vital-signs"
	sectionAppointments   = "appointments"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseDate(value string) (types.Date, error) {
	t, err := time.Parse(types.DateFormat, value)
	if err != nil {
		return types.Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return types.Date{Time: t}, nil
}

func (a *app) patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"patient"},
		Short:   "List, show and manage patients",
	}
	cmd.AddCommand(a.patientsListCmd())
	cmd.AddCommand(a.patientsShowCmd())
	cmd.AddCommand(a.patientsCreateCmd())
	cmd.AddCommand(a.patientsUpdateCmd())
	cmd.AddCommand(a.patientsDeleteCmd())
	return cmd
}

func (a *app) patientsListCmd() *cobra.Command {
	var search, ordering string
	var page int
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.connector()
			if err != nil {
				return err
			}
			var opts []models.ListOption
			if search != "" {
				opts = append(opts, models.Search(search))
			}
			if ordering != "" {
				opts = append(opts, models.Ordering(ordering))
			}

			if all {
				patients, err := e.Patients.ListAll(cmd.Context(), opts...)
				if err != nil {
					return err
				}
				return a.printPatients(patients)
			}

			if page > 1 {
				opts = append(opts, models.PageNumber(page))
			}
			result, err := e.Patients.List(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			if err := a.printPatients(result.Results); err != nil {
				return err
			}
			if !a.jsonOut {
				fmt.Fprintf(a.out, "\n%d of %d patients\n", len(result.Results), result.Count)
				if result.HasNext() {
					fmt.Fprintln(a.out, "more results available, use --page or --all")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Search name, medical record number and email")
	cmd.Flags().StringVar(&ordering, "ordering", "", "Order by created_at, last_name or first_name; prefix with - to reverse")
	cmd.Flags().IntVar(&page, "page", 1, "Page to show")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}

func (a *app) patientsShowCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a patient with records, medications, vital signs and appointments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			switch section {
			case sectionAll, sectionMedicalRecords, sectionMedications, sectionVitalSigns, sectionAppointments:
			default:
				return fmt.Errorf("unknown section %q", section)
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			chart, err := e.GetPatientChart(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printChart(chart, section)
		},
	}
	cmd.Flags().StringVar(&section, "section", sectionAll, "Section to show: medical-records, medications, vital-signs, appointments or all")
	return cmd
}

// patientFlags binds one flag per patient form field.
type patientFlags struct {
	mrn, firstName, lastName, dateOfBirth, gender, bloodType string
	phone, email, address, emergencyName, emergencyPhone     string
	file                                                     string
}

func (f *patientFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.mrn, "mrn", "", "Medical record number")
	flags.StringVar(&f.firstName, "first-name", "", "First name")
	flags.StringVar(&f.lastName, "last-name", "", "Last name")
	flags.StringVar(&f.dateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	flags.StringVar(&f.gender, "gender", "", "Gender: M, F or O")
	flags.StringVar(&f.bloodType, "blood-type", "", "Blood type, e.g. A+")
	flags.StringVar(&f.phone, "phone", "", "Phone number")
	flags.StringVar(&f.email, "email", "", "Email address")
	flags.StringVar(&f.address, "address", "", "Postal address")
	flags.StringVar(&f.emergencyName, "emergency-name", "", "Emergency contact name")
	flags.StringVar(&f.emergencyPhone, "emergency-phone", "", "Emergency contact phone")
	flags.StringVar(&f.file, "file", "", "Read the patient from a JSON file (- for stdin)")
}

// apply copies every flag that was set on the command line onto input.
func (f *patientFlags) apply(flags *pflag.FlagSet, input *models.PatientInput) error {
	set := func(name string, value string, target *string) {
		if flags.Changed(name) {
			*target = value
		}
	}
	set("mrn", f.mrn, &input.MedicalRecordNumber)
	set("first-name", f.firstName, &input.FirstName)
	set("last-name", f.lastName, &input.LastName)
	set("blood-type", f.bloodType, &input.BloodType)
	set("phone", f.phone, &input.Phone)
	set("email", f.email, &input.Email)
	set("address", f.address, &input.Address)
	set("emergency-name", f.emergencyName, &input.EmergencyContactName)
	set("emergency-phone", f.emergencyPhone, &input.EmergencyContactPhone)
	if flags.Changed("gender") {
		input.Gender = models.Gender(f.gender)
	}
	if flags.Changed("dob") {
		dob, err := parseDate(f.dateOfBirth)
		if err != nil {
			return err
		}
		input.DateOfBirth = dob
	}
	return nil
}

func (a *app) patientsCreateCmd() *cobra.Command {
	var f patientFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient from flags or a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input models.PatientInput
			if f.file != "" {
				if err := readJSON(f.file, &input); err != nil {
					return err
				}
			}
			if err := f.apply(cmd.Flags(), &input); err != nil {
				return err
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			patient, err := e.Patients.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			if patient == nil {
				return fmt.Errorf("the server did not return the created patient")
			}
			if a.jsonOut {
				return a.printJSON(patient)
			}
			fmt.Fprintf(a.out, "Created patient %d: %s (%s)\n", patient.ID, patient.FullName(), patient.MedicalRecordNumber)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) patientsUpdateCmd() *cobra.Command {
	var f patientFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a patient record",
		Long:  "Replace a patient record. The current record is loaded, the file and flags are applied on top and the whole record is sent back.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			current, err := e.Patients.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("the server did not return patient %d", id)
			}
			input := current.Input()
			if f.file != "" {
				if err := readJSON(f.file, &input); err != nil {
					return err
				}
			}
			if err := f.apply(cmd.Flags(), &input); err != nil {
				return err
			}
			patient, err := e.Patients.Update(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			if patient == nil {
				return fmt.Errorf("the server did not return the updated patient %d", id)
			}
			if a.jsonOut {
				return a.printJSON(patient)
			}
			fmt.Fprintf(a.out, "Updated patient %d: %s (%s)\n", patient.ID, patient.FullName(), patient.MedicalRecordNumber)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (a *app) patientsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.connector()
			if err != nil {
				return err
			}
			if err := e.Patients.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted patient %d\n", id)
			return nil
		},
	}
}
