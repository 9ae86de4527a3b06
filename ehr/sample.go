package ehr

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
)

var basePatients = []models.PatientInput{
	{FirstName: "John", LastName: "Doe", DateOfBirth: date(1985, 3, 15), Gender: models.GenderMale, BloodType: "A+", Phone: "555-0101", Email: "john.doe@email.com", Address: "123 Main St, Anytown, ST 12345", EmergencyContactName: "Jane Doe", EmergencyContactPhone: "555-0102"},
	{FirstName: "Sarah", LastName: "Johnson", DateOfBirth: date(1990, 7, 22), Gender: models.GenderFemale, BloodType: "B+", Phone: "555-0201", Email: "sarah.johnson@email.com", Address: "456 Oak Ave, Somewhere, ST 67890", EmergencyContactName: "Michael Johnson", EmergencyContactPhone: "555-0202"},
	{FirstName: "Robert", LastName: "Smith", DateOfBirth: date(1978, 11, 8), Gender: models.GenderMale, BloodType: "O-", Phone: "555-0301", Email: "robert.smith@email.com", Address: "789 Pine Rd, Elsewhere, ST 13579", EmergencyContactName: "Mary Smith", EmergencyContactPhone: "555-0302"},
	{FirstName: "Emily", LastName: "Davis", DateOfBirth: date(1995, 12, 3), Gender: models.GenderFemale, BloodType: "AB+", Phone: "555-0401", Email: "emily.davis@email.com", Address: "321 Elm St, Nowhere, ST 24680", EmergencyContactName: "James Davis", EmergencyContactPhone: "555-0402"},
	{FirstName: "Michael", LastName: "Wilson", DateOfBirth: date(1982, 5, 17), Gender: models.GenderMale, BloodType: "A-", Phone: "555-0501", Email: "michael.wilson@email.com", Address: "654 Maple Dr, Anywhere, ST 97531", EmergencyContactName: "Lisa Wilson", EmergencyContactPhone: "555-0502"},
}

var (
	sampleFirstNames = map[models.Gender][]string{
		models.GenderMale:   {"James", "William", "Benjamin", "Lucas", "Henry", "Alexander", "Mason", "Ethan", "Daniel", "Matthew"},
		models.GenderFemale: {"Emma", "Olivia", "Ava", "Isabella", "Sophia", "Charlotte", "Mia", "Amelia", "Harper", "Evelyn"},
	}
	sampleLastNames = []string{"Anderson", "Taylor", "Thomas", "Jackson", "White", "Harris", "Martin", "Garcia", "Martinez", "Robinson"}
	sampleStreets   = []string{"Main", "Oak", "Pine", "Elm", "Maple"}
	sampleSuffixes  = []string{"St", "Ave", "Rd", "Dr"}
	sampleTowns     = []string{"Anytown", "Somewhere", "Elsewhere"}
	sampleDoctors   = []string{"Dr. Smith", "Dr. Johnson", "Dr. Williams", "Dr. Brown", "Dr. Davis", "Dr. Miller", "Dr. Wilson"}

	sampleConditions = [][3]string{
		{"Hypertension", "Regular monitoring of blood pressure", "Continue medication and lifestyle changes"},
		{"Type 2 Diabetes", "Blood sugar management", "Metformin 500mg twice daily, diet modification"},
		{"Annual Physical", "Routine health check", "All vitals normal, continue current health practices"},
		{"Common Cold", "Upper respiratory symptoms", "Rest, fluids, symptomatic treatment"},
		{"Allergic Reaction", "Seasonal allergies", "Antihistamine as needed, avoid known triggers"},
		{"Back Pain", "Lower back strain", "Physical therapy, pain management"},
		{"Migraine", "Severe headaches", "Preventive medication, lifestyle modifications"},
		{"Anxiety", "Generalized anxiety symptoms", "Counseling, stress management techniques"},
	}
	sampleMedications = [][3]string{
		{"Lisinopril", "10mg", "Once daily"},
		{"Metformin", "500mg", "Twice daily"},
		{"Ibuprofen", "200mg", "As needed for pain"},
		{"Vitamin D3", "1000 IU", "Once daily"},
		{"Omeprazole", "20mg", "Once daily before breakfast"},
		{"Atorvastatin", "20mg", "Once daily at bedtime"},
		{"Amoxicillin", "500mg", "Three times daily"},
		{"Aspirin", "81mg", "Once daily"},
	}
	sampleDepartments = []string{"Cardiology", "Internal Medicine", "Family Practice", "Dermatology", "Orthopedics", "Neurology", "Psychiatry"}
	sampleReasons     = []string{"Annual physical exam", "Follow-up visit", "Blood pressure check", "Medication review", "Consultation", "Routine checkup", "Lab results review", "Specialist referral"}
)

func date(year int, month time.Month, day int) types.Date {
	return types.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

// between returns a random int in [lo, hi].
func between(rng *rand.Rand, lo int, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// SampleBundles generates n patients with medical records, medications, vital
// signs and appointments relative to now. The first five patients are fixed;
// the rest are random. Every medical record number carries a random suffix so
// repeated runs do not collide.
func SampleBundles(n int, rng *rand.Rand, now time.Time) []PatientBundle {
	bundles := make([]PatientBundle, 0, n)
	for i := 0; i < n; i++ {
		var patient models.PatientInput
		if i < len(basePatients) {
			patient = basePatients[i]
		} else {
			patient = randomPatient(rng)
		}
		patient.MedicalRecordNumber = sampleMRN(i + 1)

		bundle := PatientBundle{Patient: patient}
		for j := between(rng, 1, 3); j > 0; j-- {
			bundle.MedicalRecords = append(bundle.MedicalRecords, sampleMedicalRecord(rng, now))
		}
		for j := between(rng, 0, 2); j > 0; j-- {
			bundle.Medications = append(bundle.Medications, sampleMedication(rng, now))
		}
		for j := between(rng, 2, 5); j > 0; j-- {
			bundle.VitalSigns = append(bundle.VitalSigns, sampleVitalSign(rng, now))
		}
		for j := between(rng, 1, 3); j > 0; j-- {
			bundle.Appointments = append(bundle.Appointments, sampleAppointment(rng, now))
		}
		bundles = append(bundles, bundle)
	}
	return bundles
}

func sampleMRN(nr int) string {
	return fmt.Sprintf("MRN%03d-%s", nr, strings.ToUpper(uuid.New().String()[:8]))
}

func randomPatient(rng *rand.Rand) models.PatientInput {
	gender := pick(rng, []models.Gender{models.GenderMale, models.GenderFemale})
	firstName := pick(rng, sampleFirstNames[gender])
	lastName := pick(rng, sampleLastNames)
	return models.PatientInput{
		FirstName:             firstName,
		LastName:              lastName,
		DateOfBirth:           date(between(rng, 1950, 2010), time.Month(between(rng, 1, 12)), between(rng, 1, 28)),
		Gender:                gender,
		BloodType:             pick(rng, models.BloodTypes),
		Phone:                 fmt.Sprintf("555-%d", between(rng, 1000, 9999)),
		Email:                 fmt.Sprintf("%s.%s@email.com", strings.ToLower(firstName), strings.ToLower(lastName)),
		Address:               fmt.Sprintf("%d %s %s, %s, ST %d", between(rng, 100, 9999), pick(rng, sampleStreets), pick(rng, sampleSuffixes), pick(rng, sampleTowns), between(rng, 10000, 99999)),
		EmergencyContactName:  fmt.Sprintf("%s %s", pick(rng, sampleFirstNames[gender]), lastName),
		EmergencyContactPhone: fmt.Sprintf("555-%d", between(rng, 1000, 9999)),
	}
}

func daysAgo(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days).UTC().Truncate(time.Second)
}

func sampleMedicalRecord(rng *rand.Rand, now time.Time) models.MedicalRecordInput {
	condition := pick(rng, sampleConditions)
	return models.MedicalRecordInput{
		VisitDate:      daysAgo(now, between(rng, 1, 180)),
		DoctorName:     pick(rng, sampleDoctors),
		ChiefComplaint: condition[0],
		Diagnosis:      condition[1],
		TreatmentPlan:  condition[2],
		Notes:          fmt.Sprintf("Follow-up recommended in %d months", between(rng, 1, 6)),
	}
}

func sampleMedication(rng *rand.Rand, now time.Time) models.MedicationInput {
	medication := pick(rng, sampleMedications)
	start := daysAgo(now, between(rng, 1, 90))
	// three out of four are active
	active := rng.Intn(4) != 0
	return models.MedicationInput{
		MedicationName:    medication[0],
		Dosage:            medication[1],
		Frequency:         medication[2],
		PrescribingDoctor: pick(rng, sampleDoctors),
		StartDate:         date(start.Year(), start.Month(), start.Day()),
		IsActive:          &active,
	}
}

func sampleVitalSign(rng *rand.Rand, now time.Time) models.VitalSignInput {
	vital := models.VitalSignInput{
		RecordedAt:             daysAgo(now, between(rng, 1, 180)),
		BloodPressureSystolic:  between(rng, 110, 140),
		BloodPressureDiastolic: between(rng, 70, 90),
		HeartRate:              between(rng, 60, 100),
		Temperature:            models.DecimalFromInt(int64(between(rng, 970, 995)), -1),
		Weight:                 models.DecimalFromInt(int64(between(rng, 12000, 22000)), -2),
	}
	if rng.Intn(2) == 0 {
		height := models.DecimalFromInt(int64(between(rng, 6000, 7500)), -2)
		vital.Height = &height
	}
	if rng.Intn(2) == 0 {
		saturation := between(rng, 95, 100)
		vital.OxygenSaturation = &saturation
	}
	return vital
}

func sampleAppointment(rng *rand.Rand, now time.Time) models.AppointmentInput {
	appointment := models.AppointmentInput{
		DoctorName: pick(rng, sampleDoctors),
		Department: pick(rng, sampleDepartments),
		Reason:     pick(rng, sampleReasons),
	}
	if rng.Intn(2) == 0 {
		appointment.AppointmentDate = daysAgo(now, between(rng, 1, 90))
		appointment.Status = pick(rng, []models.AppointmentStatus{models.StatusCompleted, models.StatusCompleted, models.StatusNoShow})
	} else {
		appointment.AppointmentDate = daysAgo(now, -between(rng, 1, 60))
		appointment.Status = pick(rng, []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed})
	}
	return appointment
}
