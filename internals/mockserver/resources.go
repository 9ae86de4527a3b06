package mockserver

type fieldKind int

const (
	kindText fieldKind = iota
	kindEmail
	kindDate
	kindDateTime
	kindInt
	kindDecimal
	kindBool
	kindChoice
	kindPatient
)

type field struct {
	name     string
	kind     fieldKind
	required bool
	blank    bool
	nullable bool
	unique   bool
	maxLen   int
	choices  []string
	places   int32
	min      *float64
	max      *float64
	def      interface{}
}

func bound(v float64) *float64 {
	return &v
}

type resource struct {
	name            string
	label           string
	fields          []field
	defaultOrdering string
	orderingFields  []string
	searchFields    []string
	childOfPatient  bool
}

func (r *resource) field(name string) (field, bool) {
	for _, f := range r.fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

func (r *resource) orderable(name string) bool {
	for _, f := range r.orderingFields {
		if f == name {
			return true
		}
	}
	return false
}

var (
	patients = &resource{
		name:  "patients",
		label: "patient",
		fields: []field{
			{name: "medical_record_number", kind: kindText, required: true, maxLen: 20, unique: true},
			{name: "first_name", kind: kindText, required: true, maxLen: 100},
			{name: "last_name", kind: kindText, required: true, maxLen: 100},
			{name: "date_of_birth", kind: kindDate, required: true},
			{name: "gender", kind: kindChoice, required: true, choices: []string{"M", "F", "O"}},
			{name: "blood_type", kind: kindChoice, blank: true, choices: []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}, def: ""},
			{name: "phone", kind: kindText, required: true, maxLen: 20},
			{name: "email", kind: kindEmail, blank: true, def: ""},
			{name: "address", kind: kindText, required: true},
			{name: "emergency_contact_name", kind: kindText, required: true, maxLen: 200},
			{name: "emergency_contact_phone", kind: kindText, required: true, maxLen: 20},
		},
		defaultOrdering: "-created_at",
		orderingFields:  []string{"created_at", "last_name", "first_name"},
		searchFields:    []string{"first_name", "last_name", "medical_record_number", "email"},
	}

	medicalRecords = &resource{
		name:  "medical-records",
		label: "medical record",
		fields: []field{
			{name: "patient", kind: kindPatient, required: true},
			{name: "visit_date", kind: kindDateTime, required: true},
			{name: "chief_complaint", kind: kindText, required: true},
			{name: "diagnosis", kind: kindText, required: true},
			{name: "treatment_plan", kind: kindText, required: true},
			{name: "notes", kind: kindText, blank: true, def: ""},
			{name: "doctor_name", kind: kindText, required: true, maxLen: 200},
		},
		defaultOrdering: "-visit_date",
		orderingFields:  []string{"visit_date", "created_at"},
		childOfPatient:  true,
	}

	medications = &resource{
		name:  "medications",
		label: "medication",
		fields: []field{
			{name: "patient", kind: kindPatient, required: true},
			{name: "medication_name", kind: kindText, required: true, maxLen: 200},
			{name: "dosage", kind: kindText, required: true, maxLen: 100},
			{name: "frequency", kind: kindText, required: true, maxLen: 100},
			{name: "start_date", kind: kindDate, required: true},
			{name: "end_date", kind: kindDate, nullable: true, def: nil},
			{name: "prescribing_doctor", kind: kindText, required: true, maxLen: 200},
			{name: "notes", kind: kindText, blank: true, def: ""},
			{name: "is_active", kind: kindBool, def: true},
		},
		defaultOrdering: "-start_date",
		orderingFields:  []string{"start_date", "created_at"},
		childOfPatient:  true,
	}

	vitalSigns = &resource{
		name:  "vital-signs",
		label: "vital sign",
		fields: []field{
			{name: "patient", kind: kindPatient, required: true},
			{name: "recorded_at", kind: kindDateTime, required: true},
			{name: "blood_pressure_systolic", kind: kindInt, required: true, min: bound(0), max: bound(300)},
			{name: "blood_pressure_diastolic", kind: kindInt, required: true, min: bound(0), max: bound(200)},
			{name: "heart_rate", kind: kindInt, required: true, min: bound(0), max: bound(300)},
			{name: "temperature", kind: kindDecimal, required: true, places: 1, min: bound(90), max: bound(110)},
			{name: "weight", kind: kindDecimal, required: true, places: 2, min: bound(0)},
			{name: "height", kind: kindDecimal, nullable: true, places: 2, min: bound(0), def: nil},
			{name: "oxygen_saturation", kind: kindInt, nullable: true, min: bound(0), max: bound(100), def: nil},
			{name: "notes", kind: kindText, blank: true, def: ""},
		},
		defaultOrdering: "-recorded_at",
		orderingFields:  []string{"recorded_at", "created_at"},
		childOfPatient:  true,
	}

	appointments = &resource{
		name:  "appointments",
		label: "appointment",
		fields: []field{
			{name: "patient", kind: kindPatient, required: true},
			{name: "appointment_date", kind: kindDateTime, required: true},
			{name: "doctor_name", kind: kindText, required: true, maxLen: 200},
			{name: "department", kind: kindText, required: true, maxLen: 100},
			{name: "reason", kind: kindText, required: true},
			{name: "status", kind: kindChoice, choices: []string{"scheduled", "confirmed", "completed", "cancelled", "no_show"}, def: "scheduled"},
			{name: "notes", kind: kindText, blank: true, def: ""},
		},
		defaultOrdering: "-appointment_date",
		orderingFields:  []string{"appointment_date", "created_at"},
		childOfPatient:  true,
	}

	resources = []*resource{patients, medicalRecords, medications, vitalSigns, appointments}
)
