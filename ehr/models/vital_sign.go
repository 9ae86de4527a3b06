package models

import (
	"fmt"
	"time"

	"github.com/GyroTools/ehr-connector-go/internals/http"
)

const VitalSignURL = "vital-signs/"

type VitalSign struct {
	ID                     int       `json:"id"`
	Patient                int       `json:"patient"`
	PatientName            string    `json:"patient_name"`
	RecordedAt             time.Time `json:"recorded_at"`
	BloodPressureSystolic  int       `json:"blood_pressure_systolic"`
	BloodPressureDiastolic int       `json:"blood_pressure_diastolic"`
	HeartRate              int       `json:"heart_rate"`
	Temperature            Decimal   `json:"temperature"`
	Weight                 Decimal   `json:"weight"`
	Height                 *Decimal  `json:"height"`
	OxygenSaturation       *int      `json:"oxygen_saturation"`
	Notes                  string    `json:"notes"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	http.BaseModel
}

// BloodPressure formats the reading as systolic/diastolic.
func (v *VitalSign) BloodPressure() string {
	return fmt.Sprintf("%d/%d", v.BloodPressureSystolic, v.BloodPressureDiastolic)
}

type VitalSignInput struct {
	Patient                int       `json:"patient"`
	RecordedAt             time.Time `json:"recorded_at"`
	BloodPressureSystolic  int       `json:"blood_pressure_systolic"`
	BloodPressureDiastolic int       `json:"blood_pressure_diastolic"`
	HeartRate              int       `json:"heart_rate"`
	Temperature            Decimal   `json:"temperature"`
	Weight                 Decimal   `json:"weight"`
	Height                 *Decimal  `json:"height"`
	OxygenSaturation       *int      `json:"oxygen_saturation"`
	Notes                  string    `json:"notes"`
}
