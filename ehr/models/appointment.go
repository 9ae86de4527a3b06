package models

import (
	"context"
	"fmt"
	"time"

	"github.com/GyroTools/ehr-connector-go/internals/http"
)

const AppointmentURL = "appointments/"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

var AppointmentStatuses = []AppointmentStatus{
	StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow,
}

func (s AppointmentStatus) Valid() bool {
	for _, status := range AppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID              int               `json:"id"`
	Patient         int               `json:"patient"`
	PatientName     string            `json:"patient_name"`
	AppointmentDate time.Time         `json:"appointment_date"`
	DoctorName      string            `json:"doctor_name"`
	Department      string            `json:"department"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	http.BaseModel
}

// AppointmentInput leaves Status empty to take the server default (scheduled).
type AppointmentInput struct {
	Patient         int               `json:"patient"`
	AppointmentDate time.Time         `json:"appointment_date"`
	DoctorName      string            `json:"doctor_name"`
	Department      string            `json:"department"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status,omitempty"`
	Notes           string            `json:"notes"`
}

// AppointmentPatch is a partial update: only non-nil fields are sent and the
// server leaves every other field unchanged.
type AppointmentPatch struct {
	AppointmentDate *time.Time         `json:"appointment_date,omitempty"`
	DoctorName      *string            `json:"doctor_name,omitempty"`
	Department      *string            `json:"department,omitempty"`
	Reason          *string            `json:"reason,omitempty"`
	Status          *AppointmentStatus `json:"status,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

func AppointmentPath(id int) string {
	return fmt.Sprintf("%s%d/", AppointmentURL, id)
}

// SetStatus patches the appointment's status and reloads it from the response.
func (appointment *Appointment) SetStatus(ctx context.Context, status AppointmentStatus) error {
	updated, err := http.Request[Appointment](ctx, appointment.Client, AppointmentPath(appointment.ID), http.Options{
		Method: "PATCH",
		Body:   AppointmentPatch{Status: &status},
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("appointment %d: empty response", appointment.ID)
	}
	*appointment = *updated
	return nil
}
