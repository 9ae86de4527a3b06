package ehr

import (
	"context"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	ehrHttp "github.com/GyroTools/ehr-connector-go/internals/http"
)

type PatientService struct {
	client *ehrHttp.Client
}

// List returns one page of patients. Search, Ordering and PageNumber apply.
func (s *PatientService) List(ctx context.Context, opts ...models.ListOption) (*models.Page[models.Patient], error) {
	return models.List[models.Patient](ctx, s.client, models.PatientURL, opts...)
}

// ListAll follows the next links until the last page.
func (s *PatientService) ListAll(ctx context.Context, opts ...models.ListOption) ([]models.Patient, error) {
	page, err := s.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	patients := []models.Patient{}
	for page != nil {
		patients = append(patients, page.Results...)
		page, err = models.NextPage(ctx, s.client, page)
		if err != nil {
			return nil, err
		}
	}
	return patients, nil
}

func (s *PatientService) Get(ctx context.Context, id int) (*models.Patient, error) {
	return ehrHttp.Request[models.Patient](ctx, s.client, models.PatientPath(id), ehrHttp.Options{})
}

func (s *PatientService) Create(ctx context.Context, input models.PatientInput) (*models.Patient, error) {
	return ehrHttp.Request[models.Patient](ctx, s.client, models.PatientURL, ehrHttp.Options{
		Method: "POST",
		Body:   input,
	})
}

// Update replaces the whole patient record.
func (s *PatientService) Update(ctx context.Context, id int, input models.PatientInput) (*models.Patient, error) {
	return ehrHttp.Request[models.Patient](ctx, s.client, models.PatientPath(id), ehrHttp.Options{
		Method: "PUT",
		Body:   input,
	})
}

// Delete removes the patient. The backend cascades to every child record.
func (s *PatientService) Delete(ctx context.Context, id int) error {
	return s.client.Delete(ctx, models.PatientPath(id))
}
