package ehr

import (
	"context"
	"fmt"
	"sync"

	"github.com/GyroTools/ehr-connector-go/ehr/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const PARALLEL_LOADS = 3

// PatientBundle is a patient together with the records to create for it. The
// child inputs' Patient field is filled in once the patient exists.
type PatientBundle struct {
	Patient        models.PatientInput         `json:"patient"`
	MedicalRecords []models.MedicalRecordInput `json:"medical_records"`
	Medications    []models.MedicationInput    `json:"medications"`
	VitalSigns     []models.VitalSignInput     `json:"vital_signs"`
	Appointments   []models.AppointmentInput   `json:"appointments"`
}

type ProgressType string

const (
	TypeLoadStarted     ProgressType = "load_started"
	TypeBundleStarted   ProgressType = "bundle_started"
	TypeBundleCompleted ProgressType = "bundle_completed"
	TypeBundleError     ProgressType = "bundle_error"
	TypeProgressPct     ProgressType = "progress"
	TypeLoadCompleted   ProgressType = "load_completed"
)

type LoadProgress struct {
	Type ProgressType
	Data interface{}
}

// BundleResult is the outcome of one bundle. Patient is set as soon as the
// patient was created, even when a child record failed afterwards.
type BundleResult struct {
	Index               int
	MedicalRecordNumber string
	Patient             *models.Patient
	Existed             bool
	NrMedicalRecords    int
	NrMedications       int
	NrVitalSigns        int
	NrAppointments      int
	Err                 error
}

type LoadResult struct {
	NrBundles        int
	NrLoaded         int
	NrFailed         int
	NrExisted        int
	NrMedicalRecords int
	NrMedications    int
	NrVitalSigns     int
	NrAppointments   int
	Patients         []models.Patient
	Failed           []BundleResult
}

// Loader creates patients with their child records using a fixed pool of
// workers. A failed bundle does not stop the others and is not retried.
type Loader struct {
	ehr     *EHR
	workers int
	logger  zerolog.Logger

	// ReuseExisting looks up each patient by medical record number first and
	// adds the children to the existing patient when one is found.
	ReuseExisting bool
}

func NewLoader(ehr *EHR, workers int, logger zerolog.Logger) *Loader {
	if workers <= 0 {
		workers = PARALLEL_LOADS
	}
	return &Loader{ehr: ehr, workers: workers, logger: logger}
}

type bundleJob struct {
	index  int
	bundle PatientBundle
}

// Load creates all bundles. Progress events are sent on progress when it is
// not nil; the caller must keep receiving until Load returns. The returned
// error is only set when ctx was canceled, per-bundle failures are reported
// in the result.
func (l *Loader) Load(ctx context.Context, bundles []PatientBundle, progress chan<- LoadProgress) (*LoadResult, error) {
	total := len(bundles)
	l.emit(ctx, progress, LoadProgress{Type: TypeLoadStarted, Data: total})

	bundleCh := make(chan bundleJob, l.workers)
	resultCh := make(chan BundleResult, l.workers)
	result := &LoadResult{NrBundles: total, Patients: []models.Patient{}, Failed: []BundleResult{}}

	collectWg := new(sync.WaitGroup)
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		done := 0
		for res := range resultCh {
			done++
			if res.Err != nil {
				result.NrFailed++
				result.Failed = append(result.Failed, res)
				l.logger.Warn().Err(res.Err).Int("bundle", res.Index).Str("mrn", res.MedicalRecordNumber).Msg("bundle failed")
				l.emit(ctx, progress, LoadProgress{Type: TypeBundleError, Data: res})
			} else {
				result.NrLoaded++
				l.logger.Debug().Int("bundle", res.Index).Int("patient_id", res.Patient.ID).Msg("bundle loaded")
				l.emit(ctx, progress, LoadProgress{Type: TypeBundleCompleted, Data: res})
			}
			if res.Existed {
				result.NrExisted++
			}
			if res.Patient != nil {
				result.Patients = append(result.Patients, *res.Patient)
			}
			result.NrMedicalRecords += res.NrMedicalRecords
			result.NrMedications += res.NrMedications
			result.NrVitalSigns += res.NrVitalSigns
			result.NrAppointments += res.NrAppointments
			l.emit(ctx, progress, LoadProgress{Type: TypeProgressPct, Data: 100 * done / total})
		}
	}()

	wg := new(sync.WaitGroup)
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go l.worker(ctx, bundleCh, resultCh, progress, wg)
	}

feed:
	for i, bundle := range bundles {
		select {
		case bundleCh <- bundleJob{index: i, bundle: bundle}:
		case <-ctx.Done():
			break feed
		}
	}
	close(bundleCh)
	wg.Wait()

	close(resultCh)
	collectWg.Wait()

	l.emit(ctx, progress, LoadProgress{Type: TypeLoadCompleted, Data: *result})
	return result, ctx.Err()
}

func (l *Loader) worker(ctx context.Context, bundleCh <-chan bundleJob, resultCh chan<- BundleResult, progress chan<- LoadProgress, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range bundleCh {
		l.emit(ctx, progress, LoadProgress{Type: TypeBundleStarted, Data: job.index})
		resultCh <- l.loadBundle(ctx, job)
	}
}

func (l *Loader) loadBundle(ctx context.Context, job bundleJob) BundleResult {
	bundle := job.bundle
	res := BundleResult{Index: job.index, MedicalRecordNumber: bundle.Patient.MedicalRecordNumber}

	patient, existed, err := l.patient(ctx, bundle.Patient)
	if err != nil {
		res.Err = fmt.Errorf("create patient %s: %w", res.MedicalRecordNumber, err)
		return res
	}
	res.Patient = patient
	res.Existed = existed

	for _, input := range bundle.MedicalRecords {
		input.Patient = patient.ID
		if _, err := l.ehr.MedicalRecords.Create(ctx, input); err != nil {
			res.Err = fmt.Errorf("create medical record for %s: %w", res.MedicalRecordNumber, err)
			return res
		}
		res.NrMedicalRecords++
	}
	for _, input := range bundle.Medications {
		input.Patient = patient.ID
		if _, err := l.ehr.Medications.Create(ctx, input); err != nil {
			res.Err = fmt.Errorf("create medication for %s: %w", res.MedicalRecordNumber, err)
			return res
		}
		res.NrMedications++
	}
	for _, input := range bundle.VitalSigns {
		input.Patient = patient.ID
		if _, err := l.ehr.VitalSigns.Create(ctx, input); err != nil {
			res.Err = fmt.Errorf("create vital sign for %s: %w", res.MedicalRecordNumber, err)
			return res
		}
		res.NrVitalSigns++
	}
	for _, input := range bundle.Appointments {
		input.Patient = patient.ID
		if _, err := l.ehr.Appointments.Create(ctx, input); err != nil {
			res.Err = fmt.Errorf("create appointment for %s: %w", res.MedicalRecordNumber, err)
			return res
		}
		res.NrAppointments++
	}
	return res
}

func (l *Loader) patient(ctx context.Context, input models.PatientInput) (*models.Patient, bool, error) {
	if l.ReuseExisting {
		// search matches substrings across several fields, so every page is checked
		candidates, err := l.ehr.Patients.ListAll(ctx, models.Search(input.MedicalRecordNumber))
		if err != nil {
			return nil, false, err
		}
		for i := range candidates {
			if candidates[i].MedicalRecordNumber == input.MedicalRecordNumber {
				return &candidates[i], true, nil
			}
		}
	}
	patient, err := l.ehr.Patients.Create(ctx, input)
	if err != nil {
		return nil, false, err
	}
	if patient == nil {
		return nil, false, fmt.Errorf("empty response")
	}
	return patient, false, nil
}

func (l *Loader) emit(ctx context.Context, progress chan<- LoadProgress, p LoadProgress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	case <-ctx.Done():
	}
}

// Clear deletes every patient and returns how many were deleted. Child
// records are removed by the backend together with their patient.
func (l *Loader) Clear(ctx context.Context) (int, error) {
	patients, err := l.ehr.Patients.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	var mu sync.Mutex
	deleted := 0
	for _, patient := range patients {
		id := patient.ID
		g.Go(func() error {
			if err := l.ehr.Patients.Delete(ctx, id); err != nil && !IsNotFound(err) {
				return fmt.Errorf("delete patient %d: %w", id, err)
			}
			mu.Lock()
			deleted++
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return deleted, err
}
