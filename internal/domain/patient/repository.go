package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
)

// PatientRepository defines the persistence interface for patients
type PatientRepository interface {
	// FindByID finds a patient by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// FindByMRN finds a patient by medical record number
	FindByMRN(ctx context.Context, mrn string) (*Patient, error)

	// Search lists patients matching a name or MRN fragment
	Search(ctx context.Context, query string, filter shared.Filter) (*shared.Paginated[Patient], error)

	// Save persists a patient (create or update)
	Save(ctx context.Context, patient *Patient) error

	// ExistsByMRN checks whether a patient with the MRN already exists
	ExistsByMRN(ctx context.Context, mrn string) (bool, error)
}

// DoctorRepository defines the persistence interface for doctors
type DoctorRepository interface {
	// FindByID finds a doctor by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// FindActive lists active doctors, optionally filtered by specialty
	FindActive(ctx context.Context, specialty string) ([]Doctor, error)

	// Save persists a doctor (create or update)
	Save(ctx context.Context, doctor *Doctor) error
}

// AdmissionRepository defines the persistence interface for admissions
type AdmissionRepository interface {
	// FindByID finds an admission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Admission, error)

	// FindByPatient lists a patient's admissions, newest first
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]Admission, error)

	// FindOpenByPatient finds the patient's open stay, if any
	FindOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Admission, error)

	// FindAdmitted lists currently open stays
	FindAdmitted(ctx context.Context, filter shared.Filter) (*shared.Paginated[Admission], error)

	// Save persists an admission (create or update)
	Save(ctx context.Context, admission *Admission) error

	// SaveWithLock persists an admission with optimistic locking.
	// Returns ErrConcurrencyConflict if the version does not match.
	SaveWithLock(ctx context.Context, admission *Admission) error
}

// AppointmentRepository defines the persistence interface for appointments
type AppointmentRepository interface {
	// FindByID finds an appointment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByPatient lists a patient's appointments, newest first
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// FindByDoctorAndRange lists a doctor's appointments in a time window
	FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// Save persists an appointment (create or update)
	Save(ctx context.Context, appointment *Appointment) error
}
