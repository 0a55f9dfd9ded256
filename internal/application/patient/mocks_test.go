package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
)

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	args := m.Called(ctx, mrn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) Search(ctx context.Context, query string, filter shared.Filter) (*shared.Paginated[patient.Patient], error) {
	args := m.Called(ctx, query, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[patient.Patient]), args.Error(1)
}

func (m *MockPatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) ExistsByMRN(ctx context.Context, mrn string) (bool, error) {
	args := m.Called(ctx, mrn)
	return args.Bool(0), args.Error(1)
}

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindActive(ctx context.Context, specialty string) ([]patient.Doctor, error) {
	args := m.Called(ctx, specialty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) Save(ctx context.Context, d *patient.Doctor) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type MockAdmissionRepository struct {
	mock.Mock
}

func (m *MockAdmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Admission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]patient.Admission, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindOpenByPatient(ctx context.Context, patientID uuid.UUID) (*patient.Admission, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Admission), args.Error(1)
}

func (m *MockAdmissionRepository) FindAdmitted(ctx context.Context, filter shared.Filter) (*shared.Paginated[patient.Admission], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[patient.Admission]), args.Error(1)
}

func (m *MockAdmissionRepository) Save(ctx context.Context, a *patient.Admission) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAdmissionRepository) SaveWithLock(ctx context.Context, a *patient.Admission) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]patient.Appointment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]patient.Appointment, error) {
	args := m.Called(ctx, doctorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patient.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Save(ctx context.Context, a *patient.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
