package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/domain"
	"github.com/huangdelun16-lgtm/ml-express-sub006/module/core/internal/repository/database"
)

type fakePackageRepo struct {
	mu       sync.Mutex
	bindings map[string]*domain.PackageBinding
	photos   map[string]int
	getCalls int
	getErrs  int // number of initial GetBinding calls that fail
	photoErr error
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{
		bindings: map[string]*domain.PackageBinding{},
		photos:   map[string]int{},
	}
}

func (f *fakePackageRepo) GetBinding(_ context.Context, packageID string) (*domain.PackageBinding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getCalls <= f.getErrs {
		return nil, database.ErrNotFound
	}
	b, ok := f.bindings[packageID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return b, nil
}

func (f *fakePackageRepo) CountByPackage(_ context.Context, packageID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.photoErr != nil {
		return 0, f.photoErr
	}
	return f.photos[packageID], nil
}

func newTestViolationService(repo *fakePackageRepo, sink *recordingAlertSink, cfg ViolationConfig) *ViolationService {
	retry := RetryPolicy{Attempts: 3, Delay: time.Millisecond}
	return NewViolationService(repo, repo, sink, retry, NewDelayScheduler(), cfg, zap.NewNop())
}

func fastViolationConfig() ViolationConfig {
	cfg := DefaultViolationConfig()
	cfg.PhotoCheckDelay = 5 * time.Millisecond
	return cfg
}

func confirmationAt(lat, lon float64) *domain.DeliveryConfirmation {
	return &domain.DeliveryConfirmation{
		PackageID:        "PKG-1",
		CourierID:        "c1",
		CourierLatitude:  lat,
		CourierLongitude: lon,
		ConfirmedAt:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func waitForAlerts(t *testing.T, sink *recordingAlertSink, n int) []*domain.DeliveryAlert {
	t.Helper()
	require.Eventually(t, func() bool { return len(sink.created()) >= n },
		2*time.Second, 5*time.Millisecond)
	return sink.created()
}

func TestViolation_DistanceRecheck(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{
		PackageID:         "PKG-1",
		CourierName:       "Aung",
		ReceiverLatitude:  ptr(16.8661),
		ReceiverLongitude: ptr(96.1951),
	}
	repo.photos["PKG-1"] = 1
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	// Confirmed ~600 m north of the receiver.
	lat, lon := destinationAt(16.8661, 96.1951, 600)
	svc.Audit(context.Background(), confirmationAt(lat, lon))

	alerts := sink.created()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertLocationViolation, alerts[0].Type)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	assert.InDelta(t, 600, *alerts[0].DistanceFromDestination, 2)
	assert.Equal(t, "Aung", alerts[0].CourierName)
}

func TestViolation_FarDistanceIsCritical(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{
		PackageID:         "PKG-1",
		CourierName:       "Aung",
		ReceiverLatitude:  ptr(16.8661),
		ReceiverLongitude: ptr(96.1951),
	}
	repo.photos["PKG-1"] = 1
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	lat, lon := destinationAt(16.8661, 96.1951, 2500)
	svc.Audit(context.Background(), confirmationAt(lat, lon))

	alerts := sink.created()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)
}

func TestViolation_WithinRangeNoAlert(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{
		PackageID:         "PKG-1",
		CourierName:       "Aung",
		ReceiverLatitude:  ptr(16.8661),
		ReceiverLongitude: ptr(96.1951),
	}
	repo.photos["PKG-1"] = 2
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	svc.Audit(context.Background(), confirmationAt(16.8662, 96.1951))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.created())
}

func TestViolation_BindingFetchRetries(t *testing.T) {
	repo := newFakePackageRepo()
	repo.getErrs = 2 // first two attempts fail, third succeeds
	repo.bindings["PKG-1"] = &domain.PackageBinding{
		PackageID:         "PKG-1",
		CourierName:       "Aung",
		ReceiverLatitude:  ptr(16.8661),
		ReceiverLongitude: ptr(96.1951),
	}
	repo.photos["PKG-1"] = 1
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	lat, lon := destinationAt(16.8661, 96.1951, 600)
	svc.Audit(context.Background(), confirmationAt(lat, lon))

	alerts := sink.created()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertLocationViolation, alerts[0].Type)
	assert.Equal(t, 3, repo.getCalls)
}

func TestViolation_AbandonsAuditWhenBindingNeverResolves(t *testing.T) {
	repo := newFakePackageRepo() // no binding rows at all
	sink := &recordingAlertSink{}

	scheduler := NewDelayScheduler()
	svc := NewViolationService(repo, repo, sink,
		RetryPolicy{Attempts: 3, Delay: time.Millisecond},
		scheduler, fastViolationConfig(), zap.NewNop())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))

	// Every retry was used, then the audit stopped: no photo check was
	// scheduled and no alert of any kind was recorded.
	assert.Equal(t, 3, repo.getCalls)
	assert.Equal(t, 0, scheduler.PendingCount())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.created())
}

func TestViolation_AbandonsAuditWhenCourierNeverAssigned(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{PackageID: "PKG-1"} // no courier yet
	sink := &recordingAlertSink{}

	scheduler := NewDelayScheduler()
	svc := NewViolationService(repo, repo, sink,
		RetryPolicy{Attempts: 3, Delay: time.Millisecond},
		scheduler, fastViolationConfig(), zap.NewNop())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))

	assert.Equal(t, 0, scheduler.PendingCount())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.created())
}

func TestViolation_PhotoMissingAlertsAfterDelay(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{
		PackageID:   "PKG-1",
		CourierName: "Aung",
	}
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))

	alerts := waitForAlerts(t, sink, 1)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertPhotoViolation, alerts[0].Type)
	assert.Equal(t, "Aung", alerts[0].CourierName)
	assert.Equal(t, 0, alerts[0].Metadata["photo_count"])
}

func TestViolation_PhotoPresentNoAlert(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{PackageID: "PKG-1", CourierName: "Aung"}
	repo.photos["PKG-1"] = 1
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.created())
}

func TestViolation_ShutdownCancelsPhotoCheck(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{PackageID: "PKG-1", CourierName: "Aung"}
	sink := &recordingAlertSink{}

	scheduler := NewDelayScheduler()
	cfg := DefaultViolationConfig()
	cfg.PhotoCheckDelay = 30 * time.Millisecond
	svc := NewViolationService(repo, repo, sink, RetryPolicy{Attempts: 1}, scheduler, cfg, zap.NewNop())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))
	require.Equal(t, 1, scheduler.PendingCount())
	scheduler.Shutdown()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sink.created())
}

func TestViolation_PhotoCountErrorSwallowed(t *testing.T) {
	repo := newFakePackageRepo()
	repo.bindings["PKG-1"] = &domain.PackageBinding{PackageID: "PKG-1", CourierName: "Aung"}
	repo.photoErr = errors.New("db down")
	sink := &recordingAlertSink{}
	svc := newTestViolationService(repo, sink, fastViolationConfig())

	svc.Audit(context.Background(), confirmationAt(16.8661, 96.1951))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.created())
}
