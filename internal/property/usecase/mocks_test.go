package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/aqarhub/property-service/internal/property/domain"
)

type MockPropertyRepository struct{ mock.Mock }

func (m *MockPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) UpdateLocation(ctx context.Context, id, ownerID, city string, location domain.GeoPoint) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, city, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) UpdateDetails(ctx context.Context, id, ownerID string, details domain.DetailsUpdate) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) UpdateOffers(ctx context.Context, id, ownerID string, offers []string) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, offers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) UpdateNearbyPlaces(ctx context.Context, id, ownerID string, places []string) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, places)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) UpdatePrice(ctx context.Context, id, ownerID string, serviceType domain.ServiceType, price domain.Price, deposit float64) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, serviceType, price, deposit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) ReplaceMainImages(ctx context.Context, id, ownerID string, version int64, images []domain.MediaAsset) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, version, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) ReplaceRooms(ctx context.Context, id, ownerID string, version int64, rooms []domain.RoomCount, galleries []domain.RoomGallery) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, version, rooms, galleries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) ReplaceRoomGalleries(ctx context.Context, id, ownerID string, version int64, galleries []domain.RoomGallery) (*domain.Property, error) {
	args := m.Called(ctx, id, ownerID, version, galleries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCommentRepository struct{ mock.Mock }

func (m *MockCommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCommentRepository) FindByProperty(ctx context.Context, propertyID string) ([]*domain.Comment, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Comment), args.Error(1)
}
func (m *MockCommentRepository) DeleteByProperty(ctx context.Context, propertyID string) (int64, error) {
	args := m.Called(ctx, propertyID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockCommentRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPropertyCache struct{ mock.Mock }

func (m *MockPropertyCache) Get(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyCache) Set(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPropertyCache) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendPropertyPublishedEmail(toEmail, propertyTitle string) error {
	args := m.Called(toEmail, propertyTitle)
	return args.Error(0)
}

// FakeMediaStorage records every upload and removal. The per-field-key Fail
// set makes chosen uploads fail, which is what the compensation tests hinge
// on. It is safe for the concurrent per-group uploads.
type FakeMediaStorage struct {
	mu       sync.Mutex
	Fail     map[string]bool
	Uploaded []string
	Removed  []string
}

func NewFakeMediaStorage() *FakeMediaStorage {
	return &FakeMediaStorage{Fail: make(map[string]bool)}
}

func (f *FakeMediaStorage) Upload(ctx context.Context, att domain.Attachment) (domain.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail[att.StoredName] {
		return domain.MediaAsset{}, context.DeadlineExceeded
	}
	id := "remote/" + att.StoredName
	f.Uploaded = append(f.Uploaded, id)
	return domain.MediaAsset{URL: "https://store.example/" + id, PublicID: id}, nil
}

func (f *FakeMediaStorage) Remove(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, publicID)
	return nil
}

func (f *FakeMediaStorage) RemoveMany(ctx context.Context, publicIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, publicIDs...)
	return nil
}

// Remaining returns the ids uploaded but never removed.
func (f *FakeMediaStorage) Remaining() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := make(map[string]bool, len(f.Removed))
	for _, id := range f.Removed {
		removed[id] = true
	}
	var left []string
	for _, id := range f.Uploaded {
		if !removed[id] {
			left = append(left, id)
		}
	}
	return left
}

// FakeScratchStore records the staged names that were removed.
type FakeScratchStore struct {
	mu      sync.Mutex
	Removed []string
}

func (f *FakeScratchStore) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, name)
	return nil
}
