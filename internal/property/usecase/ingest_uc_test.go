package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
)

const (
	roomOneID = "507f1f77bcf86cd799439013"
	roomTwoID = "507f1f77bcf86cd799439014"
	testOwner = "507f1f77bcf86cd799439099"
)

func newIngestUC(repo *MockPropertyRepository, storage *FakeMediaStorage, scratch *FakeScratchStore, events *MockEventPublisher) *IngestUsecase {
	// A nil mock must become a nil interface so the usecase's nil check works.
	var eventsIface EventPublisher
	if events != nil {
		eventsIface = events
	}
	return NewIngestUsecase(repo, storage, scratch, nil, nil, eventsIface, nil, nil, logger.NewLogger(), 0)
}

func validSubmission() ingest.Submission {
	fields := map[string]string{
		"city":         "Almaty",
		"title":        "Cozy riverside apartment",
		"serviceType":  "rent by day",
		"propertyType": "apartment",
		"address":      "12 Abay Avenue",
		"description":  "A bright two-bedroom apartment close to the river with a view.",
		"location":     `{"type":"Point","coordinates":[76.88,43.23]}`,
		"rooms":        fmt.Sprintf(`[{"_id":%q,"count":2},{"_id":%q,"count":1}]`, roomOneID, roomTwoID),
		"roomsImages":  fmt.Sprintf(`[{"room":%q},{"room":%q}]`, roomOneID, roomTwoID),
		"price":        "15000",
		"maxAdults":    "4",
		"maxChilds":    "2",
		"deposite":     "5000",
	}

	var files []domain.Attachment
	for i := 0; i < domain.MainImageCount; i++ {
		files = append(files, domain.Attachment{
			FieldKey:   "mainImages",
			StoredName: fmt.Sprintf("main-%d.jpg", i),
		})
	}
	files = append(files,
		domain.Attachment{FieldKey: "roomsImages[0].images", StoredName: "room0-a.jpg"},
		domain.Attachment{FieldKey: "roomsImages[0].images", StoredName: "room0-b.jpg"},
		domain.Attachment{FieldKey: "roomsImages[1].images", StoredName: "room1-a.jpg"},
	)

	return ingest.Submission{Fields: fields, Files: files}
}

func TestCreateProperty(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)
	events := new(MockEventPublisher)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Property")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Property).ID = "507f191e810c19729de860ea"
		}).
		Return(nil)
	events.On("Publish", mock.Anything, "property.created", mock.Anything).Return(nil)

	uc := newIngestUC(repo, storage, scratch, events)
	sub := validSubmission()

	property, err := uc.CreateProperty(context.Background(), testOwner, sub)
	require.NoError(t, err)

	assert.Equal(t, testOwner, property.Owner)
	assert.Len(t, property.MainImages, domain.MainImageCount)
	require.Len(t, property.RoomsImages, 2)
	assert.Equal(t, roomOneID, property.RoomsImages[0].RoomID)
	assert.Len(t, property.RoomsImages[0].Images, 2)
	assert.Equal(t, roomTwoID, property.RoomsImages[1].RoomID)
	assert.Len(t, property.RoomsImages[1].Images, 1)

	// Eight uploads, none reversed.
	assert.Len(t, storage.Uploaded, 8)
	assert.Empty(t, storage.Removed)

	// Every staged file is cleaned regardless of outcome.
	assert.Len(t, scratch.Removed, len(sub.Files))

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCreateProperty_ValidationFailsBeforeAnyUpload(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()
	sub.Fields["title"] = "Short"

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, storage.Uploaded)
	assert.Len(t, scratch.Removed, len(sub.Files))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProperty_WrongMainImageCount(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()
	sub.Files = sub.Files[1:] // four main images left

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)
	assert.ErrorIs(t, err, domain.ErrMainImageCount)
	assert.Empty(t, storage.Uploaded)
	assert.Len(t, scratch.Removed, len(sub.Files))
}

func TestCreateProperty_MissingRoomGroup(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()
	// Drop the second room's files but keep its declaration.
	sub.Files = sub.Files[:len(sub.Files)-1]

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)

	var missing *domain.RoomMediaMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)
	assert.Empty(t, storage.Uploaded)
}

func TestCreateProperty_RoomUploadFailureReversesEverything(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	// The second room's upload fails after the main set and the first room
	// already landed remotely.
	storage.Fail["room1-a.jpg"] = true

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)

	var uploadErr *domain.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, roomTwoID, uploadErr.Group)

	assert.Len(t, storage.Uploaded, 7)
	assert.Empty(t, storage.Remaining(), "every uploaded asset must be reversed")
	assert.Len(t, scratch.Removed, len(sub.Files))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProperty_MainUploadFailureReversesPartialGroup(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	storage.Fail["main-2.jpg"] = true

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)

	assert.Empty(t, storage.Remaining())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProperty_PersistenceFailureReversesUploads(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	repo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: db insert failed", domain.ErrPersistence))

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()

	_, err := uc.CreateProperty(context.Background(), testOwner, sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	assert.Len(t, storage.Uploaded, 8)
	assert.Empty(t, storage.Remaining(), "persistence failure must reverse all uploads")
	assert.Len(t, scratch.Removed, len(sub.Files))
}

func TestCreateProperty_CleanupSurvivesCancelledContext(t *testing.T) {
	repo := new(MockPropertyRepository)
	storage := NewFakeMediaStorage()
	scratch := new(FakeScratchStore)

	ctx, cancel := context.WithCancel(context.Background())

	// Simulate the client going away right as persistence fails: the
	// reversal still has to run on its detached context.
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(errors.New("write conflict"))

	uc := newIngestUC(repo, storage, scratch, nil)
	sub := validSubmission()

	_, err := uc.CreateProperty(ctx, testOwner, sub)
	require.Error(t, err)
	assert.Empty(t, storage.Remaining())
}
