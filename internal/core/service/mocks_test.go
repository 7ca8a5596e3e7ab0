package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"imagemate/internal/core/domain"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/mock"
)

type memStore struct {
	mutex      sync.Mutex
	live       map[uuid.UUID]domain.Resource
	allocated  int
	revoked    int
	allocError error
}

func newMemStore() *memStore {
	return &memStore{live: make(map[uuid.UUID]domain.Resource)}
}

func (m *memStore) Allocate(data []byte, mimeType string) (domain.Resource, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.allocError != nil {
		return domain.Resource{}, m.allocError
	}

	id := uuid.Must(uuid.NewV4())
	res := domain.Resource{
		ID:       id,
		URL:      fmt.Sprintf("mem://%s", id),
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}
	m.live[id] = res
	m.allocated++

	return res, nil
}

func (m *memStore) Revoke(res domain.Resource) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.live[res.ID]; !ok {
		return domain.ErrResourceNotAllocated
	}
	delete(m.live, res.ID)
	m.revoked++

	return nil
}

func (m *memStore) Live() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.live)
}

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConvertedImage, error) {
	args := m.Called(ctx, req)
	img, _ := args.Get(0).(*domain.ConvertedImage)
	return img, args.Error(1)
}

// blockingConverter holds every call until release is closed or the context is cancelled.
type blockingConverter struct {
	mutex   sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	reply   *domain.ConvertedImage
}

func newBlockingConverter(reply *domain.ConvertedImage) *blockingConverter {
	return &blockingConverter{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (b *blockingConverter) Convert(ctx context.Context, _ domain.ConversionRequest) (*domain.ConvertedImage, error) {
	b.mutex.Lock()
	b.calls++
	b.mutex.Unlock()

	b.started <- struct{}{}

	select {
	case <-b.release:
		return b.reply, nil
	case <-ctx.Done():
		return nil, &domain.TransportError{Err: ctx.Err()}
	}
}

func (b *blockingConverter) Calls() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.calls
}

// lateConverter ignores cancellation and always answers once released.
type lateConverter struct {
	started chan struct{}
	release chan struct{}
	reply   *domain.ConvertedImage
}

func (l *lateConverter) Convert(_ context.Context, _ domain.ConversionRequest) (*domain.ConvertedImage, error) {
	l.started <- struct{}{}
	<-l.release
	return l.reply, nil
}

type recordingNotifier struct {
	mutex  sync.Mutex
	events []domain.Event
}

func (r *recordingNotifier) Notify(event domain.Event) {
	r.mutex.Lock()
	r.events = append(r.events, event)
	r.mutex.Unlock()
}

func (r *recordingNotifier) Transitions() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.From.String()+"->"+e.To.String())
	}
	return out
}

var errMock = errors.New("mock error")

// switchableReader serves random bytes until fail is set.
type switchableReader struct {
	fail atomic.Bool
}

func (r *switchableReader) Read(p []byte) (int, error) {
	if r.fail.Load() {
		return 0, errMock
	}
	return rand.Read(p)
}

func pngFile(name string) domain.SourceFile {
	return domain.SourceFile{Name: name, MIMEType: "image/png", Data: []byte("png-bytes-" + name)}
}

func ptr[T any](v T) *T {
	return &v
}
