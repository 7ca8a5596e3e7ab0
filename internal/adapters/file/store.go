package file

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"imagemate/internal/core/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// TempStore backs preview and result resources with temp files. Resource URLs are file:// URLs.
type TempStore struct {
	dir   string
	owned bool
	mutex *sync.Mutex
	live  map[uuid.UUID]string
}

// NewTempStore stores resources in dir. An empty dir creates a private directory that Close removes.
func NewTempStore(dir string) (*TempStore, error) {
	owned := false
	if dir == "" {
		d, err := os.MkdirTemp("", "imagemate-")
		if err != nil {
			return nil, fmt.Errorf("error creating resource directory %w", err)
		}
		dir = d
		owned = true
	}

	return &TempStore{
		dir:   dir,
		owned: owned,
		mutex: &sync.Mutex{},
		live:  make(map[uuid.UUID]string),
	}, nil
}

func (s *TempStore) Dir() string {
	return s.dir
}

func (s *TempStore) Allocate(data []byte, mimeType string) (domain.Resource, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return domain.Resource{}, err
	}

	var ext string
	if f, ok := domain.FormatFromMIME(mimeType); ok {
		ext = "." + f.String()
	}

	p, err := SaveTempFile(s.dir, id, data, ext)
	if err != nil {
		return domain.Resource{}, err
	}

	s.mutex.Lock()
	s.live[id] = p
	s.mutex.Unlock()

	return domain.Resource{
		ID:       id,
		URL:      (&url.URL{Scheme: "file", Path: p}).String(),
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

func (s *TempStore) Revoke(res domain.Resource) error {
	s.mutex.Lock()
	p, ok := s.live[res.ID]
	delete(s.live, res.ID)
	s.mutex.Unlock()

	if !ok {
		return domain.ErrResourceNotAllocated
	}

	if err := RemoveTempFile(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error revoking resource %w", err)
	}

	return nil
}

// Read returns the bytes behind a live resource.
func (s *TempStore) Read(res domain.Resource) ([]byte, error) {
	p, ok := s.Path(res)
	if !ok {
		return nil, domain.ErrResourceNotAllocated
	}
	return GetTempFile(p)
}

func (s *TempStore) Path(res domain.Resource) (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, ok := s.live[res.ID]
	return p, ok
}

// Live is the number of resources allocated and not yet revoked.
func (s *TempStore) Live() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.live)
}

// Close revokes leftover resources and removes the directory if the store created it.
func (s *TempStore) Close() error {
	s.mutex.Lock()
	leftover := s.live
	s.live = make(map[uuid.UUID]string)
	s.mutex.Unlock()

	for id, p := range leftover {
		log.Warn().Str("id", id.String()).Str("path", p).Msg("revoking leaked resource")
		_ = RemoveTempFile(p)
	}

	if s.owned {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("error removing resource directory %w", err)
		}
	}

	return nil
}
