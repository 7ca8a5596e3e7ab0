package service

import (
	"errors"
	"fmt"
	"imagemate/internal/core/domain"
	"imagemate/internal/core/port"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// UploadState owns the selected source file and its preview resource.
type UploadState struct {
	store    port.ResourceStore
	gen      uuid.Generator
	mutex    *sync.Mutex
	file     *domain.SourceFile
	preview  domain.Resource
	identity uuid.UUID
	dragging bool
}

func NewUploadState(store port.ResourceStore) *UploadState {
	return &UploadState{store: store, gen: uuid.DefaultGenerator, mutex: &sync.Mutex{}}
}

// SelectFile validates the candidate and replaces the current file. The previous
// preview is revoked before the new one is allocated. A rejected candidate
// leaves the state untouched. It returns the identity of the new selection.
func (u *UploadState) SelectFile(candidate domain.SourceFile) (uuid.UUID, error) {
	if !candidate.IsImage() {
		log.Debug().Str("name", candidate.Name).Str("mimeType", candidate.MIMEType).Msg("rejected non-image file")
		return uuid.Nil, &domain.ValidationError{Reason: "Please select an image file"}
	}

	id, err := u.gen.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("error creating upload identity: %w", err)
	}

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.releasePreview()
	u.file = nil
	u.identity = uuid.Nil

	preview, err := u.store.Allocate(candidate.Data, candidate.MIMEType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error allocating preview: %w", err)
	}

	u.file = &candidate
	u.preview = preview
	u.identity = id

	log.Debug().
		Str("name", candidate.Name).
		Int64("bytes", candidate.Size()).
		Str("preview", preview.URL).
		Msg("file selected")

	return id, nil
}

// File returns the selected file and the identity of the selection.
func (u *UploadState) File() (domain.SourceFile, uuid.UUID, bool) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.file == nil {
		return domain.SourceFile{}, uuid.Nil, false
	}

	return *u.file, u.identity, true
}

func (u *UploadState) Identity() uuid.UUID {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.identity
}

// Preview returns the current preview handle. Callers must not keep it beyond the next selection.
func (u *UploadState) Preview() (domain.Resource, bool) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.preview, !u.preview.IsZero()
}

// Size is the byte size of the selected file, 0 when nothing is selected.
func (u *UploadState) Size() int64 {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.file == nil {
		return 0
	}
	return u.file.Size()
}

func (u *UploadState) SetDragging(dragging bool) {
	u.mutex.Lock()
	u.dragging = dragging
	u.mutex.Unlock()
}

func (u *UploadState) IsDragging() bool {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.dragging
}

// Close clears the selection and revokes the preview.
func (u *UploadState) Close() error {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	var err error
	if !u.preview.IsZero() {
		err = u.store.Revoke(u.preview)
		u.preview = domain.Resource{}
	}

	u.file = nil
	u.identity = uuid.Nil
	u.dragging = false

	if err != nil && !errors.Is(err, domain.ErrResourceNotAllocated) {
		return fmt.Errorf("error revoking preview: %w", err)
	}

	return nil
}

func (u *UploadState) releasePreview() {
	if u.preview.IsZero() {
		return
	}

	if err := u.store.Revoke(u.preview); err != nil {
		log.Warn().Err(err).Str("preview", u.preview.URL).Msg("could not revoke preview")
	}
	u.preview = domain.Resource{}
}
