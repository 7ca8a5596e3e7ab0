package service

import (
	"context"
	"errors"
	"fmt"
	"imagemate/internal/core/domain"
	"imagemate/internal/core/port"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Orchestrator drives a single conversion session from file selection to a
// converted result. At most one conversion is in flight at a time.
type Orchestrator struct {
	converter   port.ImageConverter
	store       port.ResourceStore
	upload      *UploadState
	gen         uuid.Generator
	mutex       *sync.Mutex
	settings    domain.Settings
	trackSource bool
	state       domain.State
	result      *domain.ConversionResult
	lastErr     error
	requestID   uuid.UUID
	cancel      context.CancelFunc
	notifiers   []port.EventNotifier
}

type Option func(*Orchestrator)

// WithSettings replaces the default initial settings.
func WithSettings(settings domain.Settings) Option {
	return func(o *Orchestrator) {
		o.settings = settings
	}
}

// WithSourceFormatTracking disallows converting a file into its own format.
func WithSourceFormatTracking(enabled bool) Option {
	return func(o *Orchestrator) {
		o.trackSource = enabled
	}
}

// WithIDGenerator sets the generator for upload identities and request ids.
func WithIDGenerator(gen uuid.Generator) Option {
	return func(o *Orchestrator) {
		o.gen = gen
		o.upload.gen = gen
	}
}

func NewOrchestrator(converter port.ImageConverter, store port.ResourceStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		converter: converter,
		store:     store,
		upload:    NewUploadState(store),
		gen:       uuid.DefaultGenerator,
		mutex:     &sync.Mutex{},
		settings:  domain.DefaultSettings(),
		state:     domain.Idle,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Subscribe registers n for state change events.
func (o *Orchestrator) Subscribe(n port.EventNotifier) {
	o.mutex.Lock()
	o.notifiers = append(o.notifiers, n)
	o.mutex.Unlock()
}

func (o *Orchestrator) State() domain.State {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.state
}

func (o *Orchestrator) Settings() domain.Settings {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.settings
}

// Result returns the current conversion result, if any.
func (o *Orchestrator) Result() (domain.ConversionResult, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.result == nil {
		return domain.ConversionResult{}, false
	}
	return *o.result, true
}

// Err returns the error of the last failed conversion.
func (o *Orchestrator) Err() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.lastErr
}

func (o *Orchestrator) Upload() *UploadState {
	return o.upload
}

// SelectFile replaces the source file. Validation errors leave the session
// untouched. Any in-flight conversion is cancelled and its response dropped.
func (o *Orchestrator) SelectFile(candidate domain.SourceFile) error {
	o.mutex.Lock()

	_, err := o.upload.SelectFile(candidate)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		o.mutex.Unlock()
		return err
	}

	if _, _, selected := o.upload.File(); err != nil && selected {
		o.mutex.Unlock()
		log.Warn().Err(err).Str("name", candidate.Name).Msg("could not select file, keeping current selection")
		return err
	}

	o.abortInFlight()
	o.releaseResult()
	o.lastErr = nil

	event := domain.Event{From: o.state}
	if err != nil {
		o.state = domain.Idle
		o.lastErr = err
		event.Err = err
	} else {
		o.state = domain.Ready
		event.FileName = candidate.Name
		o.trackSourceFormat(candidate)
	}
	event.To = o.state

	o.mutex.Unlock()
	o.publish(event)

	return err
}

// UpdateSettings applies a partial settings update. A material change discards
// an existing result or failure and returns the session to Ready. A format that
// is unknown or equal to the tracked source format is left unchanged and
// reported as a *domain.ValidationError; the rest of the update still applies.
func (o *Orchestrator) UpdateSettings(update domain.SettingsUpdate) (domain.Settings, error) {
	o.mutex.Lock()

	prev := o.settings
	checkErr := prev.Check(update)
	o.settings = prev.Apply(update)
	next := o.settings

	var events []domain.Event
	if prev.MateriallyDiffers(next) && (o.state == domain.Converted || o.state == domain.Failed) {
		o.releaseResult()
		o.lastErr = nil
		events = append(events, domain.Event{From: o.state, To: domain.Ready})
		o.state = domain.Ready
	}

	o.mutex.Unlock()
	o.publish(events...)

	if checkErr != nil {
		log.Debug().Err(checkErr).Msg("settings update rejected")
	}

	return next, checkErr
}

// Convert sends the selected file to the converter. It is a no-op returning
// domain.ErrNoFileSelected or domain.ErrConversionInFlight when the session
// can not start a conversion. A response that arrives after the file changed
// is dropped with domain.ErrSupersededRequest.
func (o *Orchestrator) Convert(ctx context.Context) (*domain.ConversionResult, error) {
	o.mutex.Lock()

	file, identity, ok := o.upload.File()
	if !ok {
		o.mutex.Unlock()
		log.Debug().Msg("convert requested without a file")
		return nil, domain.ErrNoFileSelected
	}

	if o.state == domain.Converting {
		o.mutex.Unlock()
		log.Debug().Str("name", file.Name).Msg("convert requested while in flight")
		return nil, domain.ErrConversionInFlight
	}

	requestID, err := o.gen.NewV4()
	if err != nil {
		o.mutex.Unlock()
		return nil, fmt.Errorf("error creating request id: %w", err)
	}

	settings := o.settings
	req := domain.ConversionRequest{
		Query:       settings.Query(),
		ContentType: file.MIMEType,
		Body:        file.Data,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.requestID = requestID
	o.cancel = cancel
	o.releaseResult()
	o.lastErr = nil

	started := domain.Event{From: o.state, To: domain.Converting, FileName: file.Name}
	o.state = domain.Converting

	o.mutex.Unlock()
	o.publish(started)

	l := log.With().
		Str("requestId", requestID.String()).
		Str("uploadId", identity.String()).
		Str("name", file.Name).
		Str("format", settings.Format.String()).
		Logger()

	l.Info().Int64("bytes", file.Size()).Msg("converting image")

	img, convErr := o.converter.Convert(ctx, req)

	o.mutex.Lock()

	if o.requestID != requestID || o.upload.Identity() != identity {
		o.mutex.Unlock()
		l.Info().Msg("discarding stale conversion response")
		return nil, domain.ErrSupersededRequest
	}

	o.requestID = uuid.Nil
	o.cancel = nil

	if convErr != nil {
		return nil, o.failLocked(l, file.Name, domain.Classify(convErr))
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = settings.Format.MIMEType()
	}

	res, err := o.store.Allocate(img.Data, contentType)
	if err != nil {
		return nil, o.failLocked(l, file.Name, &domain.UnknownError{Err: fmt.Errorf("error allocating result: %w", err)})
	}

	result := domain.ConversionResult{
		Resource:     res,
		Format:       settings.Format,
		Size:         int64(len(img.Data)),
		OriginalSize: file.Size(),
	}
	o.result = &result
	o.state = domain.Converted

	o.mutex.Unlock()

	l.Info().Int64("bytes", result.Size).Int("savings", result.SavingsPercent()).Msg("image converted")
	o.publish(domain.Event{From: domain.Converting, To: domain.Converted, FileName: file.Name, Result: &result})

	return &result, nil
}

// Close cancels any in-flight conversion and revokes every resource held by the session.
func (o *Orchestrator) Close() error {
	o.mutex.Lock()

	o.abortInFlight()
	o.releaseResult()
	o.lastErr = nil
	err := o.upload.Close()

	var events []domain.Event
	if o.state != domain.Idle {
		events = append(events, domain.Event{From: o.state, To: domain.Idle})
	}
	o.state = domain.Idle

	o.mutex.Unlock()
	o.publish(events...)

	return err
}

// failLocked records err, unlocks the session and publishes the failure.
func (o *Orchestrator) failLocked(l zerolog.Logger, name string, err error) error {
	o.state = domain.Failed
	o.lastErr = err
	o.mutex.Unlock()

	l.Error().Err(err).Msg("conversion failed")
	o.publish(domain.Event{From: domain.Converting, To: domain.Failed, FileName: name, Err: err})

	return err
}

func (o *Orchestrator) trackSourceFormat(file domain.SourceFile) {
	if !o.trackSource {
		return
	}

	if f, ok := domain.FormatFromMIME(file.MIMEType); ok {
		o.settings = o.settings.WithSourceFormat(f)
		return
	}
	o.settings.SourceFormat = ""
}

func (o *Orchestrator) abortInFlight() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.requestID = uuid.Nil
}

func (o *Orchestrator) releaseResult() {
	if o.result == nil {
		return
	}

	if err := o.store.Revoke(o.result.Resource); err != nil {
		log.Warn().Err(err).Str("result", o.result.Resource.URL).Msg("could not revoke result")
	}
	o.result = nil
}

func (o *Orchestrator) publish(events ...domain.Event) {
	if len(events) == 0 {
		return
	}

	o.mutex.Lock()
	notifiers := slices.Clone(o.notifiers)
	o.mutex.Unlock()

	for _, event := range events {
		log.Debug().Stringer("from", event.From).Stringer("to", event.To).Msg("state changed")
		for _, n := range notifiers {
			n.Notify(event)
		}
	}
}
