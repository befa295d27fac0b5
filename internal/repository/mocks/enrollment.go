package mocks

import (
	"context"
	"sync"

	"github.com/rpggio/courseflow/internal/domain/batch"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/stretchr/testify/mock"
)

// CourseService is a mock for enrollment.CourseService.
type CourseService struct {
	mock.Mock
}

func (m *CourseService) ListBatches(ctx context.Context, criteria enrollment.Criteria) ([]batch.Batch, error) {
	args := m.Called(ctx, criteria)
	if batches, ok := args.Get(0).([]batch.Batch); ok {
		return batches, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CourseService) Enroll(ctx context.Context, req enrollment.Request) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *CourseService) ListEnrolled(ctx context.Context, userID string, fresh bool) ([]batch.EnrolledCourse, error) {
	args := m.Called(ctx, userID, fresh)
	if courses, ok := args.Get(0).([]batch.EnrolledCourse); ok {
		return courses, args.Error(1)
	}
	return nil, args.Error(1)
}

// Preferences is an in-memory enrollment.Preferences.
type Preferences struct {
	mu     sync.Mutex
	values map[string]string
}

func NewPreferences() *Preferences {
	return &Preferences{values: map[string]string{}}
}

func (p *Preferences) Get(_ context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[key], nil
}

func (p *Preferences) Put(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

// Network is a fixed enrollment.Network.
type Network bool

func (n Network) Available(context.Context) bool {
	return bool(n)
}

// Navigator is a mock for enrollment.Navigator.
type Navigator struct {
	mock.Mock
}

func (m *Navigator) OpenBatchList(ctx context.Context, c batch.Content, layout batch.Layout) error {
	args := m.Called(ctx, c, layout)
	return args.Error(0)
}

func (m *Navigator) OpenContent(ctx context.Context, ref content.Reference) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *Navigator) CurrentRoute(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

func (m *Navigator) Back(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// BatchPicker is a mock for enrollment.BatchPicker.
type BatchPicker struct {
	mock.Mock
}

func (m *BatchPicker) PickBatch(ctx context.Context, c batch.Content, batches []batch.Batch) (enrollment.Dismissal, error) {
	args := m.Called(ctx, c, batches)
	if d, ok := args.Get(0).(enrollment.Dismissal); ok {
		return d, args.Error(1)
	}
	return enrollment.Dismissal{}, args.Error(1)
}

// Loader counts Show and Hide calls.
type Loader struct {
	mu     sync.Mutex
	Shown  int
	Hidden int
}

func (l *Loader) Show(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Shown++
}

func (l *Loader) Hide(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Hidden++
}

// Telemetry records interactions.
type Telemetry struct {
	mu           sync.Mutex
	Interactions []enrollment.Interaction
}

func (t *Telemetry) Interact(_ context.Context, in enrollment.Interaction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Interactions = append(t.Interactions, in)
}

// Subtypes returns the recorded interaction subtypes in order.
func (t *Telemetry) Subtypes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.Interactions))
	for _, in := range t.Interactions {
		out = append(out, in.Subtype)
	}
	return out
}

// EnrolledCache is a mock for enrollment.EnrolledCache.
type EnrolledCache struct {
	mock.Mock
}

func (m *EnrolledCache) SetEnrolled(ctx context.Context, userID string, courses []batch.EnrolledCourse) error {
	args := m.Called(ctx, userID, courses)
	return args.Error(0)
}

// Listener is a mock for enrollment.Listener.
type Listener struct {
	mock.Mock
}

func (m *Listener) CourseEnrolled(ctx context.Context, ev enrollment.EnrolledEvent) {
	m.Called(ctx, ev)
}

func (m *Listener) ReturnToCourse(ctx context.Context) {
	m.Called(ctx)
}

// Onboarding is a mock for enrollment.Onboarding.
type Onboarding struct {
	mock.Mock
}

func (m *Onboarding) MarkJoinPending(ctx context.Context) {
	m.Called(ctx)
}

// ContentOpener is a mock for enrollment.ContentOpener.
type ContentOpener struct {
	mock.Mock
}

func (m *ContentOpener) Open(ctx context.Context, ref content.Reference) (content.Resolution, error) {
	args := m.Called(ctx, ref)
	if res, ok := args.Get(0).(content.Resolution); ok {
		return res, args.Error(1)
	}
	return content.Resolution{}, args.Error(1)
}
