package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/formpilot/pkg/kv"
	"github.com/entrhq/formpilot/pkg/logging"
)

// StorageKey is the key under which the store document is persisted.
const StorageKey = "formpilot.profiles"

// Store provides CRUD over profiles persisted in a key-value service.
// Read-modify-write cycles are serialized within the process; across
// processes the last write wins.
type Store struct {
	kv     kv.Store
	mu     sync.Mutex
	now    func() time.Time
	newID  func() string
	logger *logging.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides profile id generation.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a profile store over the given key-value service.
func NewStore(store kv.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:    store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger, "profile")
	return s
}

// List returns all profiles in creation order.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Profiles, nil
}

// Get returns the profile with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.index(id)
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}
	p := doc.Profiles[i]
	return &p, nil
}

// Create validates and persists a new profile.
func (s *Store) Create(ctx context.Context, in Input) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be blank"}
	}

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.nameTaken(name, "") {
		return nil, &ValidationError{Field: "name", Message: fmt.Sprintf("a profile named %q already exists", name)}
	}

	now := s.now()
	p := Profile{
		ID:          s.newID(),
		Name:        name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Data:        in.Data,
	}
	doc.Profiles = append(doc.Profiles, p)
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Infof("created profile %s (%q)", p.ID, p.Name)
	return &p, nil
}

// Update applies patch to the profile with the given id.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.index(id)
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}

	p := doc.Profiles[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "must not be blank"}
		}
		if doc.nameTaken(name, id) {
			return nil, &ValidationError{Field: "name", Message: fmt.Sprintf("a profile named %q already exists", name)}
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Data != nil {
		p.Data = *patch.Data
	}
	p.UpdatedAt = s.now()

	doc.Profiles[i] = p
	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a profile, clearing the active pointer if it referenced it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := doc.index(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	doc.Profiles = append(doc.Profiles[:i], doc.Profiles[i+1:]...)
	if doc.ActiveProfileID == id {
		doc.ActiveProfileID = ""
		s.logger.Infof("deleted active profile %s; active pointer cleared", id)
	}
	return s.save(ctx, doc)
}

// SetActive designates the profile used as the default data source.
func (s *Store) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if doc.index(id) < 0 {
		return &NotFoundError{ID: id}
	}
	doc.ActiveProfileID = id
	return s.save(ctx, doc)
}

// ClearActive unsets the active profile.
func (s *Store) ClearActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc.ActiveProfileID = ""
	return s.save(ctx, doc)
}

// Active returns the active profile, or nil when none is set.
func (s *Store) Active(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.ActiveProfileID == "" {
		return nil, nil
	}
	i := doc.index(doc.ActiveProfileID)
	if i < 0 {
		// Dangling pointer left by another writer.
		return nil, nil
	}
	p := doc.Profiles[i]
	return &p, nil
}

// FindByName returns the profile whose name matches case-insensitively.
func (s *Store) FindByName(ctx context.Context, name string) (*Profile, error) {
	profiles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return &p, nil
		}
	}
	return nil, &NotFoundError{ID: name}
}

func (s *Store) load(ctx context.Context) (*document, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("profile: load: %w", err)
	}
	doc := &document{Profiles: []Profile{}}
	if !ok || len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("profile: decode store: %w", err)
	}
	if doc.Profiles == nil {
		doc.Profiles = []Profile{}
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc *document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("profile: encode store: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("profile: save: %w", err)
	}
	return nil
}

func (d *document) index(id string) int {
	for i, p := range d.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nameTaken reports whether another profile (not exceptID) uses name.
func (d *document) nameTaken(name, exceptID string) bool {
	for _, p := range d.Profiles {
		if p.ID != exceptID && strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return true
		}
	}
	return false
}
