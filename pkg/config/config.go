// Package config holds formpilot's section-based JSON configuration.
package config

// Load opens the configuration file at path (the default location when
// empty), registers the default sections and applies the stored values.
func Load(path string) (*Manager, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return New(store)
}

// New registers the default sections over store and loads them.
func New(store Store) (*Manager, error) {
	manager := NewManager(store)
	for _, section := range []Section{
		NewLLMSection(),
		NewAutofillSection(),
		NewSitesSection(),
		NewStorageSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// LLM returns the LLM section, or nil when it is not registered.
func (m *Manager) LLM() *LLMSection {
	s, _ := m.GetSection(SectionIDLLM)
	llm, _ := s.(*LLMSection)
	return llm
}

// Autofill returns the autofill section, or nil when it is not registered.
func (m *Manager) Autofill() *AutofillSection {
	s, _ := m.GetSection(SectionIDAutofill)
	a, _ := s.(*AutofillSection)
	return a
}

// Sites returns the sites section, or nil when it is not registered.
func (m *Manager) Sites() *SitesSection {
	s, _ := m.GetSection(SectionIDSites)
	sites, _ := s.(*SitesSection)
	return sites
}

// Storage returns the storage section, or nil when it is not registered.
func (m *Manager) Storage() *StorageSection {
	s, _ := m.GetSection(SectionIDStorage)
	st, _ := s.(*StorageSection)
	return st
}
