package iommu

// configStore owns the stream and context configuration maps, replacing
// entries wholesale on configure and returning a default-invalid record
// on lookup miss rather than failing the call, per spec.md §4.4.
type configStore struct {
	streams  map[StreamID]StreamConfig
	contexts map[uint64]ContextConfig
}

func newConfigStore() *configStore {
	return &configStore{
		streams:  make(map[StreamID]StreamConfig),
		contexts: make(map[uint64]ContextConfig),
	}
}

func (s *configStore) configureStream(id StreamID, cfg StreamConfig) {
	s.streams[id] = cfg
}

func (s *configStore) configureContext(stream StreamID, asid ASID, cfg ContextConfig) {
	s.contexts[contextKey(stream, asid)] = cfg
}

func (s *configStore) getStream(id StreamID) StreamConfig {
	return s.streams[id] // zero value has Valid == false
}

func (s *configStore) getContext(stream StreamID, asid ASID) ContextConfig {
	return s.contexts[contextKey(stream, asid)]
}
