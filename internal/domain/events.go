package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventStreamReset          EventType = "StreamReset"
	EventPageRequested        EventType = "PageRequested"
	EventPageMerged           EventType = "PageMerged"
	EventPageFailed           EventType = "PageFailed"
	EventStaleResponseDropped EventType = "StaleResponseDropped"
	EventStreamExhausted      EventType = "StreamExhausted"
	EventLanguageChanged      EventType = "LanguageChanged"
	EventDetailsLoaded        EventType = "DetailsLoaded"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// StreamResetEvent is emitted when the accumulated results are discarded
type StreamResetEvent struct {
	Lifecycle Lifecycle
	Reason    string // "query" or "language"
}

func (e StreamResetEvent) Type() EventType { return EventStreamReset }

// PageRequestedEvent is emitted when a page fetch starts
type PageRequestedEvent struct {
	Request PageRequest
	Retry   bool
}

func (e PageRequestedEvent) Type() EventType { return EventPageRequested }

// PageMergedEvent is emitted after a fetched page has been merged into the results
type PageMergedEvent struct {
	Request    PageRequest
	Received   int // items returned by the provider
	Added      int // items that survived deduplication
	Total      int // items accumulated so far
	TotalPages int
}

func (e PageMergedEvent) Type() EventType { return EventPageMerged }

// PageFailedEvent is emitted when a page fetch fails
type PageFailedEvent struct {
	Request PageRequest
	Err     error
}

func (e PageFailedEvent) Type() EventType { return EventPageFailed }

// StaleResponseDroppedEvent is emitted when a result arrives for a superseded lifecycle
type StaleResponseDroppedEvent struct {
	Request PageRequest
	Current Lifecycle
}

func (e StaleResponseDroppedEvent) Type() EventType { return EventStaleResponseDropped }

// StreamExhaustedEvent is emitted when the provider returns an empty page
type StreamExhaustedEvent struct {
	Request PageRequest
}

func (e StreamExhaustedEvent) Type() EventType { return EventStreamExhausted }

// LanguageChangedEvent is emitted when the active language changes
type LanguageChangedEvent struct {
	From Language
	To   Language
}

func (e LanguageChangedEvent) Type() EventType { return EventLanguageChanged }

// DetailsLoadedEvent is emitted when details for a single movie have been fetched
type DetailsLoadedEvent struct {
	MovieID  int
	Language Language
	Err      error
}

func (e DetailsLoadedEvent) Type() EventType { return EventDetailsLoaded }
