package eventreporter

const (
	// NotifierName identifies this client to the ingestion service
	NotifierName = "Bugsnag Mini Go"

	// NotifierVersion is the notifier version sent with every payload
	NotifierVersion = "1.0.0"

	// NotifierURL is the notifier homepage sent with every payload
	NotifierURL = "https://github.com/YaleSpinup/bugsnag-mini"

	// PayloadVersion is the version of the event schema
	PayloadVersion = "2"
)

// Metadata is a free-form mapping attached to an event by an enrichment provider
type Metadata map[string]interface{}

// Payload is the body POSTed to the ingestion endpoint
type Payload struct {
	APIKey   string   `json:"apiKey"`
	Notifier Notifier `json:"notifier"`
	Events   []Event  `json:"events"`
}

// Notifier describes the reporting client
type Notifier struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Event is a single error occurrence
type Event struct {
	PayloadVersion string      `json:"payloadVersion"`
	Exceptions     []Exception `json:"exceptions"`
	GroupingHash   string      `json:"groupingHash"`
	User           *Metadata   `json:"user,omitempty"`
	App            *Metadata   `json:"app,omitempty"`
	Device         *Metadata   `json:"device,omitempty"`
	MetaData       *Metadata   `json:"metaData,omitempty"`
}

// Exception is the error class, message and trace of an event
type Exception struct {
	ErrorClass string  `json:"errorClass"`
	Message    string  `json:"message"`
	Stacktrace []Frame `json:"stacktrace"`
}

// Frame is one line of a stacktrace as the ingestion service expects it
type Frame struct {
	File       string `json:"file"`
	LineNumber int    `json:"lineNumber"`
	Method     string `json:"method"`
}

func defaultNotifier() Notifier {
	return Notifier{
		Name:    NotifierName,
		Version: NotifierVersion,
		URL:     NotifierURL,
	}
}
