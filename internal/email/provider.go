package email

// Email is one outgoing message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Provider abstracts the mail transport so tests can swap it out.
type Provider interface {
	Send(email *Email) error
}

// NopProvider drops mail; used when email is disabled in config.
type NopProvider struct{}

func (NopProvider) Send(*Email) error { return nil }

func NewNopProvider() NopProvider { return NopProvider{} }
