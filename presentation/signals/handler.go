package signals

// Handler turns OS signals into application behaviour.
type Handler interface {
	Handle()
}
