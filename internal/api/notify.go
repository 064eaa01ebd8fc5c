package api

// Notifier shows a failed call to a person. It is diagnostic only and is
// called only when the client runs in debug mode.
type Notifier interface {
	Notify(title, message string)
}

type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) {
	f(title, message)
}
